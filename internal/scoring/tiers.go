package scoring

// Tier labels a score band. Each band decides how deep the evaluation goes
// and which blend formula applies.
type Tier string

const (
	TierFail Tier = "fail"
	TierPoor Tier = "poor"
	TierFair Tier = "fair"
	TierFull Tier = "full"
)

// BandCeiling closes a band table. Any metric still unmatched falls into the
// band carrying it, so every value in [0, 100] maps to exactly one tier.
const BandCeiling = 101

// Band is one half-open interval in an ascending rule table: a metric
// strictly below Upper (and not claimed by an earlier band) selects Tier.
type Band struct {
	Upper float64
	Tier  Tier
}

// Classify walks the band table top-down and returns the tier of the first
// band whose upper bound exceeds the metric. The last band must use
// BandCeiling.
func Classify(metric float64, bands []Band) Tier {
	for _, b := range bands {
		if metric < b.Upper {
			return b.Tier
		}
	}
	// Unreachable with a well-formed table; treat as the deepest tier.
	return bands[len(bands)-1].Tier
}

// Weighted is one sub-score with its blend weight. Weights in a blend sum
// to 1.0.
type Weighted struct {
	Score  float64
	Weight float64
}

// Blend computes the weighted sum of sub-scores, truncates to int and clamps
// to [0, 100]. Truncation (not rounding) matches how overall scores are
// surfaced everywhere in this service.
func Blend(parts ...Weighted) int {
	sum := 0.0
	for _, p := range parts {
		sum += p.Score * p.Weight
	}
	return Clamp(int(sum))
}

// Clamp bounds a score to [0, 100].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampFloat truncates a metric to int and bounds it to [0, 100]. Gate tiers
// use it when the overall score is a direct clamp of the triggering metric.
func ClampFloat(v float64) int {
	return Clamp(int(v))
}
