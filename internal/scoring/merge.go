package scoring

import "strings"

// Finding is a single flagged error: a verbatim wrong span from the analyzed
// text, its correction, and the rule that caught it.
type Finding struct {
	Wrong       string `json:"wrong"`
	Correct     string `json:"correct"`
	Rule        string `json:"rule,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Source      string `json:"source,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
}

const (
	// SourceRuleBased tags findings from the rule-based safety net.
	SourceRuleBased = "LanguageTool"
	// SourceAI tags findings from the generative model.
	SourceAI = "Gemini"

	mergeCap = 10
)

// MergeFindings combines rule-based and AI-detected findings, deduplicated
// by lowercased trimmed wrong span. Rule-based findings are treated as
// higher-confidence: on a key collision the AI finding is discarded.
// Rule-based entries come first in their original order, then AI-only
// entries, capped at 10 total.
func MergeFindings(ruleBased, ai []Finding) []Finding {
	seen := make(map[string]struct{}, len(ruleBased)+len(ai))
	merged := make([]Finding, 0, mergeCap)

	for _, f := range ruleBased {
		key := findingKey(f.Wrong)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		f.Source = SourceRuleBased
		f.Confidence = "high"
		merged = append(merged, f)
	}

	for _, f := range ai {
		key := findingKey(f.Wrong)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		f.Source = SourceAI
		f.Confidence = "medium"
		merged = append(merged, f)
	}

	if len(merged) > mergeCap {
		merged = merged[:mergeCap]
	}
	return merged
}

func findingKey(wrong string) string {
	return strings.ToLower(strings.TrimSpace(wrong))
}
