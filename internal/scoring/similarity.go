package scoring

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	jaccardWeight  = 0.4
	sequenceWeight = 0.6
)

// TextSimilarity scores how closely two texts match as a 0-100 percentage.
// It blends word-set overlap (jaccard) with word-order agreement
// (SequenceMatcher ratio) and rounds to 2 decimal places.
// Either side empty scores 0.0.
func TextSimilarity(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(strings.TrimSpace(a)))
	wordsB := strings.Fields(strings.ToLower(strings.TrimSpace(b)))

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	jaccard := jaccardScore(wordsA, wordsB)
	sequence := difflib.NewMatcher(wordsA, wordsB).Ratio() * 100

	final := jaccard*jaccardWeight + sequence*sequenceWeight
	return math.Round(final*100) / 100
}

func jaccardScore(wordsA, wordsB []string) float64 {
	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union) * 100
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
