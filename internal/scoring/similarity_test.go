package scoring

import (
	"math"
	"testing"
)

func TestTextSimilarity_Identity(t *testing.T) {
	t.Parallel()

	texts := []string{
		"the cat sat on the mat",
		"I strongly believe working from home is better",
		"one",
	}
	for _, text := range texts {
		got := TextSimilarity(text, text)
		if math.Abs(got-100.0) > 0.01 {
			t.Errorf("TextSimilarity(%q, same) = %v, want 100.0", text, got)
		}
	}
}

func TestTextSimilarity_Empty(t *testing.T) {
	t.Parallel()

	if got := TextSimilarity("the cat sat", ""); got != 0.0 {
		t.Errorf("TextSimilarity(text, empty) = %v, want 0.0", got)
	}
	if got := TextSimilarity("", "the cat sat"); got != 0.0 {
		t.Errorf("TextSimilarity(empty, text) = %v, want 0.0", got)
	}
	if got := TextSimilarity("   ", "\t\n"); got != 0.0 {
		t.Errorf("TextSimilarity(blank, blank) = %v, want 0.0", got)
	}
}

func TestTextSimilarity_CaseInsensitive(t *testing.T) {
	t.Parallel()

	got := TextSimilarity("The Cat SAT", "the cat sat")
	if math.Abs(got-100.0) > 0.01 {
		t.Errorf("TextSimilarity case-mixed = %v, want 100.0", got)
	}
}

// Truncated read-aloud attempt lands in the poor band: below 60 but at or
// above 40, so the overall score becomes a clamp of the metric itself.
func TestTextSimilarity_TruncatedReadAloud(t *testing.T) {
	t.Parallel()

	got := TextSimilarity("the cat sat", "the cat sat on the mat")
	if got < 40 || got >= 60 {
		t.Errorf("TextSimilarity(truncated) = %v, want in [40, 60)", got)
	}
}

func TestTextSimilarity_Range(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"completely different words here", "nothing shared at all between"},
		{"a b c d", "d c b a"},
		{"hello world", "hello world hello world"},
	}
	for _, p := range pairs {
		got := TextSimilarity(p[0], p[1])
		if got < 0 || got > 100 {
			t.Errorf("TextSimilarity(%q, %q) = %v, out of [0, 100]", p[0], p[1], got)
		}
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	if got := WordCount("  the   cat sat "); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(empty) = %d, want 0", got)
	}
}
