package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/toeicgenius/assessment_service/internal/logger"
	"github.com/toeicgenius/assessment_service/internal/scoring"
)

type fakeText struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeText) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeVision struct {
	desc  string
	err   error
	calls int
}

func (f *fakeVision) DescribeImage(_ context.Context, _ []byte, _, _ string) (string, error) {
	f.calls++
	return f.desc, f.err
}

type fakeGrammar struct {
	findings  []scoring.Finding
	available bool
}

func (f *fakeGrammar) Check(context.Context, string) ([]scoring.Finding, error) {
	return f.findings, nil
}

func (f *fakeGrammar) Available() bool { return f.available }

func newTestAnalyzer(text TextProvider, grammar GrammarChecker) *Analyzer {
	return NewAnalyzer(text, nil, grammar, nil, NewCaches(), logger.NewNop())
}

func TestAnalyzeSpeech_MergesRuleFindings(t *testing.T) {
	t.Parallel()

	text := &fakeText{reply: `{
		"grammar": {"score": 80, "errors": [{"wrong": "he go", "correct": "he is going"}]},
		"vocabulary": {"score": 70},
		"fluency": {"score": 75}
	}`}
	grammar := &fakeGrammar{
		available: true,
		findings:  []scoring.Finding{{Wrong: "he go", Correct: "he goes", Rule: "Agreement"}},
	}

	a := newTestAnalyzer(text, grammar)
	out := a.AnalyzeSpeech(context.Background(), "he go to school", 10, "describe_picture")

	if len(out.Grammar.Errors) != 1 {
		t.Fatalf("errors = %d, want 1 after dedupe", len(out.Grammar.Errors))
	}
	if out.Grammar.Errors[0].Source != scoring.SourceRuleBased {
		t.Errorf("collision kept %q source, want rule-based", out.Grammar.Errors[0].Source)
	}
	// one merged error lifts the base 80 to the <=2 errors floor of 85
	if got := ScoreOr(out.Grammar.Score, 0); got != 85 {
		t.Errorf("grammar score = %d, want 85", got)
	}
}

func TestAnalyzeSpeech_ReadAloudSkipsSafetyNet(t *testing.T) {
	t.Parallel()

	text := &fakeText{reply: `{"grammar": {"score": 90, "errors": []}, "vocabulary": {"score": 80}, "fluency": {"score": 85}}`}
	grammar := &fakeGrammar{
		available: true,
		findings:  []scoring.Finding{{Wrong: "x", Correct: "y"}},
	}

	a := newTestAnalyzer(text, grammar)
	out := a.AnalyzeSpeech(context.Background(), "some reading", 5, taskReadAloud)

	if len(out.Grammar.Errors) != 0 {
		t.Errorf("read-aloud picked up rule findings: %v", out.Grammar.Errors)
	}
	if strings.Contains(text.prompts[0], "BASIC ERRORS") {
		t.Error("read-aloud prompt was seeded with rule findings")
	}
	if got := ScoreOr(out.Grammar.Score, 0); got != 90 {
		t.Errorf("grammar score = %d, want unadjusted 90", got)
	}
}

func TestAnalyzeSpeech_ProviderFailureFallsBack(t *testing.T) {
	t.Parallel()

	text := &fakeText{err: errors.New("quota exceeded")}
	a := newTestAnalyzer(text, nil)

	// 20 words in 10s is 120 WPM, inside the appropriate-pace band
	words := strings.Repeat("word ", 20)
	out := a.AnalyzeSpeech(context.Background(), strings.TrimSpace(words), 10, "describe_picture")

	if got := ScoreOr(out.Grammar.Score, 0); got != 75 {
		t.Errorf("fallback grammar = %d, want 75", got)
	}
	if got := ScoreOr(out.Fluency.Score, 0); got != 80 {
		t.Errorf("fallback fluency = %d, want 80 at 120 WPM", got)
	}
}

func TestAnalyzeSpeech_MalformedReplyFallsBack(t *testing.T) {
	t.Parallel()

	text := &fakeText{reply: "I cannot answer that"}
	a := newTestAnalyzer(text, nil)
	out := a.AnalyzeSpeech(context.Background(), "two words", 60, "describe_picture")

	if got := ScoreOr(out.Fluency.Score, 0); got != 70 {
		t.Errorf("fallback fluency = %d, want 70 at 2 WPM", got)
	}
}

func TestAdjustedGrammarScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base, errs, want int
	}{
		{80, 0, 90},
		{95, 0, 100},
		{70, 1, 85},
		{90, 2, 90},
		{80, 4, 75},
		{72, 5, 70},
		{80, 8, 51},
		{10, 30, 0},
	}
	for _, tc := range cases {
		if got := adjustedGrammarScore(tc.base, tc.errs); got != tc.want {
			t.Errorf("adjustedGrammarScore(%d, %d) = %d, want %d", tc.base, tc.errs, got, tc.want)
		}
	}
}

func TestAnalyzeOpinion_Fallback(t *testing.T) {
	t.Parallel()

	text := &fakeText{err: errors.New("unavailable")}
	a := newTestAnalyzer(text, nil)
	out := a.AnalyzeOpinion(context.Background(), "my opinion", 30, "")

	if got := ScoreOr(out.ReasoningQuality.Score, 0); got != 65 {
		t.Errorf("fallback reasoning = %d, want 65", got)
	}
	if out.RelevanceToQuestion.Assessment != "AI unavailable" {
		t.Errorf("assessment = %q", out.RelevanceToQuestion.Assessment)
	}
}

func TestCompareImage_ExpectedContentOverridesDescription(t *testing.T) {
	t.Parallel()

	text := &fakeText{reply: `{"relevance_score": 88, "matched_elements": ["a dog"], "missing_elements": [], "incorrect_elements": []}`}
	a := newTestAnalyzer(text, nil)

	out := a.CompareImage(context.Background(), "a dog runs", "generated description", "expected content wins")
	if got := ScoreOr(out.RelevanceScore, 0); got != 88 {
		t.Errorf("relevance = %d, want 88", got)
	}
	if !strings.Contains(text.prompts[0], "expected content wins") {
		t.Error("prompt did not use the expected content as reference")
	}
	if strings.Contains(text.prompts[0], "generated description") {
		t.Error("prompt used the generated description despite expected content")
	}
}

func TestDescribeImage_CachesByContent(t *testing.T) {
	t.Parallel()

	vision := &fakeVision{desc: "a busy market"}
	a := NewAnalyzer(nil, vision, nil, nil, NewCaches(), logger.NewNop())

	img := []byte{0xff, 0xd8, 0x01}
	for i := 0; i < 3; i++ {
		desc, err := a.DescribeImage(context.Background(), img, "image/jpeg")
		if err != nil {
			t.Fatalf("DescribeImage: %v", err)
		}
		if desc != "a busy market" {
			t.Fatalf("desc = %q", desc)
		}
	}
	if vision.calls != 1 {
		t.Errorf("vision calls = %d, want 1 with caching", vision.calls)
	}
}

func TestAnalyzeSentence_CachesReply(t *testing.T) {
	t.Parallel()

	text := &fakeText{reply: `{"relevance": {"score": 90}, "grammar": {"overall_score": 85}, "vocabulary": {"overall_score": 80}}`}
	a := newTestAnalyzer(text, nil)

	for i := 0; i < 2; i++ {
		out, err := a.AnalyzeSentence(context.Background(), "A man is reading.", "a man reads a book")
		if err != nil {
			t.Fatalf("AnalyzeSentence: %v", err)
		}
		if got := ScoreOr(out.Relevance.Score, 0); got != 90 {
			t.Fatalf("relevance = %d, want 90", got)
		}
	}
	if len(text.prompts) != 1 {
		t.Errorf("model calls = %d, want 1 with caching", len(text.prompts))
	}
}

func TestAnalyzeEssay_ErrorPropagates(t *testing.T) {
	t.Parallel()

	text := &fakeText{err: errors.New("model down")}
	a := newTestAnalyzer(text, nil)
	if _, err := a.AnalyzeEssay(context.Background(), "essay text", "essay prompt"); err == nil {
		t.Fatal("AnalyzeEssay returned nil error with model down")
	}
}
