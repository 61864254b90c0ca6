package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/toeicgenius/assessment_service/internal/scoring"
)

// TextProvider generates a JSON reply for a prompt.
type TextProvider interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// VisionProvider describes an image guided by a prompt.
type VisionProvider interface {
	DescribeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// GrammarChecker is the rule-based safety net. Available reports whether
// the backing service answered its last health probe.
type GrammarChecker interface {
	Check(ctx context.Context, text string) ([]scoring.Finding, error)
	Available() bool
}

// Analyzer runs AI-backed language analysis for both the speaking and
// writing flows. Speaking methods never return an error: a provider
// failure degrades to a fallback analysis so the assessment still
// completes. Writing methods return the error and let the service decide.
type Analyzer struct {
	text     TextProvider
	fallback TextProvider
	vision   VisionProvider
	grammar  GrammarChecker
	caches   *Caches
	log      zerolog.Logger
}

// NewAnalyzer wires an Analyzer. fallback and grammar may be nil; vision
// may be nil when no image tasks are served.
func NewAnalyzer(text TextProvider, vision VisionProvider, grammar GrammarChecker, fallback TextProvider, caches *Caches, log zerolog.Logger) *Analyzer {
	if caches == nil {
		caches = NewCaches()
	}
	return &Analyzer{
		text:     text,
		fallback: fallback,
		vision:   vision,
		grammar:  grammar,
		caches:   caches,
		log:      log,
	}
}

func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := a.text.GenerateJSON(ctx, prompt)
	if err == nil {
		return raw, nil
	}
	if a.fallback == nil {
		return "", err
	}
	a.log.Warn().Err(err).Msg("primary model failed, using fallback provider")
	return a.fallback.GenerateJSON(ctx, prompt)
}

func (a *Analyzer) basicErrors(ctx context.Context, text string) []scoring.Finding {
	if a.grammar == nil || !a.grammar.Available() {
		return nil
	}
	findings, err := a.grammar.Check(ctx, text)
	if err != nil {
		a.log.Warn().Err(err).Msg("rule-based grammar check failed, AI-only mode")
		return nil
	}
	if len(findings) > 0 {
		a.log.Info().Int("count", len(findings)).Msg("rule-based safety net findings")
	}
	return findings
}

// adjustedGrammarScore rescores grammar from the merged error count. The
// bands reward clean text and punish dense errors harder than the model
// tends to.
func adjustedGrammarScore(base, errs int) int {
	switch {
	case errs == 0:
		return min(100, base+10)
	case errs <= 2:
		return max(base, 85)
	case errs <= 5:
		return max(base-5, 70)
	default:
		return max(0, min(base, 60-(errs-5)*3))
	}
}

const taskReadAloud = "read_aloud"

// AnalyzeSpeech is the open-ended analysis used by read-aloud and
// describe-picture flows: rule findings seed the prompt, the model hunts
// for everything else, and the two are merged afterwards.
func (a *Analyzer) AnalyzeSpeech(ctx context.Context, text string, duration float64, taskType string) SpeechAnalysis {
	wordCount := scoring.WordCount(text)
	wpm := 0.0
	if duration > 0 {
		wpm = float64(wordCount) / duration * 60
	}

	var basic []scoring.Finding
	if taskType != taskReadAloud {
		basic = a.basicErrors(ctx, text)
	}
	ltContext := safetyNetContext(basic, "Your task: Find ALL other errors not caught by rules.\nInclude context-based, style, and advanced errors.")

	raw, err := a.generate(ctx, speechPrompt(text, duration, wordCount, wpm, taskType, ltContext))
	if err != nil {
		a.log.Error().Err(err).Msg("speech analysis failed")
		return FallbackSpeech(text, duration)
	}
	var out SpeechAnalysis
	if err := Decode(raw, &out); err != nil {
		a.log.Error().Err(err).Msg("speech analysis reply unparseable")
		return FallbackSpeech(text, duration)
	}

	if len(basic) > 0 && taskType != taskReadAloud {
		merged := scoring.MergeFindings(basic, out.Grammar.Errors)
		out.Grammar.Errors = merged
		adjusted := adjustedGrammarScore(ScoreOr(out.Grammar.Score, 75), len(merged))
		out.Grammar.Score = &adjusted
	}
	return out
}

// AnalyzeReadAloudCoaching adds per-word pronunciation coaching on top of
// the standard analysis, seeded with Azure's mispronounced and omitted
// word lists.
func (a *Analyzer) AnalyzeReadAloudCoaching(ctx context.Context, text string, duration float64, mispronounced, omitted []string, referenceText string) SpeechAnalysis {
	wordCount := scoring.WordCount(text)
	wpm := 0.0
	if duration > 0 {
		wpm = float64(wordCount) / duration * 60
	}

	prompt := coachingPrompt(referenceText, text, duration, wordCount, wpm, coachingContext(mispronounced, omitted))
	raw, err := a.generate(ctx, prompt)
	if err != nil {
		a.log.Error().Err(err).Msg("coaching analysis failed")
		return FallbackSpeech(text, duration)
	}
	var out SpeechAnalysis
	if err := Decode(raw, &out); err != nil {
		a.log.Error().Err(err).Msg("coaching analysis reply unparseable")
		return FallbackSpeech(text, duration)
	}
	if out.PronunciationCoaching == nil {
		out.PronunciationCoaching = []PronunciationCoaching{}
	}
	return out
}

// AnalyzeRespondQuestions covers questions 5-7.
func (a *Analyzer) AnalyzeRespondQuestions(ctx context.Context, text string, duration float64, questionContext string) RespondQuestionsAnalysis {
	wordCount := scoring.WordCount(text)
	wpm := 0.0
	if duration > 0 {
		wpm = float64(wordCount) / duration * 60
	}

	basic := a.basicErrors(ctx, text)
	ltContext := safetyNetContext(basic, "Your task: Analyze comprehensively beyond these basic errors.")

	raw, err := a.generate(ctx, respondQuestionsPrompt(questionContext, text, duration, wordCount, wpm, ltContext))
	if err != nil {
		a.log.Error().Err(err).Msg("respond-questions analysis failed")
		return FallbackRespondQuestions()
	}
	var out RespondQuestionsAnalysis
	if err := Decode(raw, &out); err != nil {
		a.log.Error().Err(err).Msg("respond-questions reply unparseable")
		return FallbackRespondQuestions()
	}
	if len(basic) > 0 {
		out.Grammar.Errors = scoring.MergeFindings(basic, out.Grammar.Errors)
	}
	return out
}

// AnalyzeRespondInfo covers questions 8-10; the reference info is the
// ground truth the answer's facts are checked against.
func (a *Analyzer) AnalyzeRespondInfo(ctx context.Context, text string, duration float64, referenceInfo string) RespondInfoAnalysis {
	basic := a.basicErrors(ctx, text)
	ltContext := safetyNetContext(basic, "Focus on: Information accuracy + context/style errors.")

	raw, err := a.generate(ctx, respondInfoPrompt(referenceInfo, text, ltContext))
	if err != nil {
		a.log.Error().Err(err).Msg("respond-info analysis failed")
		return FallbackRespondInfo()
	}
	var out RespondInfoAnalysis
	if err := Decode(raw, &out); err != nil {
		a.log.Error().Err(err).Msg("respond-info reply unparseable")
		return FallbackRespondInfo()
	}
	if len(basic) > 0 {
		out.Grammar.Errors = scoring.MergeFindings(basic, out.Grammar.Errors)
	}
	return out
}

// AnalyzeOpinion covers question 11.
func (a *Analyzer) AnalyzeOpinion(ctx context.Context, text string, duration float64, questionContext string) OpinionAnalysis {
	wordCount := scoring.WordCount(text)
	wpm := 0.0
	if duration > 0 {
		wpm = float64(wordCount) / duration * 60
	}

	basic := a.basicErrors(ctx, text)
	ltContext := safetyNetContext(basic, "Focus on: Opinion clarity, reasoning, and advanced errors.")

	raw, err := a.generate(ctx, opinionPrompt(questionContext, text, duration, wordCount, wpm, ltContext))
	if err != nil {
		a.log.Error().Err(err).Msg("opinion analysis failed")
		return FallbackOpinion()
	}
	var out OpinionAnalysis
	if err := Decode(raw, &out); err != nil {
		a.log.Error().Err(err).Msg("opinion reply unparseable")
		return FallbackOpinion()
	}
	if len(basic) > 0 {
		out.Grammar.Errors = scoring.MergeFindings(basic, out.Grammar.Errors)
	}
	return out
}

// DescribeImage produces a reference description of a spoken-task picture.
// Results are cached by image content.
func (a *Analyzer) DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	return a.describeCached(ctx, image, mimeType, describeImagePrompt)
}

// DescribePicture is the writing-task variant with a terser prompt.
func (a *Analyzer) DescribePicture(ctx context.Context, image []byte, mimeType string) (string, error) {
	return a.describeCached(ctx, image, mimeType, writingImagePrompt)
}

func (a *Analyzer) describeCached(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	key := Key(KeyBytes(image), prompt)
	if cached, ok := a.caches.Image.Get(key); ok {
		a.log.Debug().Str("key", key[:8]).Msg("image cache hit")
		return cached, nil
	}
	desc, err := a.vision.DescribeImage(ctx, image, mimeType, prompt)
	if err != nil {
		return "", err
	}
	desc = strings.TrimSpace(desc)
	a.caches.Image.Put(key, desc)
	return desc, nil
}

// CompareImage grades a spoken description against the picture content.
// The expected content overrides the generated description when provided.
func (a *Analyzer) CompareImage(ctx context.Context, transcription, imageDescription, expectedContent string) ImageComparison {
	reference := imageDescription
	if strings.TrimSpace(expectedContent) != "" {
		reference = expectedContent
	}
	raw, err := a.generate(ctx, compareImagePrompt(transcription, reference))
	if err != nil {
		a.log.Error().Err(err).Msg("image comparison failed")
		return FallbackComparison()
	}
	var out ImageComparison
	if err := Decode(raw, &out); err != nil {
		a.log.Error().Err(err).Msg("image comparison reply unparseable")
		return FallbackComparison()
	}
	if out.MatchedElements == nil {
		out.MatchedElements = []string{}
	}
	if out.MissingElements == nil {
		out.MissingElements = []string{}
	}
	if out.IncorrectElements == nil {
		out.IncorrectElements = []string{}
	}
	return out
}

// AnalyzeSentence evaluates a writing part 1 sentence against the picture
// description. Cached by (text, description).
func (a *Analyzer) AnalyzeSentence(ctx context.Context, text, pictureDescription string) (SentenceAnalysis, error) {
	key := Key(text, pictureDescription)
	if cached, ok := a.caches.Sentence.Get(key); ok {
		a.log.Debug().Str("key", key[:8]).Msg("sentence cache hit")
		return cached, nil
	}
	raw, err := a.generate(ctx, sentencePrompt(pictureDescription, text))
	if err != nil {
		return SentenceAnalysis{}, err
	}
	var out SentenceAnalysis
	if err := Decode(raw, &out); err != nil {
		return SentenceAnalysis{}, err
	}
	a.caches.Sentence.Put(key, out)
	return out, nil
}

// AnalyzeEmail evaluates a writing part 2 email response.
func (a *Analyzer) AnalyzeEmail(ctx context.Context, text, requestPrompt string) (EmailAnalysis, error) {
	key := Key(text, requestPrompt)
	if cached, ok := a.caches.Email.Get(key); ok {
		a.log.Debug().Str("key", key[:8]).Msg("email cache hit")
		return cached, nil
	}
	raw, err := a.generate(ctx, emailPrompt(requestPrompt, text))
	if err != nil {
		return EmailAnalysis{}, err
	}
	var out EmailAnalysis
	if err := Decode(raw, &out); err != nil {
		return EmailAnalysis{}, err
	}
	a.caches.Email.Put(key, out)
	return out, nil
}

// AnalyzeEssay evaluates a writing part 3 opinion essay.
func (a *Analyzer) AnalyzeEssay(ctx context.Context, text, prompt string) (EssayAnalysis, error) {
	key := Key(text, prompt)
	if cached, ok := a.caches.Essay.Get(key); ok {
		a.log.Debug().Str("key", key[:8]).Msg("essay cache hit")
		return cached, nil
	}
	raw, err := a.generate(ctx, essayPrompt(prompt, text))
	if err != nil {
		return EssayAnalysis{}, err
	}
	var out EssayAnalysis
	if err := Decode(raw, &out); err != nil {
		return EssayAnalysis{}, err
	}
	a.caches.Essay.Put(key, out)
	return out, nil
}
