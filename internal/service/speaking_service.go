package service

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/toeicgenius/assessment_service/internal/analysis"
	"github.com/toeicgenius/assessment_service/internal/client"
	"github.com/toeicgenius/assessment_service/internal/errors"
	"github.com/toeicgenius/assessment_service/internal/scoring"
)

// Speaking task types, matching the TOEIC speaking test parts.
const (
	TaskReadAloud        = "read_aloud"
	TaskDescribePicture  = "describe_picture"
	TaskRespondQuestions = "respond_questions"
	TaskRespondWithInfo  = "respond_with_info"
	TaskExpressOpinion   = "express_opinion"
)

// Minimum transcription word counts per task. Below these the response
// fails outright and no further analysis is spent on it.
const (
	minWordsDescribe = 10
	minWordsRespond  = 20
	minWordsOpinion  = 30
)

// SpeechRecognizer is the speech-to-text boundary.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	AssessPronunciation(ctx context.Context, audio []byte, referenceText string) (client.PronunciationReport, error)
}

// AudioMeter measures local audio properties.
type AudioMeter interface {
	Duration(path string) float64
	IntonationScore(path string) int
}

// SpeechAnalyzer is the AI analysis boundary for speaking tasks.
type SpeechAnalyzer interface {
	AnalyzeSpeech(ctx context.Context, text string, duration float64, taskType string) analysis.SpeechAnalysis
	AnalyzeReadAloudCoaching(ctx context.Context, text string, duration float64, mispronounced, omitted []string, referenceText string) analysis.SpeechAnalysis
	AnalyzeRespondQuestions(ctx context.Context, text string, duration float64, questionContext string) analysis.RespondQuestionsAnalysis
	AnalyzeRespondInfo(ctx context.Context, text string, duration float64, referenceInfo string) analysis.RespondInfoAnalysis
	AnalyzeOpinion(ctx context.Context, text string, duration float64, questionContext string) analysis.OpinionAnalysis
	DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error)
	CompareImage(ctx context.Context, transcription, imageDescription, expectedContent string) analysis.ImageComparison
}

// SpeakingRequest carries one speaking assessment. AudioPath points at a
// wav file already persisted by the handler.
type SpeakingRequest struct {
	AudioPath       string
	TaskType        string
	QuestionNumber  int
	ReferenceText   string
	Image           []byte
	ImageMime       string
	ExpectedContent string
	QuestionContext string
}

// SpeakingResult is the assessment payload returned to the caller. Every
// score key a task defines is always present, zeroed when its tier was
// never reached.
type SpeakingResult struct {
	Transcription    string                 `json:"transcription"`
	Duration         float64                `json:"duration"`
	Scores           map[string]float64     `json:"scores"`
	DetailedAnalysis map[string]interface{} `json:"detailed_analysis"`
	Recommendations  []string               `json:"recommendations"`
	OverallScore     int                    `json:"overall_score"`
}

type SpeakingService struct {
	speech   SpeechRecognizer
	meter    AudioMeter
	analyzer SpeechAnalyzer
	log      zerolog.Logger
}

func NewSpeakingService(speech SpeechRecognizer, meter AudioMeter, analyzer SpeechAnalyzer, log zerolog.Logger) *SpeakingService {
	return &SpeakingService{
		speech:   speech,
		meter:    meter,
		analyzer: analyzer,
		log:      log,
	}
}

// Assess routes the request to its task flow after validating the
// task-specific required inputs.
func (s *SpeakingService) Assess(ctx context.Context, req SpeakingRequest) (*SpeakingResult, error) {
	switch req.TaskType {
	case TaskReadAloud:
		if strings.TrimSpace(req.ReferenceText) == "" {
			return nil, errors.Validation("reference_text is required for read_aloud")
		}
		return s.assessReadAloud(ctx, req), nil
	case TaskDescribePicture:
		if len(req.Image) == 0 && strings.TrimSpace(req.ExpectedContent) == "" {
			return nil, errors.Validation("picture or expected_content is required for describe_picture")
		}
		return s.assessDescribePicture(ctx, req)
	case TaskRespondQuestions:
		return s.assessRespondQuestions(ctx, req), nil
	case TaskRespondWithInfo:
		if strings.TrimSpace(req.QuestionContext) == "" {
			return nil, errors.Validation("question_context is required for respond_with_info")
		}
		return s.assessRespondWithInfo(ctx, req), nil
	case TaskExpressOpinion:
		return s.assessExpressOpinion(ctx, req), nil
	default:
		return nil, errors.Validationf("invalid question_type: %s", req.TaskType)
	}
}

// transcribe returns the transcription and duration. Recognition failures
// degrade to an empty transcript; the tier gates then fail the response
// on word count rather than aborting the assessment.
func (s *SpeakingService) transcribe(ctx context.Context, path string) (string, float64) {
	duration := s.meter.Duration(path)

	audioData, err := os.ReadFile(path)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("audio read failed")
		return "", duration
	}
	text, err := s.speech.Transcribe(ctx, audioData)
	if err != nil {
		s.log.Error().Err(err).Msg("transcription failed")
		return "", duration
	}
	return strings.TrimSpace(text), duration
}

func (s *SpeakingService) pronunciation(ctx context.Context, path, referenceText string) client.PronunciationReport {
	audioData, err := os.ReadFile(path)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("audio read failed")
		return client.ZeroPronunciationReport()
	}
	report, err := s.speech.AssessPronunciation(ctx, audioData, referenceText)
	if err != nil {
		s.log.Error().Err(err).Msg("pronunciation assessment failed")
		return client.ZeroPronunciationReport()
	}
	return report
}

var readAloudBands = []scoring.Band{
	{Upper: 40, Tier: scoring.TierFail},
	{Upper: 60, Tier: scoring.TierPoor},
	{Upper: 80, Tier: scoring.TierFair},
	{Upper: scoring.BandCeiling, Tier: scoring.TierFull},
}

func readAloudScores(textMatch float64) map[string]float64 {
	return map[string]float64{
		"text_match":    textMatch,
		"pronunciation": 0,
		"accuracy":      0,
		"fluency":       0,
		"completeness":  0,
		"intonation":    0,
		"grammar":       0,
		"overall":       0,
	}
}

func (s *SpeakingService) assessReadAloud(ctx context.Context, req SpeakingRequest) *SpeakingResult {
	transcription, duration := s.transcribe(ctx, req.AudioPath)
	textMatch := scoring.TextSimilarity(transcription, req.ReferenceText)

	switch scoring.Classify(textMatch, readAloudBands) {
	case scoring.TierFail:
		report := scoring.NewReport().
			Add("FAIL: Did NOT read the reference text").
			Add("Text match: %.1f%% (need at least 40%%)", textMatch).
			Blank().
			Add("What you said:").
			Add("%q", transcription).
			Blank().
			Add("What you should say:").
			Add("%q", req.ReferenceText).
			Blank().
			Add("Tips:").
			Add("- Read word-by-word slowly first").
			Add("- Practice the text before recording").
			Add("- Focus on accuracy over speed")

		return &SpeakingResult{
			Transcription: transcription,
			Duration:      duration,
			Scores:        readAloudScores(textMatch),
			DetailedAnalysis: map[string]interface{}{
				"text_match_percentage": textMatch,
				"reference_text":        req.ReferenceText,
				"pronunciation_details": client.ZeroPronunciationReport(),
			},
			Recommendations: report.Lines(0),
			OverallScore:    0,
		}

	case scoring.TierPoor:
		overall := scoring.ClampFloat(textMatch)
		scores := readAloudScores(textMatch)
		scores["overall"] = float64(overall)

		report := scoring.NewReport().
			Add("POOR: Many words wrong (%.1f%% match)", textMatch).
			Add("Need at least 60%% to get pronunciation feedback").
			Blank().
			Add("What you said:").
			Add("%q", transcription).
			Blank().
			Add("Reference text:").
			Add("%q", req.ReferenceText).
			Blank().
			Add("Next steps:").
			Add("- Compare your text with reference carefully").
			Add("- Read each word from the text").
			Add("- Don't skip or add words").
			Add("- Score can improve to 60+ if you read all words correctly")

		return &SpeakingResult{
			Transcription: transcription,
			Duration:      duration,
			Scores:        scores,
			DetailedAnalysis: map[string]interface{}{
				"text_match_percentage": textMatch,
				"reference_text":        req.ReferenceText,
				"pronunciation_details": client.ZeroPronunciationReport(),
			},
			Recommendations: report.Lines(0),
			OverallScore:    overall,
		}

	case scoring.TierFair:
		pron := s.pronunciation(ctx, req.AudioPath, req.ReferenceText)
		overall := scoring.Blend(
			scoring.Weighted{Score: textMatch, Weight: 0.6},
			scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.4},
		)

		scores := readAloudScores(textMatch)
		scores["pronunciation"] = float64(pron.PronunciationScore)
		scores["accuracy"] = float64(pron.AccuracyScore)
		scores["overall"] = float64(overall)

		report := scoring.NewReport().
			Add("FAIR: Some words missing (%.1f%% match)", textMatch).
			Add("Pronunciation: %d/100", pron.PronunciationScore).
			Add("Accuracy: %d/100", pron.AccuracyScore).
			Blank().
			Add("What you said:").
			Add("%q", transcription).
			Blank().
			Add("Reference text:").
			Add("%q", req.ReferenceText).
			Blank().
			Add("Improvements needed:").
			Add("- Read more carefully - don't skip any words").
			Add("- Need at least 80%% match to unlock full analysis").
			Add("- Practice pronunciation of individual words")

		if len(pron.MispronouncedWords) > 0 {
			report.Blank().Add("Mispronounced words:")
			for _, w := range pron.MispronouncedWords[:min(5, len(pron.MispronouncedWords))] {
				report.Add("- %q (accuracy: %.0f/100)", w.Word, w.Accuracy)
			}
		}

		return &SpeakingResult{
			Transcription: transcription,
			Duration:      duration,
			Scores:        scores,
			DetailedAnalysis: map[string]interface{}{
				"text_match_percentage": textMatch,
				"reference_text":        req.ReferenceText,
				"pronunciation_details": pron,
			},
			Recommendations: report.Lines(0),
			OverallScore:    overall,
		}
	}

	// Full evaluation tier.
	pron := s.pronunciation(ctx, req.AudioPath, req.ReferenceText)
	intonation := s.meter.IntonationScore(req.AudioPath)

	// Incomplete readings inflate raw fluency, so discount it.
	fluencyAdjusted := pron.FluencyScore
	switch {
	case pron.CompletenessScore < 50:
		fluencyAdjusted = int(float64(pron.FluencyScore) * 0.5)
	case pron.CompletenessScore < 80:
		fluencyAdjusted = int(float64(pron.FluencyScore) * 0.8)
	}

	mispronounced := make([]string, 0, len(pron.MispronouncedWords))
	for _, w := range pron.MispronouncedWords {
		mispronounced = append(mispronounced, w.Word)
	}
	ta := s.analyzer.AnalyzeReadAloudCoaching(ctx, transcription, duration, mispronounced, pron.OmittedWords, req.ReferenceText)
	grammar := analysis.ScoreOr(ta.Grammar.Score, 85)

	overall := scoring.Blend(
		scoring.Weighted{Score: textMatch, Weight: 0.25},
		scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.30},
		scoring.Weighted{Score: float64(pron.AccuracyScore), Weight: 0.20},
		scoring.Weighted{Score: float64(fluencyAdjusted), Weight: 0.15},
		scoring.Weighted{Score: float64(intonation), Weight: 0.10},
	)

	scores := map[string]float64{
		"text_match":    textMatch,
		"pronunciation": float64(pron.PronunciationScore),
		"accuracy":      float64(pron.AccuracyScore),
		"fluency":       float64(fluencyAdjusted),
		"completeness":  float64(pron.CompletenessScore),
		"intonation":    float64(intonation),
		"grammar":       float64(grammar),
		"overall":       float64(overall),
	}

	return &SpeakingResult{
		Transcription: transcription,
		Duration:      duration,
		Scores:        scores,
		DetailedAnalysis: map[string]interface{}{
			"text_match_percentage":  textMatch,
			"reference_text":         req.ReferenceText,
			"pronunciation_details":  pron,
			"pronunciation_coaching": ta.PronunciationCoaching,
			"grammar_analysis":       ta.Grammar,
			"vocabulary_analysis":    ta.Vocabulary,
			"fluency_analysis":       ta.Fluency,
		},
		Recommendations: s.readAloudRecommendations(scores, ta, overall),
		OverallScore:    overall,
	}
}

func (s *SpeakingService) readAloudRecommendations(scores map[string]float64, ta analysis.SpeechAnalysis, overall int) []string {
	report := scoring.NewReport()

	switch {
	case overall >= 90:
		report.Add("EXCELLENT! Almost perfect reading.")
	case overall >= 80:
		report.Add("GOOD JOB! Minor improvements needed.")
	case overall >= 70:
		report.Add("FAIR. Focus on areas below.")
	default:
		report.Add("NEEDS IMPROVEMENT. Practice more.")
	}

	report.Blank().
		Add("Your Scores:").
		Add("- Text Match: %.1f%%", scores["text_match"]).
		Add("- Pronunciation: %.0f/100", scores["pronunciation"]).
		Add("- Accuracy: %.0f/100", scores["accuracy"]).
		Add("- Fluency: %.0f/100", scores["fluency"]).
		Add("- Intonation: %.0f/100", scores["intonation"])
	if scores["grammar"] > 0 {
		report.Add("- Grammar: %.0f/100", scores["grammar"])
	}
	report.Blank()

	if len(ta.PronunciationCoaching) > 0 {
		report.Add("PRONUNCIATION COACHING:").Blank()
		coaching := ta.PronunciationCoaching[:min(5, len(ta.PronunciationCoaching))]
		for i, tip := range coaching {
			report.Add("%d. Word: %q", i+1, tip.Word)
			if tip.CurrentIssue != "" {
				report.Add("   Your issue: %s", tip.CurrentIssue)
			}
			if tip.CorrectPronunciation != "" {
				report.Add("   Correct: %s", tip.CorrectPronunciation)
			}
			if tip.SyllableBreakdown != "" {
				report.Add("   Syllables: %s", tip.SyllableBreakdown)
			}
			if tip.PracticeTip != "" {
				report.Add("   Practice: %s", tip.PracticeTip)
			}
			report.Blank()
		}
	}

	grammarScore := int(scores["grammar"])
	if grammarScore < 85 && len(ta.Grammar.Errors) > 0 {
		report.Add("GRAMMAR (%d/100):", grammarScore).Blank()
		for i, e := range ta.Grammar.Errors[:min(3, len(ta.Grammar.Errors))] {
			report.Add("%d. Wrong: %q", i+1, e.Wrong)
			report.Add("   Correct: %q", e.Correct)
			if e.Rule != "" {
				report.Add("   Rule: %s", e.Rule)
			}
			report.Blank()
		}
	}

	switch {
	case overall >= 85:
		report.Add("Excellent work! Keep it up!")
	case overall >= 70:
		report.Add("Good progress! Focus on areas above.")
	default:
		report.Add("Keep practicing! Improvement takes time.")
	}
	return report.Lines(0)
}

var describeBands = []scoring.Band{
	{Upper: 30, Tier: scoring.TierFail},
	{Upper: 50, Tier: scoring.TierPoor},
	{Upper: 70, Tier: scoring.TierFair},
	{Upper: scoring.BandCeiling, Tier: scoring.TierFull},
}

func describeScores(content float64) map[string]float64 {
	return map[string]float64{
		"content_accuracy": content,
		"intonation":       0,
		"grammar":          0,
		"vocabulary":       0,
		"fluency":          0,
		"overall":          0,
	}
}

func (s *SpeakingService) assessDescribePicture(ctx context.Context, req SpeakingRequest) (*SpeakingResult, error) {
	transcription, duration := s.transcribe(ctx, req.AudioPath)
	wordCount := scoring.WordCount(transcription)

	if wordCount < minWordsDescribe {
		report := scoring.NewReport().
			Add("FAIL: Response too short (need %d+ words)", minWordsDescribe).
			Add("Word count: %d", wordCount).
			Add("Describe people, objects, actions, colors, location")
		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           map[string]float64{"relevance": 0, "overall": 0},
			DetailedAnalysis: map[string]interface{}{},
			Recommendations:  report.Lines(0),
			OverallScore:     0,
		}, nil
	}

	// Build the reference: expected content wins, otherwise the vision
	// model describes the uploaded picture.
	imageDescription := ""
	if len(req.Image) > 0 {
		desc, err := s.analyzer.DescribeImage(ctx, req.Image, req.ImageMime)
		if err != nil {
			if strings.TrimSpace(req.ExpectedContent) == "" {
				return nil, errors.Wrap(errors.ErrAIService, "image analysis failed", err)
			}
			s.log.Warn().Err(err).Msg("image analysis failed, using expected content")
		} else {
			imageDescription = desc
		}
	}
	reference := req.ExpectedContent
	if strings.TrimSpace(reference) == "" {
		reference = imageDescription
	}

	comparison := s.analyzer.CompareImage(ctx, transcription, imageDescription, reference)
	content := float64(analysis.ScoreOr(comparison.RelevanceScore, 0))

	switch scoring.Classify(content, describeBands) {
	case scoring.TierFail:
		report := scoring.NewReport().Add("FAIL: Completely wrong description")
		if len(comparison.IncorrectElements) > 0 {
			report.Add("You described: %s", strings.Join(capStrings(comparison.IncorrectElements, 2), ", "))
		} else {
			report.Add("You described something different")
		}
		report.Add("Image shows: %s", truncate(reference, 100)).
			Add("Look at the image again - describe what you SEE").
			Add("Score: 0")

		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           describeScores(content),
			DetailedAnalysis: map[string]interface{}{"content_relevance": comparison},
			Recommendations:  report.Lines(0),
			OverallScore:     0,
		}, nil

	case scoring.TierPoor:
		overall := scoring.ClampFloat(content)
		scores := describeScores(content)
		scores["overall"] = float64(overall)

		report := scoring.NewReport().Add("POOR: Major errors (%.0f/100)", content)
		if len(comparison.IncorrectElements) > 0 {
			report.Add("Wrong: %s", strings.Join(capStrings(comparison.IncorrectElements, 2), ", "))
		}
		if len(comparison.MissingElements) > 0 {
			report.Add("Missing: %s", strings.Join(capStrings(comparison.MissingElements, 3), ", "))
		}
		if len(comparison.Suggestions) > 0 {
			report.Add("Add: %s", comparison.Suggestions[0])
		} else {
			report.Add("Describe main subjects and actions")
		}
		report.Add("Other skills not evaluated due to low content score")

		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           scores,
			DetailedAnalysis: map[string]interface{}{"content_relevance": comparison},
			Recommendations:  report.Lines(0),
			OverallScore:     overall,
		}, nil

	case scoring.TierFair:
		intonation := s.meter.IntonationScore(req.AudioPath)
		overall := scoring.Blend(
			scoring.Weighted{Score: content, Weight: 0.7},
			scoring.Weighted{Score: float64(intonation), Weight: 0.3},
		)
		scores := describeScores(content)
		scores["intonation"] = float64(intonation)
		scores["overall"] = float64(overall)

		report := scoring.NewReport().
			Add("FAIR: Partially correct (%.0f/100)", content).
			Add("Intonation: %d/100", intonation)
		if len(comparison.MissingElements) > 0 {
			report.Add("Missing: %s", strings.Join(capStrings(comparison.MissingElements, 2), ", "))
		}
		if len(comparison.Suggestions) > 0 {
			report.Add("%s", comparison.Suggestions[0])
		} else {
			report.Add("Add more details")
		}
		report.Add("Grammar/vocabulary not evaluated yet - improve content first")

		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           scores,
			DetailedAnalysis: map[string]interface{}{"content_relevance": comparison},
			Recommendations:  report.Lines(0),
			OverallScore:     overall,
		}, nil
	}

	// Full evaluation tier.
	intonation := s.meter.IntonationScore(req.AudioPath)
	ta := s.analyzer.AnalyzeSpeech(ctx, transcription, duration, TaskDescribePicture)

	grammar := analysis.ScoreOr(ta.Grammar.Score, 75)
	vocabulary := analysis.ScoreOr(ta.Vocabulary.Score, 75)
	fluency := analysis.ScoreOr(ta.Fluency.Score, 75)

	overall := scoring.Blend(
		scoring.Weighted{Score: content, Weight: 0.40},
		scoring.Weighted{Score: float64(intonation), Weight: 0.10},
		scoring.Weighted{Score: float64(grammar), Weight: 0.20},
		scoring.Weighted{Score: float64(vocabulary), Weight: 0.20},
		scoring.Weighted{Score: float64(fluency), Weight: 0.10},
	)

	scores := map[string]float64{
		"content_accuracy": content,
		"intonation":       float64(intonation),
		"grammar":          float64(grammar),
		"vocabulary":       float64(vocabulary),
		"fluency":          float64(fluency),
		"overall":          float64(overall),
	}

	recommendations := s.languageRecommendations(overall, grammar, vocabulary, ta.Grammar, ta.Vocabulary)
	if len(comparison.MissingElements) > 0 {
		recommendations = append([]string{
			"Content: Add " + strings.Join(capStrings(comparison.MissingElements, 2), ", "),
		}, recommendations...)
	}
	if len(recommendations) > 8 {
		recommendations = recommendations[:8]
	}

	return &SpeakingResult{
		Transcription: transcription,
		Duration:      duration,
		Scores:        scores,
		DetailedAnalysis: map[string]interface{}{
			"content_relevance":   comparison,
			"grammar_analysis":    ta.Grammar,
			"vocabulary_analysis": ta.Vocabulary,
			"fluency_analysis":    ta.Fluency,
		},
		Recommendations: recommendations,
		OverallScore:    overall,
	}, nil
}

func respondScores(wordCount int) map[string]float64 {
	return map[string]float64{
		"word_count":    float64(wordCount),
		"pronunciation": 0,
		"intonation":    0,
		"grammar":       0,
		"vocabulary":    0,
		"cohesion":      0,
		"relevance":     0,
		"completeness":  0,
		"overall":       0,
	}
}

func (s *SpeakingService) assessRespondQuestions(ctx context.Context, req SpeakingRequest) *SpeakingResult {
	transcription, duration := s.transcribe(ctx, req.AudioPath)
	wordCount := scoring.WordCount(transcription)

	if wordCount < minWordsRespond {
		report := scoring.NewReport().
			Add("FAIL: Too short (%d words < %d minimum)", wordCount, minWordsRespond).
			Add("Must answer all 3 questions").
			Add("Need at least 60 words for good score").
			Add("Speak more - give details and examples")
		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           respondScores(wordCount),
			DetailedAnalysis: map[string]interface{}{},
			Recommendations:  report.Lines(0),
			OverallScore:     0,
		}
	}

	ta := s.analyzer.AnalyzeRespondQuestions(ctx, transcription, duration, req.QuestionContext)
	relevance := analysis.ScoreOr(ta.RelevanceOfContent.Score, 0)
	completeness := analysis.ScoreOr(ta.CompletenessOfContent.Score, 0)

	if relevance < 30 || completeness < 30 {
		overall := max(relevance, completeness)
		scores := respondScores(wordCount)
		scores["relevance"] = float64(relevance)
		scores["completeness"] = float64(completeness)
		scores["overall"] = float64(overall)

		report := scoring.NewReport().Add("FAIL: Didn't answer properly")
		if issues := ta.RelevanceOfContent.Issues; issues != "" && !strings.EqualFold(issues, "none") {
			report.Add("Relevance issue: %s", issues)
		}
		missing := ta.CompletenessOfContent.MissingDetails
		if missing == "" {
			missing = "Missing key info"
		}
		report.Add("Completeness: %s", missing).
			Add("Answer ALL questions that were asked")

		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           scores,
			DetailedAnalysis: map[string]interface{}{"content_analysis": ta},
			Recommendations:  report.Lines(0),
			OverallScore:     overall,
		}
	}

	if completeness < 60 {
		intonation := s.meter.IntonationScore(req.AudioPath)
		overall := scoring.Blend(
			scoring.Weighted{Score: float64(relevance), Weight: 0.3},
			scoring.Weighted{Score: float64(completeness), Weight: 0.4},
			scoring.Weighted{Score: float64(intonation), Weight: 0.3},
		)

		scores := respondScores(wordCount)
		scores["relevance"] = float64(relevance)
		scores["completeness"] = float64(completeness)
		scores["intonation"] = float64(intonation)
		scores["overall"] = float64(overall)

		report := scoring.NewReport().
			Add("Content incomplete (%d/100)", completeness).
			Add("Intonation: %d/100", intonation)
		for _, sug := range capStrings(ta.CompletenessOfContent.Suggestions, 2) {
			report.Add("%s", sug)
		}

		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           scores,
			DetailedAnalysis: map[string]interface{}{"content_analysis": ta},
			Recommendations:  report.Lines(0),
			OverallScore:     overall,
		}
	}

	// Full evaluation tier. The transcription itself is the pronunciation
	// reference since there is no script to read.
	pron := s.pronunciation(ctx, req.AudioPath, transcription)
	intonation := s.meter.IntonationScore(req.AudioPath)

	grammar := analysis.ScoreOr(ta.Grammar.Score, 75)
	vocabulary := analysis.ScoreOr(ta.Vocabulary.Score, 75)
	cohesion := analysis.ScoreOr(ta.Cohesion.Score, 75)

	overall := scoring.Blend(
		scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.15},
		scoring.Weighted{Score: float64(intonation), Weight: 0.10},
		scoring.Weighted{Score: float64(grammar), Weight: 0.20},
		scoring.Weighted{Score: float64(vocabulary), Weight: 0.15},
		scoring.Weighted{Score: float64(cohesion), Weight: 0.15},
		scoring.Weighted{Score: float64(relevance), Weight: 0.15},
		scoring.Weighted{Score: float64(completeness), Weight: 0.10},
	)

	scores := map[string]float64{
		"word_count":    float64(wordCount),
		"pronunciation": float64(pron.PronunciationScore),
		"intonation":    float64(intonation),
		"grammar":       float64(grammar),
		"vocabulary":    float64(vocabulary),
		"cohesion":      float64(cohesion),
		"relevance":     float64(relevance),
		"completeness":  float64(completeness),
		"overall":       float64(overall),
	}

	recommendations := s.languageRecommendations(overall, grammar, vocabulary, ta.Grammar, ta.Vocabulary)
	if len(recommendations) > 10 {
		recommendations = recommendations[:10]
	}

	return &SpeakingResult{
		Transcription: transcription,
		Duration:      duration,
		Scores:        scores,
		DetailedAnalysis: map[string]interface{}{
			"pronunciation_details": pron,
			"grammar_analysis":      ta.Grammar,
			"vocabulary_analysis":   ta.Vocabulary,
			"cohesion_analysis":     ta.Cohesion,
			"relevance_analysis":    ta.RelevanceOfContent,
			"completeness_analysis": ta.CompletenessOfContent,
		},
		Recommendations: recommendations,
		OverallScore:    overall,
	}
}

func respondInfoScores(wordCount int) map[string]float64 {
	return map[string]float64{
		"word_count":           float64(wordCount),
		"information_accuracy": 0,
		"factual_errors":       0,
		"completeness":         0,
		"pronunciation":        0,
		"intonation":           0,
		"grammar":              0,
		"vocabulary":           0,
		"cohesion":             0,
		"overall":              0,
	}
}

func (s *SpeakingService) assessRespondWithInfo(ctx context.Context, req SpeakingRequest) *SpeakingResult {
	transcription, duration := s.transcribe(ctx, req.AudioPath)
	wordCount := scoring.WordCount(transcription)

	if wordCount < minWordsRespond {
		report := scoring.NewReport().
			Add("FAIL: Too short (%d words < %d)", wordCount, minWordsRespond).
			Add("Need 60+ words to answer all 3 questions").
			Add("Use information from the schedule provided")
		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           respondInfoScores(wordCount),
			DetailedAnalysis: map[string]interface{}{},
			Recommendations:  report.Lines(0),
			OverallScore:     0,
		}
	}

	ta := s.analyzer.AnalyzeRespondInfo(ctx, transcription, duration, req.QuestionContext)
	accuracy := analysis.ScoreOr(ta.InformationAccuracy.Score, 0)
	factualErrors := ta.InformationAccuracy.FactualErrorsCount
	completeness := analysis.ScoreOr(ta.CompletenessOfContent.Score, 0)

	// All sub-scores are computed before tiering; the fail tier still
	// reports the language skills it withholds credit for.
	pron := s.pronunciation(ctx, req.AudioPath, transcription)
	intonation := s.meter.IntonationScore(req.AudioPath)
	grammar := analysis.ScoreOr(ta.Grammar.Score, 75)
	vocabulary := analysis.ScoreOr(ta.Vocabulary.Score, 75)
	cohesion := analysis.ScoreOr(ta.Cohesion.Score, 75)

	scores := map[string]float64{
		"word_count":           float64(wordCount),
		"information_accuracy": float64(accuracy),
		"factual_errors":       float64(factualErrors),
		"completeness":         float64(completeness),
		"pronunciation":        float64(pron.PronunciationScore),
		"intonation":           float64(intonation),
		"grammar":              float64(grammar),
		"vocabulary":           float64(vocabulary),
		"cohesion":             float64(cohesion),
	}

	var overall int
	var recommendations []string

	switch {
	case accuracy < 30 || factualErrors >= 2:
		overall = 0
		report := scoring.NewReport().
			Add("FAIL: Major factual errors - cannot pass").
			Add("Factual errors: %d", factualErrors).
			Add("Score: 0 - MUST use EXACT schedule information").
			Blank()
		if len(ta.InformationAccuracy.IncorrectFacts) > 0 {
			report.Add("Your errors:")
			for _, fact := range ta.InformationAccuracy.IncorrectFacts[:min(2, len(ta.InformationAccuracy.IncorrectFacts))] {
				report.Add("  You said: %s", fact.StudentSaid)
				report.Add("  Should be: %s", fact.ShouldBe)
			}
		}
		if ta.InformationAccuracy.Correction != "" {
			report.Add("Correct answer: %s", ta.InformationAccuracy.Correction)
		}
		report.Blank().
			Add("Your other skills:").
			Add("  Pronunciation: %d/100", pron.PronunciationScore).
			Add("  Grammar: %d/100", grammar).
			Add("Fix information accuracy to get credit for language skills")
		recommendations = report.Lines(0)

	case accuracy < 70:
		overall = scoring.Blend(
			scoring.Weighted{Score: float64(accuracy), Weight: 0.30},
			scoring.Weighted{Score: float64(completeness), Weight: 0.15},
			scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.20},
			scoring.Weighted{Score: float64(intonation), Weight: 0.10},
			scoring.Weighted{Score: float64(grammar), Weight: 0.15},
			scoring.Weighted{Score: float64(vocabulary), Weight: 0.05},
			scoring.Weighted{Score: float64(cohesion), Weight: 0.05},
		)
		report := scoring.NewReport().
			Add("FAIR: Information accuracy needs improvement (%d/100)", accuracy).
			Add("Factual errors: %d", factualErrors)
		for _, fact := range ta.InformationAccuracy.IncorrectFacts[:min(2, len(ta.InformationAccuracy.IncorrectFacts))] {
			report.Add("Wrong: %s, Correct: %s", fact.StudentSaid, fact.ShouldBe)
		}
		report.Add("Pronunciation: %d/100", pron.PronunciationScore).
			Add("Grammar: %d/100", grammar).
			Add("Use EXACT data from schedule - don't guess!")
		recommendations = report.Lines(0)

	default:
		overall = scoring.Blend(
			scoring.Weighted{Score: float64(accuracy), Weight: 0.40},
			scoring.Weighted{Score: float64(completeness), Weight: 0.15},
			scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.15},
			scoring.Weighted{Score: float64(intonation), Weight: 0.10},
			scoring.Weighted{Score: float64(grammar), Weight: 0.10},
			scoring.Weighted{Score: float64(vocabulary), Weight: 0.05},
			scoring.Weighted{Score: float64(cohesion), Weight: 0.05},
		)
		report := scoring.NewReport()
		if accuracy < 90 {
			report.Add("Information Accuracy: %d/100 - minor issues", accuracy)
		}
		if pron.PronunciationScore < 80 {
			report.Add("Pronunciation: %d/100", pron.PronunciationScore)
		}
		if grammar < 80 && len(ta.Grammar.Errors) > 0 {
			first := ta.Grammar.Errors[0]
			report.Add("Grammar: %d/100", grammar).
				Add("  Wrong: '%s', Correct: '%s'", first.Wrong, first.Correct)
		}
		if overall >= 85 {
			report.Add("Excellent! Accurate use of information")
		}
		recommendations = report.Lines(12)
	}

	scores["overall"] = float64(overall)
	return &SpeakingResult{
		Transcription: transcription,
		Duration:      duration,
		Scores:        scores,
		DetailedAnalysis: map[string]interface{}{
			"information_accuracy":  ta.InformationAccuracy,
			"completeness_analysis": ta.CompletenessOfContent,
			"grammar_analysis":      ta.Grammar,
			"vocabulary_analysis":   ta.Vocabulary,
			"cohesion_analysis":     ta.Cohesion,
			"pronunciation_details": pron,
		},
		Recommendations: recommendations,
		OverallScore:    overall,
	}
}

func opinionScores(wordCount int) map[string]float64 {
	return map[string]float64{
		"word_count":      float64(wordCount),
		"relevance":       0,
		"opinion_clarity": 0,
		"reasoning":       0,
		"pronunciation":   0,
		"intonation":      0,
		"grammar":         0,
		"vocabulary":      0,
		"fluency":         0,
		"coherence":       0,
		"overall":         0,
	}
}

func (s *SpeakingService) assessExpressOpinion(ctx context.Context, req SpeakingRequest) *SpeakingResult {
	transcription, duration := s.transcribe(ctx, req.AudioPath)
	wordCount := scoring.WordCount(transcription)

	if wordCount < minWordsOpinion {
		report := scoring.NewReport().
			Add("FAIL: Too short (%d words < %d minimum)", wordCount, minWordsOpinion).
			Add("Need 60+ words for complete answer").
			Add("Must: State opinion, give reasons, provide examples").
			Add("Example: 'I prefer X because Y. For instance, when I...'")
		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           opinionScores(wordCount),
			DetailedAnalysis: map[string]interface{}{},
			Recommendations:  report.Lines(0),
			OverallScore:     0,
		}
	}

	ta := s.analyzer.AnalyzeOpinion(ctx, transcription, duration, req.QuestionContext)
	relevance := analysis.ScoreOr(ta.RelevanceToQuestion.Score, 0)

	if relevance < 30 {
		scores := opinionScores(wordCount)
		scores["relevance"] = float64(relevance)

		report := scoring.NewReport().
			Add("FAIL: Completely off-topic (%d/100)", relevance).
			Add("You did NOT address the question")
		if issues := ta.RelevanceToQuestion.Issues; issues != "" && !strings.EqualFold(issues, "none") {
			report.Add("Issue: %s", issues)
		}
		if ta.RelevanceToQuestion.Suggestion != "" {
			report.Add("%s", ta.RelevanceToQuestion.Suggestion)
		} else {
			report.Add("Read the question carefully")
		}
		report.Add("Score: 0")

		return &SpeakingResult{
			Transcription:    transcription,
			Duration:         duration,
			Scores:           scores,
			DetailedAnalysis: map[string]interface{}{"relevance_analysis": ta.RelevanceToQuestion},
			Recommendations:  report.Lines(0),
			OverallScore:     0,
		}
	}

	opinionClarity := analysis.ScoreOr(ta.OpinionClarity.Score, 0)
	reasoning := analysis.ScoreOr(ta.ReasoningQuality.Score, 0)

	pron := s.pronunciation(ctx, req.AudioPath, transcription)
	intonation := s.meter.IntonationScore(req.AudioPath)
	grammar := analysis.ScoreOr(ta.Grammar.Score, 75)
	vocabulary := analysis.ScoreOr(ta.Vocabulary.Score, 75)
	fluency := analysis.ScoreOr(ta.Fluency.Score, 75)
	coherence := analysis.ScoreOr(ta.Coherence.Score, 75)

	scores := map[string]float64{
		"word_count":      float64(wordCount),
		"relevance":       float64(relevance),
		"opinion_clarity": float64(opinionClarity),
		"reasoning":       float64(reasoning),
		"pronunciation":   float64(pron.PronunciationScore),
		"intonation":      float64(intonation),
		"grammar":         float64(grammar),
		"vocabulary":      float64(vocabulary),
		"fluency":         float64(fluency),
		"coherence":       float64(coherence),
	}

	var overall int
	report := scoring.NewReport()

	switch {
	case opinionClarity < 40:
		overall = scoring.Blend(
			scoring.Weighted{Score: float64(relevance), Weight: 0.25},
			scoring.Weighted{Score: float64(opinionClarity), Weight: 0.25},
			scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.15},
			scoring.Weighted{Score: float64(grammar), Weight: 0.15},
			scoring.Weighted{Score: float64(intonation), Weight: 0.10},
			scoring.Weighted{Score: float64(vocabulary), Weight: 0.05},
			scoring.Weighted{Score: float64(fluency), Weight: 0.03},
			scoring.Weighted{Score: float64(coherence), Weight: 0.02},
		)
		suggestion := ta.OpinionClarity.Suggestion
		if suggestion == "" {
			suggestion = "State clearly: I agree/disagree or I prefer A/B"
		}
		report.Add("POOR: No clear opinion (%d/100)", opinionClarity).
			Add("%s", suggestion).
			Add("Pronunciation: %d/100", pron.PronunciationScore).
			Add("Grammar: %d/100", grammar)

	case reasoning < 50:
		overall = scoring.Blend(
			scoring.Weighted{Score: float64(relevance), Weight: 0.20},
			scoring.Weighted{Score: float64(opinionClarity), Weight: 0.15},
			scoring.Weighted{Score: float64(reasoning), Weight: 0.20},
			scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.15},
			scoring.Weighted{Score: float64(grammar), Weight: 0.15},
			scoring.Weighted{Score: float64(intonation), Weight: 0.08},
			scoring.Weighted{Score: float64(vocabulary), Weight: 0.04},
			scoring.Weighted{Score: float64(fluency), Weight: 0.02},
			scoring.Weighted{Score: float64(coherence), Weight: 0.01},
		)
		opinionStated := ta.OpinionClarity.OpinionStated
		if opinionStated == "" {
			opinionStated = "stated"
		}
		suggestion := ta.ReasoningQuality.Suggestion
		if suggestion == "" {
			suggestion = "Provide specific examples"
		}
		report.Add("FAIR: Weak reasoning (%d/100)", reasoning).
			Add("Opinion: %s", opinionStated).
			Add("%s", suggestion).
			Add("Pronunciation: %d/100", pron.PronunciationScore).
			Add("Grammar: %d/100", grammar)

	default:
		overall = scoring.Blend(
			scoring.Weighted{Score: float64(relevance), Weight: 0.15},
			scoring.Weighted{Score: float64(opinionClarity), Weight: 0.10},
			scoring.Weighted{Score: float64(reasoning), Weight: 0.15},
			scoring.Weighted{Score: float64(pron.PronunciationScore), Weight: 0.15},
			scoring.Weighted{Score: float64(intonation), Weight: 0.10},
			scoring.Weighted{Score: float64(grammar), Weight: 0.15},
			scoring.Weighted{Score: float64(vocabulary), Weight: 0.10},
			scoring.Weighted{Score: float64(fluency), Weight: 0.05},
			scoring.Weighted{Score: float64(coherence), Weight: 0.05},
		)
		if grammar < 80 {
			report.Add("Grammar: %d/100", grammar)
			for _, e := range ta.Grammar.Errors[:min(2, len(ta.Grammar.Errors))] {
				report.Add("  Wrong: '%s', Correct: '%s'", e.Wrong, e.Correct)
			}
			if ta.Grammar.CorrectedText != "" {
				report.Add("  Corrected: %q", ta.Grammar.CorrectedText)
			}
		}
		if vocabulary < 80 && len(ta.Vocabulary.WeakWords) > 0 {
			w := ta.Vocabulary.WeakWords[0]
			report.Add("Vocabulary: %d/100", vocabulary).
				Add("  Weak: '%s', Better: '%s'", w.Word, w.Better)
		}
		if overall >= 85 {
			report.Add("Excellent performance!")
		}
	}

	scores["overall"] = float64(overall)
	return &SpeakingResult{
		Transcription: transcription,
		Duration:      duration,
		Scores:        scores,
		DetailedAnalysis: map[string]interface{}{
			"relevance_analysis":    ta.RelevanceToQuestion,
			"opinion_analysis":      ta.OpinionClarity,
			"reasoning_analysis":    ta.ReasoningQuality,
			"pronunciation_details": pron,
			"grammar_analysis":      ta.Grammar,
			"vocabulary_analysis":   ta.Vocabulary,
			"fluency_analysis":      ta.Fluency,
			"coherence_analysis":    ta.Coherence,
		},
		Recommendations: report.Lines(12),
		OverallScore:    overall,
	}
}

// languageRecommendations is the shared grammar/vocabulary feedback block
// for full-tier results. Scores come in already defaulted.
func (s *SpeakingService) languageRecommendations(overall, grammarScore, vocabScore int, grammar analysis.GrammarAnalysis, vocab analysis.VocabularyAnalysis) []string {
	report := scoring.NewReport().Add("%s", scoring.Headline(overall)).Blank()

	if grammarScore < 85 {
		report.Add("GRAMMAR (%d/100):", grammarScore)
		if len(grammar.Errors) > 0 {
			report.Add("   Errors found:")
			for i, e := range grammar.Errors[:min(5, len(grammar.Errors))] {
				source := e.Source
				if source == "" {
					source = "AI"
				}
				report.Add("   %d. [%s] Wrong: %q", i+1, source, e.Wrong)
				report.Add("      Correct: %q", e.Correct)
				if e.Rule != "" {
					report.Add("      Rule: %s", e.Rule)
				}
				report.Blank()
			}
			if len(grammar.Errors) > 5 {
				report.Add("   ... and %d more errors", len(grammar.Errors)-5).Blank()
			}
		}
	}

	if vocabScore < 85 {
		report.Add("VOCABULARY (%d/100):", vocabScore)
		if len(vocab.WeakWords) > 0 {
			report.Add("   Improve these words:")
			for _, w := range vocab.WeakWords[:min(3, len(vocab.WeakWords))] {
				report.Add("   - %q, better: %q", w.Word, w.Better)
				if w.Example != "" {
					report.Add("     Example: %s", w.Example)
				}
			}
			report.Blank()
		}
	}

	report.Add("%s", scoring.Encouragement(overall))
	return report.Lines(15)
}

func capStrings(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
