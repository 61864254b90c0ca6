package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/toeicgenius/assessment_service/internal/analysis"
	"github.com/toeicgenius/assessment_service/internal/errors"
	"github.com/toeicgenius/assessment_service/internal/scoring"
)

// Writing part types, matching the TOEIC writing test parts.
const (
	PartWriteSentence  = "write_sentence"
	PartRespondRequest = "respond_request"
	PartOpinionEssay   = "opinion_essay"
)

const (
	minWordsSentence = 5
	minWordsEmail    = 10
	minWordsEssay    = 150
)

// WritingAnalyzer is the AI analysis boundary for writing tasks.
type WritingAnalyzer interface {
	DescribePicture(ctx context.Context, image []byte, mimeType string) (string, error)
	AnalyzeSentence(ctx context.Context, text, pictureDescription string) (analysis.SentenceAnalysis, error)
	AnalyzeEmail(ctx context.Context, text, requestPrompt string) (analysis.EmailAnalysis, error)
	AnalyzeEssay(ctx context.Context, text, prompt string) (analysis.EssayAnalysis, error)
}

// WritingRequest carries one writing assessment. Image is only set for
// the sentence part.
type WritingRequest struct {
	Text           string
	PartType       string
	QuestionNumber int
	Prompt         string
	Image          []byte
	ImageMime      string
}

// WritingScores is the fixed score breakdown. Fields irrelevant to a
// part stay zero.
type WritingScores struct {
	WordCount       int `json:"word_count"`
	Grammar         int `json:"grammar"`
	Vocabulary      int `json:"vocabulary"`
	Organization    int `json:"organization"`
	Relevance       int `json:"relevance"`
	SentenceVariety int `json:"sentence_variety"`
	OpinionSupport  int `json:"opinion_support"`
	Overall         int `json:"overall"`
}

// VocabularyIssue is one weak word with its suggested replacement.
type VocabularyIssue struct {
	Word    string `json:"word"`
	Better  string `json:"better"`
	Example string `json:"example"`
}

// WritingDetails collects per-part analysis artifacts. Slices are always
// non-nil so the serialized payload keeps its shape.
type WritingDetails struct {
	GrammarErrors        []scoring.Finding `json:"grammar_errors"`
	VocabularyIssues     []VocabularyIssue `json:"vocabulary_issues"`
	MissingPoints        []string          `json:"missing_points"`
	MatchedPoints        []string          `json:"matched_points"`
	CorrectedText        string            `json:"corrected_text,omitempty"`
	ImageDescription     string            `json:"image_description,omitempty"`
	OpinionSupportIssues []string          `json:"opinion_support_issues"`
}

func newWritingDetails() WritingDetails {
	return WritingDetails{
		GrammarErrors:        []scoring.Finding{},
		VocabularyIssues:     []VocabularyIssue{},
		MissingPoints:        []string{},
		MatchedPoints:        []string{},
		OpinionSupportIssues: []string{},
	}
}

// WritingResult is the assessment payload returned to the caller.
type WritingResult struct {
	Text             string         `json:"text"`
	PartType         string         `json:"part_type"`
	QuestionNumber   int            `json:"question_number"`
	Scores           WritingScores  `json:"scores"`
	DetailedAnalysis WritingDetails `json:"detailed_analysis"`
	Recommendations  []string       `json:"recommendations"`
	OverallScore     int            `json:"overall_score"`
	Timestamp        string         `json:"timestamp"`
}

type WritingService struct {
	analyzer WritingAnalyzer
	log      zerolog.Logger
	now      func() time.Time
}

func NewWritingService(analyzer WritingAnalyzer, log zerolog.Logger) *WritingService {
	return &WritingService{
		analyzer: analyzer,
		log:      log,
		now:      time.Now,
	}
}

// Assess routes the request to its part flow.
func (s *WritingService) Assess(ctx context.Context, req WritingRequest) (*WritingResult, error) {
	switch req.PartType {
	case PartWriteSentence:
		if len(req.Image) == 0 {
			return nil, errors.Validation("image is required for write_sentence")
		}
		return s.assessWriteSentence(ctx, req)
	case PartRespondRequest:
		if strings.TrimSpace(req.Prompt) == "" {
			return nil, errors.Validation("prompt required for email response")
		}
		return s.assessRespondRequest(ctx, req), nil
	case PartOpinionEssay:
		if strings.TrimSpace(req.Prompt) == "" {
			return nil, errors.Validation("prompt required for opinion essay")
		}
		return s.assessOpinionEssay(ctx, req), nil
	default:
		return nil, errors.Validationf("invalid part_type: %s", req.PartType)
	}
}

func (s *WritingService) result(req WritingRequest, scores WritingScores, details WritingDetails, recommendations []string, overall int) *WritingResult {
	return &WritingResult{
		Text:             req.Text,
		PartType:         req.PartType,
		QuestionNumber:   req.QuestionNumber,
		Scores:           scores,
		DetailedAnalysis: details,
		Recommendations:  recommendations,
		OverallScore:     overall,
		Timestamp:        s.now().UTC().Format(time.RFC3339),
	}
}

func (s *WritingService) assessWriteSentence(ctx context.Context, req WritingRequest) (*WritingResult, error) {
	wordCount := scoring.WordCount(req.Text)

	if wordCount < minWordsSentence {
		report := scoring.NewReport().
			Add("FAIL: Too short (%d words < %d minimum)", wordCount, minWordsSentence).
			Blank().
			Add("What you need:").
			Add("- Write at least one complete sentence").
			Add("- Describe what you see in the picture").
			Add("- Use correct grammar and vocabulary")
		return s.result(req, WritingScores{WordCount: wordCount}, newWritingDetails(), report.Lines(0), 0), nil
	}

	// The sentence part has no graceful degradation: without the picture
	// description and analysis there is nothing defensible to score.
	pictureDescription, err := s.analyzer.DescribePicture(ctx, req.Image, req.ImageMime)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAIService, "image analysis failed", err)
	}
	sa, err := s.analyzer.AnalyzeSentence(ctx, req.Text, pictureDescription)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAIService, "sentence analysis failed", err)
	}

	relevance := analysis.ScoreOr(sa.Relevance.Score, 0)
	grammar := analysis.ScoreOr(sa.Grammar.OverallScore, 0)
	vocabulary := analysis.ScoreOr(sa.Vocabulary.OverallScore, 0)

	if relevance < 30 {
		details := newWritingDetails()
		details.ImageDescription = pictureDescription
		details.MissingPoints = nonNil(sa.Relevance.MissingElements)
		details.MatchedPoints = nonNil(sa.Relevance.MatchedElements)

		report := scoring.NewReport().
			Add("FAIL: Sentence doesn't describe the picture").
			Blank().
			Add("What the picture shows:").
			Add("  %s", truncate(pictureDescription, 200)).
			Blank().
			Add("What you wrote about:").
			Add("  Elements NOT in picture: %s", strings.Join(capStrings(sa.Relevance.IncorrectElements, 3), ", ")).
			Blank().
			Add("How to fix:").
			Add("1. Look at the picture carefully").
			Add("2. Describe what you actually see").
			Add("3. Use present continuous for actions (is/are + verb-ing)")

		return s.result(req, WritingScores{WordCount: wordCount, Relevance: relevance}, details, report.Lines(0), 0), nil
	}

	overall := scoring.Blend(
		scoring.Weighted{Score: float64(relevance), Weight: 0.40},
		scoring.Weighted{Score: float64(grammar), Weight: 0.35},
		scoring.Weighted{Score: float64(vocabulary), Weight: 0.25},
	)

	grammarErrors := flattenGrammarBreakdown(sa.Grammar.Breakdown)
	vocabIssues := parseVocabularyBreakdown(sa.Vocabulary.Breakdown)

	report := scoring.NewReport()
	switch {
	case overall >= 90:
		report.Add("Excellent work!")
	case overall >= 75:
		report.Add("Good job! (Overall: %d/100)", overall)
	default:
		report.Add("Score: %d/100", overall)
	}
	report.Blank()

	if grammar < 85 && len(grammarErrors) > 0 {
		report.Add("Grammar: %d/100", grammar)
		for i, e := range grammarErrors[:min(3, len(grammarErrors))] {
			report.Add("  %d. '%s' should be '%s'", i+1, e.Wrong, e.Correct)
			if e.Rule != "" {
				report.Add("     Rule: %s", e.Rule)
			}
		}
		report.Blank()
	}

	if vocabulary < 85 && len(vocabIssues) > 0 {
		report.Add("Vocabulary: %d/100", vocabulary)
		for i, issue := range vocabIssues[:min(2, len(vocabIssues))] {
			report.Add("  %d. '%s' could be '%s'", i+1, issue.Word, issue.Better)
			if issue.Example != "" {
				report.Add("     Context: %s", issue.Example)
			}
		}
		report.Blank()
	}

	if relevance < 90 {
		report.Add("Relevance: %d/100", relevance)
		if missing := sa.Relevance.MissingElements; len(missing) > 0 {
			report.Add("  Consider adding: %s", strings.Join(capStrings(missing, 2), ", "))
		}
		report.Blank()
	}

	if grammar >= 85 && vocabulary >= 85 {
		report.Add("Great sentence structure and word choice!")
	}

	details := newWritingDetails()
	details.GrammarErrors = grammarErrors
	details.VocabularyIssues = vocabIssues
	details.CorrectedText = sa.Grammar.CorrectedText
	details.ImageDescription = pictureDescription
	details.MatchedPoints = nonNil(sa.Relevance.MatchedElements)
	details.MissingPoints = nonNil(sa.Relevance.MissingElements)

	scores := WritingScores{
		WordCount:  wordCount,
		Grammar:    grammar,
		Vocabulary: vocabulary,
		Relevance:  relevance,
		Overall:    overall,
	}
	return s.result(req, scores, details, report.Lines(15), overall), nil
}

func (s *WritingService) assessRespondRequest(ctx context.Context, req WritingRequest) *WritingResult {
	wordCount := scoring.WordCount(req.Text)

	if wordCount < minWordsEmail {
		report := scoring.NewReport().
			Add("FAIL: Too short (%d words < %d minimum)", wordCount, minWordsEmail).
			Blank().
			Add("What you need:").
			Add("- Answer ALL questions in the request").
			Add("- Write complete sentences").
			Add("- Recommended length: 25-50 words for best efficiency")
		return s.result(req, WritingScores{WordCount: wordCount}, newWritingDetails(), report.Lines(0), 0)
	}

	ea, err := s.analyzer.AnalyzeEmail(ctx, req.Text, req.Prompt)
	if err != nil {
		s.log.Error().Err(err).Msg("email analysis failed")
		return s.result(req, WritingScores{WordCount: wordCount, Overall: 70}, newWritingDetails(),
			[]string{"AI temporarily unavailable"}, 70)
	}

	relevance := analysis.ScoreOr(ea.Relevance.Score, 50)
	variety := analysis.ScoreOr(ea.SentenceVariety.Score, 50)
	vocabulary := analysis.ScoreOr(ea.Vocabulary.Score, 50)
	organization := analysis.ScoreOr(ea.Organization.Score, 50)
	grammar := analysis.ScoreOr(ea.Grammar.Score, 50)

	if relevance < 30 {
		details := newWritingDetails()
		details.MissingPoints = nonNil(ea.Relevance.MissingPoints)

		report := scoring.NewReport().
			Add("FAIL: Response doesn't address the request").
			Blank().
			Add("Missing points:")
		for _, point := range capStrings(ea.Relevance.MissingPoints, 4) {
			report.Add("  - %s", point)
		}
		report.Blank().
			Add("How to fix:").
			Add("1. Read the request carefully").
			Add("2. Answer EVERY question asked").
			Add("3. Organize your response clearly")

		return s.result(req, WritingScores{WordCount: wordCount, Relevance: relevance}, details, report.Lines(0), 0)
	}

	overall := scoring.Blend(
		scoring.Weighted{Score: float64(relevance), Weight: 0.35},
		scoring.Weighted{Score: float64(variety), Weight: 0.25},
		scoring.Weighted{Score: float64(vocabulary), Weight: 0.20},
		scoring.Weighted{Score: float64(grammar), Weight: 0.10},
		scoring.Weighted{Score: float64(organization), Weight: 0.10},
	)

	grammarErrors := parseGrammarErrors(ea.Grammar.Errors)
	vocabIssues := parseVocabIssues(ea.Vocabulary.WeakWords)

	report := scoring.NewReport()
	switch {
	case overall >= 90:
		report.Add("Excellent response! All points addressed clearly")
	case overall >= 75:
		report.Add("Good response! (Overall: %d/100)", overall)
	default:
		report.Add("Score: %d/100", overall)
	}
	report.Blank()

	if relevance < 90 {
		report.Add("Relevance: %d/100", relevance)
		if missing := ea.Relevance.MissingPoints; len(missing) > 0 {
			report.Add("  Missing points:")
			for _, point := range capStrings(missing, 2) {
				report.Add("    - %s", point)
			}
		}
		report.Blank()
	}

	if variety < 80 {
		report.Add("Sentence variety: %d/100", variety)
		if ea.SentenceVariety.Complex == 0 {
			report.Add("  Try adding:").
				Add("    - Complex sentences with 'because', 'although', 'while'").
				Add("    - Example: 'I prefer X because it offers Y'")
		}
		report.Blank()
	}

	if grammar < 85 && len(grammarErrors) > 0 {
		report.Add("Grammar: %d/100", grammar)
		for i, e := range grammarErrors[:min(3, len(grammarErrors))] {
			report.Add("  %d. '%s' should be '%s'", i+1, e.Wrong, e.Correct)
			if e.Rule != "" {
				report.Add("     Rule: %s", e.Rule)
			}
		}
		report.Blank()
	}

	if vocabulary < 85 && len(vocabIssues) > 0 {
		report.Add("Vocabulary: %d/100", vocabulary)
		for i, issue := range vocabIssues[:min(2, len(vocabIssues))] {
			report.Add("  %d. '%s' could be '%s'", i+1, issue.Word, issue.Better)
			if issue.Example != "" {
				report.Add("     Example: %s", issue.Example)
			}
		}
		report.Blank()
	}

	if overused := ea.Vocabulary.Overused; len(overused) > 0 {
		report.Add("Overused words:")
		for _, item := range overused[:min(2, len(overused))] {
			if item.Count >= 3 {
				report.Add("  - '%s' appears %dx - try: %s", item.Word, item.Count, strings.Join(capStrings(item.Alternatives, 3), ", "))
			}
		}
		report.Blank()
	}

	if wordCount < 25 {
		report.Add("Length note: %d words - could add more detail (recommended: 25-50)", wordCount)
	} else if wordCount > 50 {
		report.Add("Length note: %d words - content complete! (For time efficiency, 25-50 words recommended)", wordCount)
	}

	details := newWritingDetails()
	details.GrammarErrors = grammarErrors
	details.VocabularyIssues = vocabIssues
	details.MatchedPoints = nonNil(ea.Relevance.AnsweredPoints)
	details.MissingPoints = nonNil(ea.Relevance.MissingPoints)
	details.CorrectedText = ea.Grammar.CorrectedText

	scores := WritingScores{
		WordCount:       wordCount,
		Relevance:       relevance,
		SentenceVariety: variety,
		Vocabulary:      vocabulary,
		Organization:    organization,
		Grammar:         grammar,
		Overall:         overall,
	}
	return s.result(req, scores, details, report.Lines(18), overall)
}

func (s *WritingService) assessOpinionEssay(ctx context.Context, req WritingRequest) *WritingResult {
	wordCount := scoring.WordCount(req.Text)

	if wordCount < minWordsEssay {
		details := newWritingDetails()
		details.MissingPoints = []string{
			fmt.Sprintf("Word count: %d < 150 minimum", wordCount),
		}
		report := scoring.NewReport().
			Add("FAIL: Too short (%d words < %d minimum)", wordCount, minWordsEssay).
			Blank().
			Add("Essay structure needed:").
			Add("  1. Introduction (state your opinion)").
			Add("  2. Body paragraph 1 (reason + specific example)").
			Add("  3. Body paragraph 2 (reason + specific example)").
			Add("  4. Conclusion (restate opinion)").
			Blank().
			Add("Recommended length: 300+ words for good score")
		return s.result(req, WritingScores{WordCount: wordCount}, details, report.Lines(0), 0)
	}

	ea, err := s.analyzer.AnalyzeEssay(ctx, req.Text, req.Prompt)
	if err != nil {
		s.log.Error().Err(err).Msg("essay analysis failed")
		return s.result(req, WritingScores{WordCount: wordCount, Overall: 70}, newWritingDetails(),
			[]string{"AI temporarily unavailable"}, 70)
	}

	relevance := analysis.ScoreOr(ea.RelevanceToPrompt.Score, 50)
	opinionSupport := analysis.ScoreOr(ea.OpinionSupport.Score, 50)
	grammar := analysis.ScoreOr(ea.Grammar.Score, 50)
	vocabulary := analysis.ScoreOr(ea.Vocabulary.Score, 50)
	organization := analysis.ScoreOr(ea.Organization.Score, 50)

	if relevance < 30 {
		return s.offTopicEssay(req, wordCount, relevance, ea.RelevanceToPrompt)
	}

	if opinionSupport < 30 {
		missingIssues := nonNil(ea.OpinionSupport.MissingIssues)
		details := newWritingDetails()
		details.OpinionSupportIssues = missingIssues

		report := scoring.NewReport().
			Add("FAIL: Opinion not properly supported").
			Add("(Essay is on-topic but lacks opinion structure)").
			Blank().
			Add("What's missing:")
		for _, issue := range capStrings(missingIssues, 4) {
			report.Add("  - %s", issue)
		}
		report.Blank().
			Add("Required essay structure:").
			Add("  1. Introduction: State clear opinion").
			Add("     Example: 'I strongly believe working from home is better because...'").
			Blank().
			Add("  2. Body paragraphs: 2-3 reasons with specific examples").
			Add("     Each example needs: WHO, WHEN, HOW, RESULTS").
			Add("     Example: 'Last year, my friend John worked from home...'").
			Blank().
			Add("  3. Conclusion: Restate your opinion").
			Blank().
			Add("Score: 0 - Cannot evaluate other skills without proper opinion support")

		scores := WritingScores{WordCount: wordCount, Relevance: relevance, OpinionSupport: opinionSupport}
		return s.result(req, scores, details, report.Lines(0), 0)
	}

	if opinionSupport < 60 {
		overall := scoring.Blend(
			scoring.Weighted{Score: float64(relevance), Weight: 0.25},
			scoring.Weighted{Score: float64(opinionSupport), Weight: 0.45},
			scoring.Weighted{Score: float64(grammar), Weight: 0.15},
			scoring.Weighted{Score: float64(organization), Weight: 0.15},
		)

		grammarErrors := parseGrammarErrors(ea.Grammar.Errors)
		missingIssues := nonNil(ea.OpinionSupport.MissingIssues)

		report := scoring.NewReport().
			Add("FAIR: Weak opinion support (Overall: %d/100)", overall).
			Add("Essay is on-topic (Relevance: %d/100)", relevance).
			Add("Opinion support weak: %d/100", opinionSupport).
			Blank()
		if len(missingIssues) > 0 {
			report.Add("What needs improvement:")
			for i, issue := range capStrings(missingIssues, 4) {
				report.Add("  %d. %s", i+1, issue)
			}
			report.Blank()
		}
		if wordCount < 250 {
			report.Add("Length: %d words - aim for 300+ for better development", wordCount).Blank()
		}
		if grammar < 70 && len(grammarErrors) > 0 {
			report.Add("Grammar: %d/100", grammar)
			for i, e := range grammarErrors[:min(2, len(grammarErrors))] {
				report.Add("  %d. '%s' should be '%s'", i+1, e.Wrong, e.Correct)
				if e.Rule != "" {
					report.Add("     Rule: %s", e.Rule)
				}
			}
		}

		details := newWritingDetails()
		details.GrammarErrors = grammarErrors
		details.OpinionSupportIssues = missingIssues

		scores := WritingScores{
			WordCount:      wordCount,
			Relevance:      relevance,
			OpinionSupport: opinionSupport,
			Grammar:        grammar,
			Organization:   organization,
			Overall:        overall,
		}
		return s.result(req, scores, details, report.Lines(15), overall)
	}

	overall := scoring.Blend(
		scoring.Weighted{Score: float64(relevance), Weight: 0.10},
		scoring.Weighted{Score: float64(opinionSupport), Weight: 0.40},
		scoring.Weighted{Score: float64(grammar), Weight: 0.25},
		scoring.Weighted{Score: float64(vocabulary), Weight: 0.15},
		scoring.Weighted{Score: float64(organization), Weight: 0.10},
	)

	grammarErrors := parseGrammarErrors(ea.Grammar.Errors)
	vocabIssues := parseVocabIssues(ea.Vocabulary.WeakWords)
	missingIssues := nonNil(ea.OpinionSupport.MissingIssues)

	report := scoring.NewReport()
	switch {
	case opinionSupport >= 90 && grammar >= 85 && vocabulary >= 80:
		report.Add("Excellent essay! Strong opinion with detailed support")
	case opinionSupport >= 80:
		report.Add("Strong essay! (Overall: %d/100)", overall)
	default:
		report.Add("Good essay - can improve (Overall: %d/100)", overall)
	}
	report.Blank()

	if opinionSupport < 85 && len(missingIssues) > 0 {
		report.Add("Opinion support: %d/100", opinionSupport)
		for i, issue := range capStrings(missingIssues, 3) {
			report.Add("  %d. %s", i+1, issue)
		}
		report.Blank()
	}

	if grammar < 90 && len(grammarErrors) > 0 {
		report.Add("Grammar: %d/100", grammar)
		for i, e := range grammarErrors[:min(3, len(grammarErrors))] {
			report.Add("  %d. '%s' should be '%s'", i+1, e.Wrong, e.Correct)
			if e.Rule != "" {
				report.Add("     Rule: %s", e.Rule)
			}
		}
		report.Blank()
	}

	if vocabulary < 90 && len(vocabIssues) > 0 {
		report.Add("Vocabulary: %d/100", vocabulary)
		for i, issue := range vocabIssues[:min(2, len(vocabIssues))] {
			report.Add("  %d. '%s' could be '%s'", i+1, issue.Word, issue.Better)
			if issue.Example != "" {
				report.Add("     Example: %s", issue.Example)
			}
		}
		report.Blank()
	}

	if overused := ea.Vocabulary.Overused; len(overused) > 0 {
		report.Add("Overused words:")
		for _, item := range overused[:min(2, len(overused))] {
			if item.Count >= 4 {
				report.Add("  - '%s' appears %dx - vary with: %s", item.Word, item.Count, strings.Join(capStrings(item.Alternatives, 3), ", "))
			}
		}
		report.Blank()
	}

	if organization < 90 {
		report.Add("Organization: %d/100", organization)
		if trans := ea.Organization.MissingTransitions; len(trans) > 0 {
			report.Add("  Add transition words: %s", strings.Join(capStrings(trans, 3), ", "))
		}
		report.Blank()
	}

	if wordCount < 250 {
		report.Add("Length: %d words - aim for 300+ for comprehensive development", wordCount)
	} else if wordCount >= 350 {
		report.Add("Length: %d words - excellent detail and development!", wordCount)
	}

	details := newWritingDetails()
	details.GrammarErrors = grammarErrors
	details.VocabularyIssues = vocabIssues
	details.OpinionSupportIssues = missingIssues
	details.CorrectedText = ea.Grammar.CorrectedText

	scores := WritingScores{
		WordCount:      wordCount,
		Relevance:      relevance,
		OpinionSupport: opinionSupport,
		Grammar:        grammar,
		Vocabulary:     vocabulary,
		Organization:   organization,
		Overall:        overall,
	}
	return s.result(req, scores, details, report.Lines(20), overall)
}

func (s *WritingService) offTopicEssay(req WritingRequest, wordCount, relevance int, rd analysis.EssayRelevance) *WritingResult {
	asksAbout := orDefault(rd.PromptAsksAbout, "unknown")
	isAbout := orDefault(rd.EssayIsAbout, "unknown")
	answers := strings.ToUpper(orDefault(rd.DoesEssayAnswerPrompt, "NO"))
	explanation := orDefault(rd.Explanation, "Essay discusses something different")

	details := newWritingDetails()
	details.MissingPoints = []string{
		"ESSAY IS OFF-TOPIC",
		"",
		"Prompt asks: " + asksAbout,
		"Your essay: " + isAbout,
		"",
		"Does essay answer prompt? " + answers,
		"",
		"Why off-topic:",
		explanation,
	}

	divider := strings.Repeat("=", 60)
	report := scoring.NewReport().
		Add("FAIL: ESSAY IS OFF-TOPIC (Score: 0/100)").
		Add("%s", divider).
		Blank().
		Add("Prompt asks about: %s", asksAbout).
		Add("Your essay is about: %s", isAbout).
		Blank().
		Add("Does essay answer the prompt? %s", answers).
		Blank().
		Add("%s", divider).
		Add("Why this is off-topic:").
		Add("  %s", explanation).
		Blank().
		Add("%s", divider).
		Add("How to fix:").
		Add("  1. Read the prompt question very carefully").
		Add("  2. Make sure your ENTIRE essay answers that specific question").
		Add("  3. Don't write about related but different topics").
		Add("  4. Stay focused on what the prompt asks throughout").
		Blank().
		Add("OFF-TOPIC = 0 POINTS, no matter how well written!").
		Blank().
		Add("Note: Cannot evaluate grammar, vocabulary, or organization").
		Add("until topic relevance is fixed.")

	scores := WritingScores{WordCount: wordCount, Relevance: relevance}
	return s.result(req, scores, details, report.Lines(0), 0)
}

// flattenGrammarBreakdown collects errors from every graded category into
// a single list. Entries missing either span are dropped.
func flattenGrammarBreakdown(b analysis.GrammarBreakdown) []scoring.Finding {
	categories := []analysis.GrammarCategory{
		b.VerbTenses,
		b.Articles,
		b.SubjectVerbAgreement,
		b.Prepositions,
		b.OtherGrammar,
	}
	out := []scoring.Finding{}
	for _, cat := range categories {
		for _, e := range cat.Errors {
			if e.Wrong == "" || e.Correct == "" {
				continue
			}
			if e.Severity == "" {
				e.Severity = "medium"
			}
			out = append(out, e)
		}
	}
	return out
}

func parseGrammarErrors(errs []scoring.Finding) []scoring.Finding {
	out := []scoring.Finding{}
	for _, e := range errs {
		if e.Wrong == "" || e.Correct == "" {
			continue
		}
		if e.Severity == "" {
			e.Severity = "medium"
		}
		out = append(out, e)
	}
	return out
}

// parseVocabularyBreakdown extracts weak-word suggestions from the
// word-choice analysis of the sentence reply.
func parseVocabularyBreakdown(b analysis.VocabularyBreakdown) []VocabularyIssue {
	out := []VocabularyIssue{}
	for _, entry := range b.WordChoice.Analysis {
		if len(entry.BetterOptions) == 0 {
			continue
		}
		out = append(out, VocabularyIssue{
			Word:    entry.Word,
			Better:  strings.Join(capStrings(entry.BetterOptions, 2), ", "),
			Example: entry.Context,
		})
	}
	return out
}

func parseVocabIssues(weak []analysis.WeakWord) []VocabularyIssue {
	out := []VocabularyIssue{}
	for _, w := range weak {
		if w.Word == "" || w.Better == "" {
			continue
		}
		out = append(out, VocabularyIssue{Word: w.Word, Better: w.Better, Example: w.Example})
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
