package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toeicgenius/assessment_service/internal/analysis"
	"github.com/toeicgenius/assessment_service/internal/client"
	"github.com/toeicgenius/assessment_service/internal/errors"
	"github.com/toeicgenius/assessment_service/internal/logger"
)

func ptr(v int) *int { return &v }

type fakeRecognizer struct {
	transcript string
	report     client.PronunciationReport
	pronCalls  int
}

func (f *fakeRecognizer) Transcribe(_ context.Context, _ []byte) (string, error) {
	return f.transcript, nil
}

func (f *fakeRecognizer) AssessPronunciation(_ context.Context, _ []byte, _ string) (client.PronunciationReport, error) {
	f.pronCalls++
	return f.report, nil
}

type fakeMeter struct {
	duration   float64
	intonation int
}

func (f *fakeMeter) Duration(string) float64   { return f.duration }
func (f *fakeMeter) IntonationScore(string) int { return f.intonation }

type fakeSpeechAnalyzer struct {
	speech      analysis.SpeechAnalysis
	coaching    analysis.SpeechAnalysis
	questions   analysis.RespondQuestionsAnalysis
	info        analysis.RespondInfoAnalysis
	opinion     analysis.OpinionAnalysis
	description string
	describeErr error
	comparison  analysis.ImageComparison

	speechCalls   int
	describeCalls int
}

func (f *fakeSpeechAnalyzer) AnalyzeSpeech(_ context.Context, _ string, _ float64, _ string) analysis.SpeechAnalysis {
	f.speechCalls++
	return f.speech
}

func (f *fakeSpeechAnalyzer) AnalyzeReadAloudCoaching(_ context.Context, _ string, _ float64, _, _ []string, _ string) analysis.SpeechAnalysis {
	return f.coaching
}

func (f *fakeSpeechAnalyzer) AnalyzeRespondQuestions(_ context.Context, _ string, _ float64, _ string) analysis.RespondQuestionsAnalysis {
	return f.questions
}

func (f *fakeSpeechAnalyzer) AnalyzeRespondInfo(_ context.Context, _ string, _ float64, _ string) analysis.RespondInfoAnalysis {
	return f.info
}

func (f *fakeSpeechAnalyzer) AnalyzeOpinion(_ context.Context, _ string, _ float64, _ string) analysis.OpinionAnalysis {
	return f.opinion
}

func (f *fakeSpeechAnalyzer) DescribeImage(_ context.Context, _ []byte, _ string) (string, error) {
	f.describeCalls++
	return f.description, f.describeErr
}

func (f *fakeSpeechAnalyzer) CompareImage(_ context.Context, _, _, _ string) analysis.ImageComparison {
	return f.comparison
}

func tempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answer.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func TestAssess_ValidatesTaskInputs(t *testing.T) {
	t.Parallel()
	svc := NewSpeakingService(&fakeRecognizer{}, &fakeMeter{}, &fakeSpeechAnalyzer{}, logger.NewNop())

	cases := []struct {
		name string
		req  SpeakingRequest
	}{
		{"read aloud without reference", SpeakingRequest{TaskType: TaskReadAloud}},
		{"describe picture without inputs", SpeakingRequest{TaskType: TaskDescribePicture}},
		{"respond with info without context", SpeakingRequest{TaskType: TaskRespondWithInfo}},
		{"unknown task", SpeakingRequest{TaskType: "recite_poem"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Assess(context.Background(), tc.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok || appErr.Code != errors.ErrValidation {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestReadAloud_FailTierZeroesEverything(t *testing.T) {
	t.Parallel()
	speech := &fakeRecognizer{transcript: "completely unrelated chatter about lunch"}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 12}, &fakeSpeechAnalyzer{}, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath:     tempAudio(t),
		TaskType:      TaskReadAloud,
		ReferenceText: "the quarterly sales report shows strong growth in every region",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", res.OverallScore)
	}
	for _, key := range []string{"pronunciation", "accuracy", "fluency", "completeness", "intonation", "grammar", "overall"} {
		if res.Scores[key] != 0 {
			t.Errorf("Scores[%q] = %v, want 0", key, res.Scores[key])
		}
	}
	if speech.pronCalls != 0 {
		t.Errorf("pronunciation calls = %d, want 0 below the feedback threshold", speech.pronCalls)
	}
	if len(res.Recommendations) == 0 || !strings.HasPrefix(res.Recommendations[0], "FAIL:") {
		t.Errorf("Recommendations[0] = %q, want FAIL headline", res.Recommendations)
	}
}

func TestReadAloud_FullTierBlendsScores(t *testing.T) {
	t.Parallel()
	reference := "the quarterly sales report shows strong growth in every region"
	speech := &fakeRecognizer{
		transcript: reference,
		report: client.PronunciationReport{
			PronunciationScore: 80,
			AccuracyScore:      90,
			FluencyScore:       70,
			CompletenessScore:  90,
			MispronouncedWords: []client.PronouncedWord{},
			OmittedWords:       []string{},
		},
	}
	an := &fakeSpeechAnalyzer{}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 15, intonation: 80}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath:     tempAudio(t),
		TaskType:      TaskReadAloud,
		ReferenceText: reference,
	})
	if err != nil {
		t.Fatal(err)
	}

	// 100*0.25 + 80*0.30 + 90*0.20 + 70*0.15 + 80*0.10 = 85.5
	if res.OverallScore != 85 {
		t.Errorf("OverallScore = %d, want 85", res.OverallScore)
	}
	if res.Scores["text_match"] != 100 {
		t.Errorf("text_match = %v, want 100", res.Scores["text_match"])
	}
	if res.Scores["grammar"] != 85 {
		t.Errorf("grammar = %v, want default 85 when the model omits a score", res.Scores["grammar"])
	}
	if res.Scores["fluency"] != 70 {
		t.Errorf("fluency = %v, want raw 70 with completeness above 80", res.Scores["fluency"])
	}
}

func TestReadAloud_LowCompletenessDiscountsFluency(t *testing.T) {
	t.Parallel()
	reference := "the quarterly sales report shows strong growth in every region"
	speech := &fakeRecognizer{
		transcript: reference,
		report: client.PronunciationReport{
			PronunciationScore: 80,
			AccuracyScore:      90,
			FluencyScore:       80,
			CompletenessScore:  40,
		},
	}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 15, intonation: 80}, &fakeSpeechAnalyzer{}, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath:     tempAudio(t),
		TaskType:      TaskReadAloud,
		ReferenceText: reference,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Scores["fluency"] != 40 {
		t.Errorf("fluency = %v, want 40 (halved below 50%% completeness)", res.Scores["fluency"])
	}
}

func TestDescribePicture_ShortAnswerSkipsAnalysis(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{description: "a man reading"}
	svc := NewSpeakingService(&fakeRecognizer{transcript: "a man reading"}, &fakeMeter{duration: 8}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath: tempAudio(t),
		TaskType:  TaskDescribePicture,
		Image:     []byte("jpeg"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", res.OverallScore)
	}
	if got := res.Scores; got["relevance"] != 0 || got["overall"] != 0 || len(got) != 2 {
		t.Errorf("Scores = %v, want only zeroed relevance and overall", got)
	}
	if an.describeCalls != 0 {
		t.Errorf("describe calls = %d, want 0 for a short answer", an.describeCalls)
	}
}

func TestDescribePicture_FullTier(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		description: "a woman presenting charts to colleagues",
		comparison: analysis.ImageComparison{
			RelevanceScore:  ptr(80),
			MatchedElements: []string{"woman", "charts"},
			MissingElements: []string{"colleagues"},
		},
	}
	svc := NewSpeakingService(
		&fakeRecognizer{transcript: words(30)},
		&fakeMeter{duration: 25, intonation: 80},
		an, logger.NewNop(),
	)

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath: tempAudio(t),
		TaskType:  TaskDescribePicture,
		Image:     []byte("jpeg"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// 80*0.40 + 80*0.10 + 75*0.20 + 75*0.20 + 75*0.10 = 77.5
	if res.OverallScore != 77 {
		t.Errorf("OverallScore = %d, want 77", res.OverallScore)
	}
	if an.speechCalls != 1 {
		t.Errorf("speech analysis calls = %d, want 1", an.speechCalls)
	}
	if len(res.Recommendations) == 0 || !strings.HasPrefix(res.Recommendations[0], "Content: Add") {
		t.Errorf("Recommendations[0] = %v, want missing-content line first", res.Recommendations)
	}
	if len(res.Recommendations) > 8 {
		t.Errorf("recommendations = %d lines, want capped at 8", len(res.Recommendations))
	}
}

func TestDescribePicture_LowContentSkipsLanguageAnalysis(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		description: "a warehouse full of boxes",
		comparison:  analysis.ImageComparison{RelevanceScore: ptr(20)},
	}
	svc := NewSpeakingService(
		&fakeRecognizer{transcript: words(20)},
		&fakeMeter{duration: 15, intonation: 80},
		an, logger.NewNop(),
	)

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath: tempAudio(t),
		TaskType:  TaskDescribePicture,
		Image:     []byte("jpeg"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", res.OverallScore)
	}
	if an.speechCalls != 0 {
		t.Errorf("speech analysis calls = %d, want 0 below the content threshold", an.speechCalls)
	}
}

func TestRespondQuestions_ShortAnswerFails(t *testing.T) {
	t.Parallel()
	svc := NewSpeakingService(&fakeRecognizer{transcript: words(10)}, &fakeMeter{duration: 8}, &fakeSpeechAnalyzer{}, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{AudioPath: tempAudio(t), TaskType: TaskRespondQuestions})
	if err != nil {
		t.Fatal(err)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", res.OverallScore)
	}
	if res.Scores["word_count"] != 10 {
		t.Errorf("word_count = %v, want 10", res.Scores["word_count"])
	}
}

func TestRespondQuestions_LowRelevanceTakesBestOfPair(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		questions: analysis.RespondQuestionsAnalysis{
			RelevanceOfContent:    analysis.RelevanceAnalysis{Score: ptr(20)},
			CompletenessOfContent: analysis.CompletenessAnalysis{Score: ptr(25)},
		},
	}
	speech := &fakeRecognizer{transcript: words(40)}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 30}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{AudioPath: tempAudio(t), TaskType: TaskRespondQuestions})
	if err != nil {
		t.Fatal(err)
	}
	if res.OverallScore != 25 {
		t.Errorf("OverallScore = %d, want max(relevance, completeness) = 25", res.OverallScore)
	}
	if speech.pronCalls != 0 {
		t.Errorf("pronunciation calls = %d, want 0 in the fail tier", speech.pronCalls)
	}
}

func TestRespondQuestions_FullTier(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		questions: analysis.RespondQuestionsAnalysis{
			RelevanceOfContent:    analysis.RelevanceAnalysis{Score: ptr(90)},
			CompletenessOfContent: analysis.CompletenessAnalysis{Score: ptr(80)},
			Grammar:               analysis.GrammarAnalysis{Score: ptr(80)},
			Vocabulary:            analysis.VocabularyAnalysis{Score: ptr(70)},
			Cohesion:              analysis.CohesionAnalysis{Score: ptr(75)},
		},
	}
	speech := &fakeRecognizer{
		transcript: words(50),
		report:     client.PronunciationReport{PronunciationScore: 85},
	}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 40, intonation: 70}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{AudioPath: tempAudio(t), TaskType: TaskRespondQuestions})
	if err != nil {
		t.Fatal(err)
	}

	// 85*0.15 + 70*0.10 + 80*0.20 + 70*0.15 + 75*0.15 + 90*0.15 + 80*0.10 = 79.0
	if res.OverallScore != 79 {
		t.Errorf("OverallScore = %d, want 79", res.OverallScore)
	}
	if speech.pronCalls != 1 {
		t.Errorf("pronunciation calls = %d, want 1", speech.pronCalls)
	}
}

func TestRespondWithInfo_FactualErrorsZeroOverallButKeepSubScores(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		info: analysis.RespondInfoAnalysis{
			InformationAccuracy: analysis.InfoAccuracyAnalysis{
				Score:              ptr(55),
				FactualErrorsCount: 3,
				IncorrectFacts: []analysis.IncorrectFact{
					{StudentSaid: "the meeting is at 9am", ShouldBe: "the meeting is at 2pm"},
				},
			},
			CompletenessOfContent: analysis.CompletenessAnalysis{Score: ptr(70)},
			Grammar:               analysis.GrammarAnalysis{Score: ptr(80)},
		},
	}
	speech := &fakeRecognizer{
		transcript: words(40),
		report:     client.PronunciationReport{PronunciationScore: 82},
	}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 30, intonation: 70}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath:       tempAudio(t),
		TaskType:        TaskRespondWithInfo,
		QuestionContext: "Conference schedule: opening at 2pm in Hall B",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0 with 3 factual errors", res.OverallScore)
	}
	if res.Scores["pronunciation"] != 82 {
		t.Errorf("pronunciation = %v, want real sub-score kept", res.Scores["pronunciation"])
	}
	if res.Scores["factual_errors"] != 3 {
		t.Errorf("factual_errors = %v, want 3", res.Scores["factual_errors"])
	}
}

func TestRespondWithInfo_FullTier(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		info: analysis.RespondInfoAnalysis{
			InformationAccuracy:   analysis.InfoAccuracyAnalysis{Score: ptr(90)},
			CompletenessOfContent: analysis.CompletenessAnalysis{Score: ptr(80)},
			Grammar:               analysis.GrammarAnalysis{Score: ptr(80)},
			Vocabulary:            analysis.VocabularyAnalysis{Score: ptr(70)},
			Cohesion:              analysis.CohesionAnalysis{Score: ptr(80)},
		},
	}
	speech := &fakeRecognizer{
		transcript: words(45),
		report:     client.PronunciationReport{PronunciationScore: 80},
	}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 35, intonation: 70}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{
		AudioPath:       tempAudio(t),
		TaskType:        TaskRespondWithInfo,
		QuestionContext: "Workshop agenda",
	})
	if err != nil {
		t.Fatal(err)
	}

	// 90*0.40 + 80*0.15 + 80*0.15 + 70*0.10 + 80*0.10 + 70*0.05 + 80*0.05 = 82.5
	if res.OverallScore != 82 {
		t.Errorf("OverallScore = %d, want 82", res.OverallScore)
	}
}

func TestExpressOpinion_OffTopicScoresZero(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		opinion: analysis.OpinionAnalysis{
			RelevanceToQuestion: analysis.OpinionRelevance{Score: ptr(10), Issues: "talked about food instead"},
		},
	}
	speech := &fakeRecognizer{transcript: words(50)}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 40}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{AudioPath: tempAudio(t), TaskType: TaskExpressOpinion})
	if err != nil {
		t.Fatal(err)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", res.OverallScore)
	}
	if speech.pronCalls != 0 {
		t.Errorf("pronunciation calls = %d, want 0 for an off-topic answer", speech.pronCalls)
	}
}

func TestExpressOpinion_FullTier(t *testing.T) {
	t.Parallel()
	an := &fakeSpeechAnalyzer{
		opinion: analysis.OpinionAnalysis{
			RelevanceToQuestion: analysis.OpinionRelevance{Score: ptr(90)},
			OpinionClarity:      analysis.OpinionClarity{Score: ptr(85)},
			ReasoningQuality:    analysis.ReasoningQuality{Score: ptr(80)},
			Grammar:             analysis.GrammarAnalysis{Score: ptr(85)},
			Vocabulary:          analysis.VocabularyAnalysis{Score: ptr(80)},
			Fluency:             analysis.FluencyAnalysis{Score: ptr(80)},
			Coherence:           analysis.CoherenceAnalysis{Score: ptr(80)},
		},
	}
	speech := &fakeRecognizer{
		transcript: words(60),
		report:     client.PronunciationReport{PronunciationScore: 85},
	}
	svc := NewSpeakingService(speech, &fakeMeter{duration: 55, intonation: 85}, an, logger.NewNop())

	res, err := svc.Assess(context.Background(), SpeakingRequest{AudioPath: tempAudio(t), TaskType: TaskExpressOpinion})
	if err != nil {
		t.Fatal(err)
	}

	// 90*0.15 + 85*0.10 + 80*0.15 + 85*0.15 + 85*0.10 + 85*0.15 + 80*0.10 + 80*0.05 + 80*0.05 = 84.25
	if res.OverallScore != 84 {
		t.Errorf("OverallScore = %d, want 84", res.OverallScore)
	}
	if res.Scores["opinion_clarity"] != 85 {
		t.Errorf("opinion_clarity = %v, want 85", res.Scores["opinion_clarity"])
	}
}
