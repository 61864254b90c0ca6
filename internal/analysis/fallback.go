package analysis

import "github.com/toeicgenius/assessment_service/internal/scoring"

// Fallback analyses stand in when the AI provider is unreachable or its
// reply cannot be parsed. Scores are deliberately mid-range so a model
// outage degrades feedback quality without failing the assessment.

func scorePtr(v int) *int { return &v }

const (
	fallbackWPMFloor   = 120
	fallbackWPMCeiling = 150
)

// FallbackSpeech estimates fluency from pace alone.
func FallbackSpeech(text string, duration float64) SpeechAnalysis {
	wpm := 0.0
	if duration > 0 {
		wpm = float64(scoring.WordCount(text)) / duration * 60
	}
	fluencyScore := 70
	pace := "needs adjustment"
	if wpm >= fallbackWPMFloor && wpm <= fallbackWPMCeiling {
		fluencyScore = 80
		pace = "appropriate"
	}
	return SpeechAnalysis{
		Grammar: GrammarAnalysis{
			Score:         scorePtr(75),
			Errors:        []scoring.Finding{},
			Strengths:     []string{},
			Complexity:    "intermediate",
			CorrectedText: text,
		},
		Vocabulary: VocabularyAnalysis{
			Score:     scorePtr(75),
			Level:     "intermediate",
			GoodWords: []string{},
			WeakWords: []WeakWord{},
			Overused:  []OverusedWord{},
		},
		Fluency: FluencyAnalysis{
			Score:             scorePtr(fluencyScore),
			Pace:              pace,
			Coherence:         "fair",
			HesitationMarkers: []HesitationMarker{},
		},
		PronunciationCoaching: []PronunciationCoaching{},
	}
}

func FallbackRespondQuestions() RespondQuestionsAnalysis {
	return RespondQuestionsAnalysis{
		RelevanceOfContent: RelevanceAnalysis{
			Score:      scorePtr(70),
			Assessment: "AI unavailable",
			Issues:     "N/A",
		},
		CompletenessOfContent: CompletenessAnalysis{
			Score:             scorePtr(70),
			QuestionsAnswered: 3,
			MissingDetails:    "Unknown",
			Coverage:          "estimated",
		},
		Grammar:    GrammarAnalysis{Score: scorePtr(75), Errors: []scoring.Finding{}},
		Vocabulary: VocabularyAnalysis{Score: scorePtr(75), GoodWords: []string{}, WeakWords: []WeakWord{}},
		Cohesion:   CohesionAnalysis{Score: scorePtr(70), LogicalFlow: "unknown"},
		Fluency:    FluencyAnalysis{Score: scorePtr(75), Pace: "appropriate"},
	}
}

func FallbackRespondInfo() RespondInfoAnalysis {
	return RespondInfoAnalysis{
		InformationAccuracy: InfoAccuracyAnalysis{
			Score:        scorePtr(70),
			CorrectFacts: []string{},
			MissingFacts: []string{},
			Assessment:   "AI unavailable",
		},
		CompletenessOfContent: CompletenessAnalysis{
			Score:             scorePtr(70),
			QuestionsAnswered: 3,
			MissingDetails:    "unknown",
		},
		Grammar:    GrammarAnalysis{Score: scorePtr(75), Errors: []scoring.Finding{}},
		Vocabulary: VocabularyAnalysis{Score: scorePtr(75), GoodWords: []string{}, WeakWords: []WeakWord{}},
		Cohesion:   CohesionAnalysis{Score: scorePtr(70)},
	}
}

func FallbackOpinion() OpinionAnalysis {
	return OpinionAnalysis{
		RelevanceToQuestion: OpinionRelevance{
			Score:      scorePtr(70),
			Assessment: "AI unavailable",
			Issues:     "N/A",
		},
		OpinionClarity: OpinionClarity{
			Score:         scorePtr(70),
			OpinionStated: "unknown",
			Clarity:       "unknown",
		},
		ReasoningQuality: ReasoningQuality{Score: scorePtr(65), ReasonsProvided: []string{}},
		Grammar:          GrammarAnalysis{Score: scorePtr(75), Errors: []scoring.Finding{}},
		Vocabulary:       VocabularyAnalysis{Score: scorePtr(75), GoodWords: []string{}, WeakWords: []WeakWord{}, Overused: []OverusedWord{}},
		Fluency:          FluencyAnalysis{Score: scorePtr(75), Hesitations: []HesitationMarker{}},
		Coherence:        CoherenceAnalysis{Score: scorePtr(70), TransitionsUsed: []string{}, MissingTransitions: []string{}},
	}
}

func FallbackComparison() ImageComparison {
	return ImageComparison{
		RelevanceScore:    scorePtr(70),
		MatchedElements:   []string{},
		MissingElements:   []string{},
		IncorrectElements: []string{},
	}
}
