package analysis

import "github.com/toeicgenius/assessment_service/internal/scoring"

// AI replies arrive as loosely structured JSON. Score fields are pointers so
// a missing key is distinguishable from an explicit zero; read them through
// ScoreOr with the caller's default.

// ScoreOr returns *p, or def when the field was absent from the reply.
func ScoreOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// GrammarAnalysis is the grammar section shared by every speaking reply.
type GrammarAnalysis struct {
	Score         *int              `json:"score"`
	Errors        []scoring.Finding `json:"errors"`
	Strengths     []string          `json:"strengths,omitempty"`
	Complexity    string            `json:"complexity,omitempty"`
	CorrectedText string            `json:"corrected_text,omitempty"`
}

type WeakWord struct {
	Word    string `json:"word"`
	Better  string `json:"better"`
	Example string `json:"example,omitempty"`
}

type OverusedWord struct {
	Word         string   `json:"word"`
	Count        int      `json:"count"`
	Alternatives []string `json:"alternatives,omitempty"`
}

type VocabularyAnalysis struct {
	Score       *int           `json:"score"`
	Level       string         `json:"level,omitempty"`
	GoodWords   []string       `json:"good_words,omitempty"`
	WeakWords   []WeakWord     `json:"weak_words,omitempty"`
	Overused    []OverusedWord `json:"overused,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// HesitationMarker records a filler word and how often it appeared. Some
// prompts name the fix field "suggestion", others "fix"; both are kept.
type HesitationMarker struct {
	Word       string `json:"word"`
	Count      int    `json:"count"`
	Suggestion string `json:"suggestion,omitempty"`
	Fix        string `json:"fix,omitempty"`
}

type FluencyAnalysis struct {
	Score             *int               `json:"score"`
	Pace              string             `json:"pace,omitempty"`
	Coherence         string             `json:"coherence,omitempty"`
	HesitationMarkers []HesitationMarker `json:"hesitation_markers,omitempty"`
	Hesitations       []HesitationMarker `json:"hesitations,omitempty"`
	ImprovementTip    string             `json:"improvement_tip,omitempty"`
	Improvement       string             `json:"improvement,omitempty"`
	ImprovementTips   []string           `json:"improvement_tips,omitempty"`
}

// PronunciationCoaching is a per-word coaching card built from Azure's
// mispronunciation report.
type PronunciationCoaching struct {
	Word                 string `json:"word"`
	CurrentIssue         string `json:"current_issue,omitempty"`
	CorrectPronunciation string `json:"correct_pronunciation,omitempty"`
	SyllableBreakdown    string `json:"syllable_breakdown,omitempty"`
	PracticeTip          string `json:"practice_tip,omitempty"`
	CommonMistake        string `json:"common_mistake,omitempty"`
	SimilarWords         string `json:"similar_words,omitempty"`
}

// SpeechAnalysis is the flexible analysis used by read-aloud and
// describe-picture flows.
type SpeechAnalysis struct {
	Grammar               GrammarAnalysis         `json:"grammar"`
	Vocabulary            VocabularyAnalysis      `json:"vocabulary"`
	Fluency               FluencyAnalysis         `json:"fluency"`
	PronunciationCoaching []PronunciationCoaching `json:"pronunciation_coaching,omitempty"`
}

type RelevanceAnalysis struct {
	Score                  *int   `json:"score"`
	Assessment             string `json:"assessment,omitempty"`
	Issues                 string `json:"issues,omitempty"`
	WhichQuestionsAnswered []int  `json:"which_questions_answered,omitempty"`
	MissingQuestions       []int  `json:"missing_questions,omitempty"`
}

type CompletenessAnalysis struct {
	Score             *int     `json:"score"`
	QuestionsAnswered int      `json:"questions_answered,omitempty"`
	MissingDetails    string   `json:"missing_details,omitempty"`
	Coverage          string   `json:"coverage,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`
}

type CohesionAnalysis struct {
	Score             *int     `json:"score"`
	LogicalFlow       string   `json:"logical_flow,omitempty"`
	ConnectorsUsed    []string `json:"connectors_used,omitempty"`
	MissingConnectors []string `json:"missing_connectors,omitempty"`
	Suggestion        string   `json:"suggestion,omitempty"`
}

// RespondQuestionsAnalysis is the reply shape for questions 5-7.
type RespondQuestionsAnalysis struct {
	RelevanceOfContent    RelevanceAnalysis    `json:"relevance_of_content"`
	CompletenessOfContent CompletenessAnalysis `json:"completeness_of_content"`
	Grammar               GrammarAnalysis      `json:"grammar"`
	Vocabulary            VocabularyAnalysis   `json:"vocabulary"`
	Cohesion              CohesionAnalysis     `json:"cohesion"`
	Fluency               FluencyAnalysis      `json:"fluency"`
}

type IncorrectFact struct {
	StudentSaid string `json:"student_said"`
	ShouldBe    string `json:"should_be"`
	Severity    string `json:"severity,omitempty"`
}

type InfoAccuracyAnalysis struct {
	Score              *int            `json:"score"`
	CorrectFacts       []string        `json:"correct_facts,omitempty"`
	IncorrectFacts     []IncorrectFact `json:"incorrect_facts,omitempty"`
	MissingFacts       []string        `json:"missing_facts,omitempty"`
	FactualErrorsCount int             `json:"factual_errors_count"`
	Assessment         string          `json:"assessment,omitempty"`
	Correction         string          `json:"correction,omitempty"`
}

// RespondInfoAnalysis is the reply shape for questions 8-10.
type RespondInfoAnalysis struct {
	InformationAccuracy   InfoAccuracyAnalysis `json:"information_accuracy"`
	CompletenessOfContent CompletenessAnalysis `json:"completeness_of_content"`
	Grammar               GrammarAnalysis      `json:"grammar"`
	Vocabulary            VocabularyAnalysis   `json:"vocabulary"`
	Cohesion              CohesionAnalysis     `json:"cohesion"`
}

type OpinionRelevance struct {
	Score      *int   `json:"score"`
	Assessment string `json:"assessment,omitempty"`
	Issues     string `json:"issues,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type OpinionClarity struct {
	Score         *int   `json:"score"`
	OpinionStated string `json:"opinion_stated,omitempty"`
	Clarity       string `json:"clarity,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
}

type ReasoningQuality struct {
	Score           *int     `json:"score"`
	ReasonsProvided []string `json:"reasons_provided,omitempty"`
	ExamplesGiven   int      `json:"examples_given,omitempty"`
	Missing         string   `json:"missing,omitempty"`
	Suggestion      string   `json:"suggestion,omitempty"`
}

type CoherenceAnalysis struct {
	Score              *int     `json:"score"`
	TransitionsUsed    []string `json:"transitions_used,omitempty"`
	MissingTransitions []string `json:"missing_transitions,omitempty"`
	Suggestion         string   `json:"suggestion,omitempty"`
}

// OpinionAnalysis is the reply shape for question 11.
type OpinionAnalysis struct {
	RelevanceToQuestion OpinionRelevance   `json:"relevance_to_question"`
	OpinionClarity      OpinionClarity     `json:"opinion_clarity"`
	ReasoningQuality    ReasoningQuality   `json:"reasoning_quality"`
	Grammar             GrammarAnalysis    `json:"grammar"`
	Vocabulary          VocabularyAnalysis `json:"vocabulary"`
	Fluency             FluencyAnalysis    `json:"fluency"`
	Coherence           CoherenceAnalysis  `json:"coherence"`
}

// ImageComparison grades a spoken description against the picture content.
type ImageComparison struct {
	RelevanceScore    *int     `json:"relevance_score"`
	IsRelevant        bool     `json:"is_relevant,omitempty"`
	MatchedElements   []string `json:"matched_elements"`
	MissingElements   []string `json:"missing_elements"`
	IncorrectElements []string `json:"incorrect_elements"`
	OverallAssessment string   `json:"overall_assessment,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`
}

type SentenceRelevance struct {
	Score             *int     `json:"score"`
	MatchedElements   []string `json:"matched_elements"`
	MissingElements   []string `json:"missing_elements"`
	IncorrectElements []string `json:"incorrect_elements"`
}

type GrammarCategory struct {
	Score  *int              `json:"score"`
	Errors []scoring.Finding `json:"errors"`
}

type StructureCategory struct {
	Score  *int   `json:"score"`
	Issues string `json:"issues,omitempty"`
}

type GrammarBreakdown struct {
	VerbTenses           GrammarCategory   `json:"verb_tenses"`
	SubjectVerbAgreement GrammarCategory   `json:"subject_verb_agreement"`
	Articles             GrammarCategory   `json:"articles"`
	Prepositions         GrammarCategory   `json:"prepositions"`
	SentenceStructure    StructureCategory `json:"sentence_structure"`
	OtherGrammar         GrammarCategory   `json:"other_grammar"`
}

type SentenceGrammar struct {
	OverallScore  *int             `json:"overall_score"`
	Breakdown     GrammarBreakdown `json:"breakdown"`
	CorrectedText string           `json:"corrected_text,omitempty"`
}

type WordChoiceEntry struct {
	Word          string   `json:"word"`
	Assessment    string   `json:"assessment,omitempty"`
	BetterOptions []string `json:"better_options,omitempty"`
	Context       string   `json:"context,omitempty"`
}

type GenericWord struct {
	Word                string `json:"word"`
	SpecificAlternative string `json:"specific_alternative"`
	Note                string `json:"note,omitempty"`
}

type VocabularyBreakdown struct {
	WordChoice struct {
		Analysis []WordChoiceEntry `json:"analysis"`
	} `json:"word_choice"`
	VocabularyLevel struct {
		OverallLevel string `json:"overall_level"`
	} `json:"vocabulary_level"`
	Specificity struct {
		GenericWords []GenericWord `json:"generic_words"`
	} `json:"specificity"`
}

type SentenceVocabulary struct {
	OverallScore *int                `json:"overall_score"`
	Breakdown    VocabularyBreakdown `json:"breakdown"`
}

// SentenceAnalysis is the writing part 1 reply shape.
type SentenceAnalysis struct {
	Relevance  SentenceRelevance  `json:"relevance"`
	Grammar    SentenceGrammar    `json:"grammar"`
	Vocabulary SentenceVocabulary `json:"vocabulary"`
}

type EmailRelevance struct {
	Score          *int     `json:"score"`
	AnsweredPoints []string `json:"answered_points"`
	MissingPoints  []string `json:"missing_points"`
	Assessment     string   `json:"assessment,omitempty"`
}

type SentenceVariety struct {
	Score    *int   `json:"score"`
	Simple   int    `json:"simple"`
	Compound int    `json:"compound"`
	Complex  int    `json:"complex"`
	Issues   string `json:"issues,omitempty"`
}

type WritingVocabulary struct {
	Score     *int           `json:"score"`
	GoodWords []string       `json:"good_words,omitempty"`
	WeakWords []WeakWord     `json:"weak_words,omitempty"`
	Overused  []OverusedWord `json:"overused,omitempty"`
	Issues    string         `json:"issues,omitempty"`
}

type OrganizationAnalysis struct {
	Score     *int   `json:"score"`
	Structure string `json:"structure,omitempty"`
	Coherence string `json:"coherence,omitempty"`
	Issues    string `json:"issues,omitempty"`
}

type WritingGrammar struct {
	Score         *int              `json:"score"`
	Errors        []scoring.Finding `json:"errors"`
	CorrectedText string            `json:"corrected_text,omitempty"`
}

// EmailAnalysis is the writing part 2 reply shape.
type EmailAnalysis struct {
	Relevance       EmailRelevance       `json:"relevance"`
	SentenceVariety SentenceVariety      `json:"sentence_variety"`
	Vocabulary      WritingVocabulary    `json:"vocabulary"`
	Organization    OrganizationAnalysis `json:"organization"`
	Grammar         WritingGrammar       `json:"grammar"`
}

type EssayRelevance struct {
	Score                 *int   `json:"score"`
	PromptAsksAbout       string `json:"prompt_asks_about,omitempty"`
	EssayIsAbout          string `json:"essay_is_about,omitempty"`
	DoesEssayAnswerPrompt string `json:"does_essay_answer_prompt,omitempty"`
	Assessment            string `json:"assessment,omitempty"`
	Explanation           string `json:"explanation,omitempty"`
}

type OpinionExample struct {
	Reason      string `json:"reason,omitempty"`
	Example     string `json:"example,omitempty"`
	Specificity string `json:"specificity,omitempty"`
	Details     string `json:"details,omitempty"`
}

type OpinionSupport struct {
	Score         *int             `json:"score"`
	OpinionStated string           `json:"opinion_stated,omitempty"`
	Reasons       []string         `json:"reasons,omitempty"`
	Examples      []OpinionExample `json:"examples,omitempty"`
	MissingIssues []string         `json:"missing_issues,omitempty"`
}

type EssayOrganization struct {
	Score              *int     `json:"score"`
	Structure          string   `json:"structure,omitempty"`
	HasIntroduction    bool     `json:"has_introduction"`
	HasBodyParagraphs  bool     `json:"has_body_paragraphs"`
	HasConclusion      bool     `json:"has_conclusion"`
	Coherence          string   `json:"coherence,omitempty"`
	MissingTransitions []string `json:"missing_transitions,omitempty"`
	Issues             string   `json:"issues,omitempty"`
}

// EssayAnalysis is the writing part 3 reply shape.
type EssayAnalysis struct {
	RelevanceToPrompt EssayRelevance    `json:"relevance_to_prompt"`
	OpinionSupport    OpinionSupport    `json:"opinion_support"`
	Grammar           WritingGrammar    `json:"grammar"`
	Vocabulary        WritingVocabulary `json:"vocabulary"`
	Organization      EssayOrganization `json:"organization"`
}
