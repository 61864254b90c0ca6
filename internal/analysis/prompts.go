package analysis

import (
	"fmt"
	"strings"

	"github.com/toeicgenius/assessment_service/internal/scoring"
)

// Prompt builders. The JSON skeletons in these prompts define the reply
// shapes in types.go; change them together.

const (
	maxSeededFindings   = 8
	maxCoachedWords     = 5
	maxCoachingWordList = 8
)

// describeImagePrompt drives the vision pass for describe-picture tasks.
const describeImagePrompt = `Describe this image in detail for TOEIC speaking assessment.

List clearly and specifically:
1. Main subjects (people, animals, objects)
2. Actions happening
3. Setting/location
4. Important background details
5. Colors, positions, spatial relationships

Be objective, specific, and comprehensive.`

// writingImagePrompt drives the vision pass for write-a-sentence tasks.
const writingImagePrompt = `Describe this picture objectively for TOEIC Writing.
Focus on: main subjects, actions, setting, important details.
Be factual and detailed.`

// safetyNetContext seeds a prompt with rule-based findings so the model
// hunts for errors beyond them instead of repeating them.
func safetyNetContext(findings []scoring.Finding, followUp string) string {
	if len(findings) == 0 {
		return ""
	}
	if len(findings) > maxSeededFindings {
		findings = findings[:maxSeededFindings]
	}
	var b strings.Builder
	b.WriteString("\nBASIC ERRORS DETECTED (rule-based):\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "  '%s' → '%s'\n", f.Wrong, f.Correct)
	}
	b.WriteString("\n")
	b.WriteString(followUp)
	b.WriteString("\n")
	return b.String()
}

func speechPrompt(text string, duration float64, wordCount int, wpm float64, taskType, ltContext string) string {
	return fmt.Sprintf(`You are a TOEIC Speaking expert. Analyze this student response comprehensively.

STUDENT TEXT: "%s"
CONTEXT: %.1fs, %d words, %.1f WPM
TASK TYPE: %s

%s

Return ONLY JSON:
{
    "grammar": {
        "score": 0-100,
        "errors": [
            {
                "wrong": "exact phrase with error",
                "correct": "corrected version",
                "rule": "error type/rule name",
                "explanation": "why wrong and how to fix"
            }
        ],
        "strengths": ["correct patterns from actual text"],
        "complexity": "basic|intermediate|advanced",
        "corrected_text": "complete corrected version"
    },

    "vocabulary": {
        "score": 0-100,
        "level": "basic|intermediate|advanced",
        "good_words": ["strong vocabulary used"],
        "weak_words": [
            {"word": "weak word", "better": "stronger alternative", "example": "usage example"}
        ],
        "overused": [
            {"word": "repeated word", "count": number, "alternatives": ["synonym1", "synonym2"]}
        ],
        "suggestions": ["specific improvements"]
    },

    "fluency": {
        "score": 0-100,
        "pace": "too slow|appropriate|too fast",
        "coherence": "poor|fair|good|excellent",
        "hesitation_markers": [
            {"word": "um|uh|like", "count": number, "suggestion": "how to eliminate"}
        ],
        "improvement_tip": "specific fluency improvement tip"
    }
}

CRITICAL INSTRUCTIONS:

**GRAMMAR ERRORS** - Find ALL types, including but not limited to:
- Subject-verb agreement
- Verb tenses
- Articles (a/an/the)
- Prepositions
- Word form (adjective/adverb/noun)
- Singular/plural
- Sentence structure
- Any other grammatical mistakes

Do NOT limit yourself to these categories. If you find ANY error, report it.

**VOCABULARY** - Assess:
- Word choice appropriateness
- Vocabulary range and sophistication
- Repetition and alternatives
- Contextual accuracy

**FLUENCY** - Evaluate:
- Speaking pace
- Hesitations and fillers
- Logical flow and coherence
- Natural expression

SCORING GUIDE:
- 90-100: Excellent, 0-1 minor errors
- 80-89: Good, 2-3 minor or 1 major error
- 70-79: Fair, 4-6 errors
- 60-69: Poor, 7-10 errors
- Below 60: Very poor, 10+ errors

Analyze the ACTUAL student text. Be specific with corrections.
Return ONLY valid JSON.`, text, duration, wordCount, wpm, taskType, ltContext)
}

func coachingContext(mispronounced, omitted []string) string {
	if len(mispronounced) == 0 && len(omitted) == 0 {
		return ""
	}
	if len(mispronounced) > maxCoachingWordList {
		mispronounced = mispronounced[:maxCoachingWordList]
	}
	misList := "None"
	if len(mispronounced) > 0 {
		misList = strings.Join(mispronounced, ", ")
	}
	omitList := "None"
	if len(omitted) > 0 {
		omitList = strings.Join(omitted, ", ")
	}
	return fmt.Sprintf(`
PRONUNCIATION DATA FROM AZURE:

Mispronounced words: %s
Omitted words: %s

YOUR TASK: Generate DETAILED pronunciation coaching for EACH mispronounced word:

For each word provide:
1. Specific pronunciation issue
2. Correct pronunciation with IPA: /fəˈnetɪk/
3. Syllable breakdown with stress: pri-MAR-y
4. Practical practice tip (tongue/lip positioning)
5. Common mistakes Vietnamese speakers make
`, misList, omitList)
}

func coachingPrompt(referenceText, text string, duration float64, wordCount int, wpm float64, pronContext string) string {
	return fmt.Sprintf(`You are an expert TOEIC Speaking assessor and pronunciation coach.

READ ALOUD ASSESSMENT:

Reference: "%s"
Student: "%s"
Duration: %.1fs, %d words, %.1f WPM

%s

Return ONLY JSON:
{
    "grammar": {
        "score": 0-100,
        "errors": [
            {
                "wrong": "exact phrase with error",
                "correct": "corrected phrase",
                "rule": "grammar rule",
                "explanation": "why wrong"
            }
        ],
        "strengths": ["strengths"],
        "corrected_text": "corrected version"
    },

    "vocabulary": {
        "score": 0-100,
        "good_words": ["strong words"],
        "weak_words": [
            {"word": "weak", "better": "better", "example": "example"}
        ]
    },

    "fluency": {
        "score": 0-100,
        "pace": "appropriate|too slow|too fast",
        "hesitation_markers": [
            {"word": "um|uh", "count": number, "suggestion": "fix"}
        ],
        "improvement_tips": ["tips"]
    },

    "pronunciation_coaching": [
        {
            "word": "mispronounced word",
            "current_issue": "specific problem",
            "correct_pronunciation": "IPA: /fəˈnetɪk/ - phonetic",
            "syllable_breakdown": "syl-LA-ble (stress marks)",
            "practice_tip": "detailed practice method",
            "common_mistake": "typical Vietnamese error",
            "similar_words": "similar words for practice"
        }
    ]
}

CRITICAL:
- Pronunciation coaching for ALL mispronounced words
- Include IPA notation
- Mark stress clearly
- Practical tips for tongue/lip position
- If no mispronunciations: return []

Return ONLY valid JSON.`, referenceText, text, duration, wordCount, wpm, pronContext)
}

func compareImagePrompt(transcription, reference string) string {
	return fmt.Sprintf(`Compare the spoken description with the expected image content.

SPOKEN DESCRIPTION: "%s"
EXPECTED CONTENT: "%s"

Return JSON:
{
    "relevance_score": 85,
    "is_relevant": true,
    "matched_elements": ["specific element student described correctly"],
    "missing_elements": ["important element student forgot"],
    "incorrect_elements": ["wrong thing student said"],
    "overall_assessment": "brief assessment",
    "suggestions": ["Add description of X", "Correct Y"]
}

Be specific about corrections.`, transcription, reference)
}

func respondQuestionsPrompt(questionContext, text string, duration float64, wordCount int, wpm float64, ltContext string) string {
	contextInstruction := "This is Question 5-7: Student must answer 3 questions."
	if strings.TrimSpace(questionContext) != "" {
		contextInstruction = fmt.Sprintf(`
QUESTIONS ASKED:
%s

Analyze if student answered ALL questions with SPECIFIC feedback.
`, questionContext)
	}
	return fmt.Sprintf(`You are a TOEIC Speaking expert for Questions 5-7.

%s

STUDENT ANSWER: "%s"
DURATION: %.1fs, %d words, %.1f WPM

%s

Return ONLY JSON:
{
    "relevance_of_content": {
        "score": 75,
        "assessment": "relevant|partially relevant|off-topic",
        "issues": "specific issue or none",
        "which_questions_answered": [1, 2, 3],
        "missing_questions": []
    },

    "completeness_of_content": {
        "score": 70,
        "questions_answered": 3,
        "missing_details": "Should add X",
        "coverage": "adequate|incomplete",
        "suggestions": ["Add example for Q2"]
    },

    "grammar": {
        "score": 80,
        "errors": [
            {"wrong": "text", "correct": "text", "rule": "rule", "explanation": "why wrong"}
        ],
        "strengths": ["strength"],
        "corrected_text": "full corrected answer"
    },

    "vocabulary": {
        "score": 75,
        "good_words": ["word"],
        "weak_words": [{"word": "X", "better": "Y", "example": "context"}],
        "overused": [{"word": "repeated", "count": 3, "alternatives": ["alt1"]}]
    },

    "cohesion": {
        "score": 70,
        "logical_flow": "logical|unclear",
        "connectors_used": ["because", "also"],
        "missing_connectors": ["however"],
        "suggestion": "Add 'For instance'"
    },

    "fluency": {
        "score": 75,
        "pace": "appropriate|too slow|too fast",
        "hesitation_markers": [{"word": "um", "count": 2, "fix": "pause silently"}],
        "improvement_tip": "specific tip"
    }
}

CRITICAL:
- Find ALL error types (grammar, vocab, structure, flow)
- Do NOT limit to predefined categories
- Be specific with ALL corrections
- Analyze ACTUAL student text

Return ONLY valid JSON.`, contextInstruction, text, duration, wordCount, wpm, ltContext)
}

func respondInfoPrompt(referenceInfo, text, ltContext string) string {
	return fmt.Sprintf(`You are a TOEIC Speaking expert for Question 8-10.

PROVIDED INFORMATION (REFERENCE): %s
STUDENT ANSWER: "%s"

%s

Return ONLY JSON:
{
    "information_accuracy": {
        "score": 75,
        "correct_facts": ["Student said meeting at 2pm correctly"],
        "incorrect_facts": [
            {"student_said": "3pm", "should_be": "2pm", "severity": "major"}
        ],
        "missing_facts": ["Forgot duration"],
        "factual_errors_count": 2,
        "assessment": "mostly accurate|has errors",
        "correction": "Meeting is at 2pm (not 3pm) in Room B"
    },

    "completeness_of_content": {
        "score": 70,
        "questions_answered": 3,
        "missing_details": "Should mention X",
        "suggestions": ["Add Y"]
    },

    "grammar": {
        "score": 80,
        "errors": [{"wrong": "text", "correct": "text", "rule": "rule"}],
        "corrected_text": "corrected with CORRECT facts"
    },

    "vocabulary": {
        "score": 75,
        "good_words": ["word"],
        "weak_words": [{"word": "X", "better": "Y"}]
    },

    "cohesion": {
        "score": 78,
        "connectors_used": ["first", "then"],
        "missing_connectors": ["finally"]
    }
}

CRITICAL:
- Check if facts match REFERENCE info
- Identify ALL incorrect facts
- Score based on accuracy: 2+ errors = 0-40, 1 error = 50-70, all correct = 80-100
- Find ALL grammar/vocab errors (not just basic ones)

Return ONLY JSON.`, referenceInfo, text, ltContext)
}

func opinionPrompt(questionContext, text string, duration float64, wordCount int, wpm float64, ltContext string) string {
	contextInstruction := "Question 11: Express clear opinion with reasons."
	if strings.TrimSpace(questionContext) != "" {
		contextInstruction = fmt.Sprintf(`
QUESTION: %s

Check if student:
1. Answered THIS question
2. Stated clear opinion
3. Provided reasons/examples
`, questionContext)
	}
	return fmt.Sprintf(`You are a TOEIC Speaking expert for Question 11.

%s

STUDENT ANSWER: "%s"
DURATION: %.1fs, %d words, %.1f WPM

%s

Return ONLY JSON:
{
    "relevance_to_question": {
        "score": 75,
        "assessment": "answers question|off-topic",
        "issues": "specific issue or none",
        "suggestion": "Should address X"
    },

    "opinion_clarity": {
        "score": 80,
        "opinion_stated": "yes - prefers studying alone",
        "clarity": "clear|unclear",
        "suggestion": "Say 'I strongly believe' instead of 'I think'"
    },

    "reasoning_quality": {
        "score": 70,
        "reasons_provided": ["can concentrate better"],
        "examples_given": 1,
        "missing": "Add specific example",
        "suggestion": "Example: 'Last semester when I studied alone...'"
    },

    "grammar": {
        "score": 75,
        "errors": [{"wrong": "can focusing", "correct": "can focus", "rule": "modal + base"}],
        "corrected_text": "I prefer to study alone because I can focus better"
    },

    "vocabulary": {
        "score": 78,
        "good_words": ["concentrate"],
        "weak_words": [{"word": "thing", "better": "subject", "example": "studying thing → math"}],
        "overused": [{"word": "very", "count": 3, "alternatives": ["extremely", "really"]}]
    },

    "fluency": {
        "score": 80,
        "hesitations": [{"word": "um", "count": 3, "fix": "Pause silently"}],
        "improvement": "Plan structure: Opinion → Reason → Example"
    },

    "coherence": {
        "score": 75,
        "transitions_used": ["because", "also"],
        "missing_transitions": ["for example"],
        "suggestion": "Add 'For example' before instances"
    }
}

CRITICAL:
- Find ALL error types (grammar, vocab, structure, flow)
- Do NOT limit to predefined categories
- Be specific with corrections
- Analyze ACTUAL text

Return ONLY JSON.`, contextInstruction, text, duration, wordCount, wpm, ltContext)
}

func sentencePrompt(pictureDescription, text string) string {
	return fmt.Sprintf(`You are a TOEIC Part 1 evaluator. Check if the sentence accurately describes the picture.

PICTURE DESCRIPTION:
"%s"

STUDENT SENTENCE:
"%s"

CRITICAL RULES:
1. "wrong" phrase MUST be copied EXACTLY from student sentence
2. If sentence is grammatically correct → return empty errors []
3. "wrong" and "correct" MUST be different

STEP 1: RELEVANCE CHECK
Compare picture vs sentence:
- Accurately describes main elements = Score 90-100
- Describes most elements = Score 70-80
- Describes some elements = Score 50-60
- Wrong or irrelevant = Score 0-30

STEP 2: DETAILED GRAMMAR CHECK
- Verb tenses: correct form?
- Subject-verb agreement: matching?
- Articles (a/an/the): missing or incorrect?
- Prepositions: correct usage?
- Sentence structure: complete and clear?

STEP 3: VOCABULARY CHECK
- Generic words (thing, stuff, person) → suggest specific alternatives
- Word choice appropriateness for context
- Vocabulary level assessment

Return JSON:
{
    "relevance": {
        "score": 0-100,
        "matched_elements": ["elements from picture mentioned"],
        "missing_elements": ["important things not mentioned"],
        "incorrect_elements": ["things mentioned but NOT in picture"]
    },
    "grammar": {
        "overall_score": 0-100,
        "breakdown": {
            "verb_tenses": {"score": 0-100, "errors": [{"wrong": "exact phrase", "correct": "fixed", "rule": "explanation", "severity": "high/medium/low"}]},
            "subject_verb_agreement": {"score": 0-100, "errors": []},
            "articles": {"score": 0-100, "errors": []},
            "prepositions": {"score": 0-100, "errors": []},
            "sentence_structure": {"score": 0-100, "issues": "description or empty string"},
            "other_grammar": {"score": 0-100, "errors": []}
        },
        "corrected_text": "fully corrected sentence or original if no errors"
    },
    "vocabulary": {
        "overall_score": 0-100,
        "breakdown": {
            "word_choice": {"analysis": [{"word": "word", "assessment": "weak/good", "better_options": ["alternatives"], "context": "why"}]},
            "vocabulary_level": {"overall_level": "basic/intermediate/advanced"},
            "specificity": {"generic_words": [{"word": "generic", "specific_alternative": "better", "note": "context"}]}
        }
    }
}

Return ONLY valid JSON without markdown.`, pictureDescription, text)
}

func emailPrompt(requestPrompt, text string) string {
	return fmt.Sprintf(`You are a TOEIC Part 2 email evaluator.

REQUEST:
"%s"

STUDENT EMAIL:
"%s"

CRITICAL RULES:
1. "wrong" MUST be copied EXACTLY from student response
2. If phrase doesn't exist → DO NOT list it
3. Count overused words EXACTLY in text above

STEP 1: RELEVANCE - Parse request carefully
- What specific questions does request ask?
- Which are answered in response?
- Which are missing?
- Score 90-100 = All answered clearly
- Score 30-50 = Some missing
- Score 0-20 = Off-topic

STEP 2: DETAILED EVALUATION
Grammar, vocabulary, sentence variety, organization

Return JSON:
{
    "relevance": {
        "score": 0-100,
        "answered_points": ["specific point 1 answered", "point 2"],
        "missing_points": ["specific point NOT answered"],
        "assessment": "complete/partial/off-topic"
    },
    "sentence_variety": {
        "score": 0-100,
        "simple": count,
        "compound": count,
        "complex": count,
        "issues": "description or empty string"
    },
    "vocabulary": {
        "score": 0-100,
        "good_words": ["strong words used"],
        "weak_words": [{"word": "word", "better": "alternative", "example": "usage example"}],
        "overused": [{"word": "word", "count": exact_number, "alternatives": ["alternatives"]}],
        "issues": "summary or empty string"
    },
    "organization": {
        "score": 0-100,
        "structure": "clear/unclear",
        "coherence": "good/poor",
        "issues": "description or empty string"
    },
    "grammar": {
        "score": 0-100,
        "errors": [{"wrong": "exact phrase", "correct": "fixed", "rule": "explanation", "severity": "high/medium/low"}],
        "corrected_text": "corrected or original"
    }
}

Return ONLY valid JSON without markdown.`, requestPrompt, text)
}

func essayPrompt(prompt, text string) string {
	return fmt.Sprintf(`You are a TOEIC Part 3 essay evaluator. Use TWO-STEP evaluation.

ESSAY PROMPT:
"%s"

STUDENT ESSAY:
"%s"

CRITICAL RULES:
1. "wrong" MUST be copied EXACTLY from essay
2. Count overused words EXACTLY (4+ times = overused)
3. Check OFF-TOPIC first, then other criteria

STEP 1: OFF-TOPIC CHECK (CHECK THIS FIRST!)

Question: "If someone asked you the PROMPT question, would this ESSAY be a good answer?"

Answer: YES / SOMEWHAT / NO

SCORING:
- If YES → Score 70-100 (on-topic, proceed to Step 2)
- If SOMEWHAT → Score 30-60 (partially relevant)
- If NO → Score 0-20 (off-topic, cannot evaluate other criteria)

STEP 2: DETAILED EVALUATION (only if Step 1 >= 60)

1. OPINION SUPPORT:
   - Clear opinion statement?
   - 2-3 distinct reasons?
   - Specific examples with WHO, WHEN, HOW, RESULTS?
   - Examples relevant and well-developed?

2. GRAMMAR (with specific error examples):
   - Verb tenses/forms
   - Subject-verb agreement
   - Articles (a/an/the)
   - Prepositions
   - Complex structures

3. VOCABULARY (with improvement suggestions):
   - Generic words (thing, stuff, good, bad, very, people)
   - Overused words (4+ times)
   - Academic vocabulary usage
   - Word choice appropriateness

4. ORGANIZATION:
   - Introduction with thesis?
   - Body paragraphs with topic sentences?
   - Transitions between ideas?
   - Conclusion present?

Return JSON:
{
    "relevance_to_prompt": {
        "score": 0-100,
        "prompt_asks_about": "Simple 1-sentence summary of prompt topic",
        "essay_is_about": "Simple 1-sentence summary of essay topic",
        "does_essay_answer_prompt": "yes/somewhat/no",
        "assessment": "on-topic/partially-relevant/off-topic",
        "explanation": "Brief explanation why on-topic or off-topic"
    },
    "opinion_support": {
        "score": 0-100,
        "opinion_stated": "clear/unclear/missing",
        "reasons": ["reason 1", "reason 2"],
        "examples": [
            {
                "reason": "which reason",
                "example": "the example",
                "specificity": "vague/moderate/specific",
                "details": "WHO, WHEN, HOW, RESULTS"
            }
        ],
        "missing_issues": ["what's missing or weak"]
    },
    "grammar": {
        "score": 0-100,
        "errors": [{"wrong": "exact phrase from essay", "correct": "fixed", "rule": "explanation", "severity": "high/medium/low"}],
        "corrected_text": "corrected or original"
    },
    "vocabulary": {
        "score": 0-100,
        "good_words": ["strong academic words"],
        "weak_words": [{"word": "word", "better": "better", "example": "usage example"}],
        "overused": [{"word": "word", "count": exact_count, "alternatives": ["alt"]}],
        "issues": "summary or empty string"
    },
    "organization": {
        "score": 0-100,
        "structure": "clear/unclear",
        "has_introduction": true/false,
        "has_body_paragraphs": true/false,
        "has_conclusion": true/false,
        "coherence": "good/poor",
        "missing_transitions": ["transition words"],
        "issues": "description or empty string"
    }
}

Return ONLY valid JSON without markdown.`, prompt, text)
}
