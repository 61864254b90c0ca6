package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/toeicgenius/assessment_service/internal/errors"
)

// AzureSpeechClient wraps the Azure AI Speech short-audio REST API.
type AzureSpeechClient struct {
	apiKey string
	region string
	client *http.Client
}

// NewAzureSpeechClient creates a new Azure Speech client. The timeout
// bounds a single recognition call; TOEIC responses are a minute or less
// of audio but the ceiling is generous for slow regions.
func NewAzureSpeechClient(apiKey, region string, timeout time.Duration) *AzureSpeechClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AzureSpeechClient{
		apiKey: apiKey,
		region: region,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether credentials are present.
func (c *AzureSpeechClient) Configured() bool {
	return c.apiKey != "" && c.region != ""
}

// PronouncedWord is a word Azure flagged as mispronounced.
type PronouncedWord struct {
	Word     string  `json:"word"`
	Accuracy float64 `json:"accuracy"`
}

// PronunciationReport is the distilled pronunciation assessment. A zero
// report (all scores 0, empty word lists) is returned when assessment
// fails; callers treat it like an unpronounceable response rather than
// an error.
type PronunciationReport struct {
	PronunciationScore int              `json:"pronunciation_score"`
	AccuracyScore      int              `json:"accuracy_score"`
	FluencyScore       int              `json:"fluency_score"`
	CompletenessScore  int              `json:"completeness_score"`
	MispronouncedWords []PronouncedWord `json:"mispronounced_words"`
	OmittedWords       []string         `json:"omitted_words"`
}

// ZeroPronunciationReport is the all-zero report used when Azure cannot
// score the audio.
func ZeroPronunciationReport() PronunciationReport {
	return PronunciationReport{
		MispronouncedWords: []PronouncedWord{},
		OmittedWords:       []string{},
	}
}

type recognitionResponse struct {
	RecognitionStatus string       `json:"RecognitionStatus"`
	DisplayText       string       `json:"DisplayText"`
	NBest             []nbestEntry `json:"NBest"`
}

type nbestEntry struct {
	Display                 string         `json:"Display"`
	PronunciationAssessment *overallScores `json:"PronunciationAssessment"`
	Words                   []assessedWord `json:"Words"`
}

type overallScores struct {
	PronScore         float64 `json:"PronScore"`
	AccuracyScore     float64 `json:"AccuracyScore"`
	FluencyScore      float64 `json:"FluencyScore"`
	CompletenessScore float64 `json:"CompletenessScore"`
}

type assessedWord struct {
	Word                    string `json:"Word"`
	ErrorType               string `json:"ErrorType"`
	PronunciationAssessment *struct {
		AccuracyScore float64 `json:"AccuracyScore"`
		ErrorType     string  `json:"ErrorType"`
	} `json:"PronunciationAssessment"`
}

func (w assessedWord) errorType() string {
	if w.ErrorType != "" {
		return w.ErrorType
	}
	if w.PronunciationAssessment != nil {
		return w.PronunciationAssessment.ErrorType
	}
	return ""
}

func (w assessedWord) accuracy() float64 {
	if w.PronunciationAssessment != nil {
		return w.PronunciationAssessment.AccuracyScore
	}
	return 0
}

func (c *AzureSpeechClient) endpoint() url.URL {
	u := url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.stt.speech.microsoft.com", c.region),
		Path:   "/speech/recognition/conversation/cognitiveservices/v1",
	}
	q := u.Query()
	q.Set("language", "en-US")
	q.Set("format", "detailed")
	u.RawQuery = q.Encode()
	return u
}

func (c *AzureSpeechClient) recognize(ctx context.Context, audioData []byte, pronHeader string) (*recognitionResponse, error) {
	if !c.Configured() {
		return nil, errors.New(errors.ErrSpeechService, "Azure Speech credentials not configured")
	}

	u := c.endpoint()
	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(audioData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if pronHeader != "" {
		req.Header.Set("Pronunciation-Assessment", pronHeader)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json;text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure speech api error %d: %s", resp.StatusCode, string(body))
	}

	var result recognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// Transcribe converts wav audio to text. No recognizable speech yields an
// empty string without an error.
func (c *AzureSpeechClient) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	result, err := c.recognize(ctx, audioData, "")
	if err != nil {
		return "", err
	}
	if result.RecognitionStatus != "Success" {
		return "", nil
	}
	if result.DisplayText != "" {
		return result.DisplayText, nil
	}
	if len(result.NBest) > 0 {
		return result.NBest[0].Display, nil
	}
	return "", nil
}

// AssessPronunciation scores the audio against the reference text with
// phoneme granularity and miscue detection.
func (c *AzureSpeechClient) AssessPronunciation(ctx context.Context, audioData []byte, referenceText string) (PronunciationReport, error) {
	params := map[string]interface{}{
		"ReferenceText": referenceText,
		"GradingSystem": "HundredMark",
		"Granularity":   "Phoneme",
		"EnableMiscue":  true,
		"Dimension":     "Comprehensive",
	}
	jsonBytes, err := json.Marshal(params)
	if err != nil {
		return ZeroPronunciationReport(), fmt.Errorf("failed to marshal params: %w", err)
	}

	result, err := c.recognize(ctx, audioData, base64.StdEncoding.EncodeToString(jsonBytes))
	if err != nil {
		return ZeroPronunciationReport(), err
	}
	if result.RecognitionStatus != "Success" || len(result.NBest) == 0 {
		return ZeroPronunciationReport(), nil
	}

	best := result.NBest[0]
	report := ZeroPronunciationReport()
	if best.PronunciationAssessment != nil {
		report.PronunciationScore = int(best.PronunciationAssessment.PronScore)
		report.AccuracyScore = int(best.PronunciationAssessment.AccuracyScore)
		report.FluencyScore = int(best.PronunciationAssessment.FluencyScore)
		report.CompletenessScore = int(best.PronunciationAssessment.CompletenessScore)
	}
	for _, word := range best.Words {
		switch word.errorType() {
		case "Mispronunciation":
			report.MispronouncedWords = append(report.MispronouncedWords, PronouncedWord{
				Word:     word.Word,
				Accuracy: word.accuracy(),
			})
		case "Omission":
			report.OmittedWords = append(report.OmittedWords, word.Word)
		}
	}
	return report, nil
}
