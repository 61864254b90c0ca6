package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestSpeechClient(t *testing.T, fn roundTripFunc) *AzureSpeechClient {
	t.Helper()
	c := NewAzureSpeechClient("test-key", "eastus", time.Second)
	c.client.Transport = fn
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestTranscribe_ParsesDisplayText(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	client := newTestSpeechClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(200, `{"RecognitionStatus":"Success","DisplayText":"The weather is nice today."}`), nil
	})

	text, err := client.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "The weather is nice today." {
		t.Errorf("text = %q", text)
	}
	if captured.Host != "eastus.stt.speech.microsoft.com" {
		t.Errorf("host = %q", captured.Host)
	}
	if got := captured.URL.Query().Get("format"); got != "detailed" {
		t.Errorf("format = %q", got)
	}
	if got := captured.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
		t.Errorf("subscription key header = %q", got)
	}
	if captured.Header.Get("Pronunciation-Assessment") != "" {
		t.Error("plain transcription must not send assessment params")
	}
}

func TestTranscribe_NoMatchReturnsEmpty(t *testing.T) {
	t.Parallel()

	client := newTestSpeechClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"RecognitionStatus":"NoMatch"}`), nil
	})

	text, err := client.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty for NoMatch", text)
	}
}

func TestTranscribe_FallsBackToNBestDisplay(t *testing.T) {
	t.Parallel()

	client := newTestSpeechClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"RecognitionStatus":"Success","NBest":[{"Display":"from nbest"}]}`), nil
	})

	text, err := client.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "from nbest" {
		t.Errorf("text = %q", text)
	}
}

func TestAssessPronunciation_SendsEncodedParamsAndDecodesReport(t *testing.T) {
	t.Parallel()

	body := `{
		"RecognitionStatus": "Success",
		"NBest": [{
			"Display": "hello world",
			"PronunciationAssessment": {"PronScore": 82.5, "AccuracyScore": 88, "FluencyScore": 75, "CompletenessScore": 100},
			"Words": [
				{"Word": "hello", "PronunciationAssessment": {"AccuracyScore": 95, "ErrorType": "None"}},
				{"Word": "world", "PronunciationAssessment": {"AccuracyScore": 41, "ErrorType": "Mispronunciation"}},
				{"Word": "today", "ErrorType": "Omission"}
			]
		}]
	}`

	var captured *http.Request
	client := newTestSpeechClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(200, body), nil
	})

	report, err := client.AssessPronunciation(context.Background(), []byte("audio"), "hello world today")
	if err != nil {
		t.Fatalf("AssessPronunciation: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(captured.Header.Get("Pronunciation-Assessment"))
	if err != nil {
		t.Fatalf("assessment header is not base64: %v", err)
	}
	var params map[string]interface{}
	if err := json.Unmarshal(raw, &params); err != nil {
		t.Fatalf("assessment header is not JSON: %v", err)
	}
	if params["ReferenceText"] != "hello world today" {
		t.Errorf("ReferenceText = %v", params["ReferenceText"])
	}
	if params["GradingSystem"] != "HundredMark" {
		t.Errorf("GradingSystem = %v", params["GradingSystem"])
	}
	if params["EnableMiscue"] != true {
		t.Errorf("EnableMiscue = %v", params["EnableMiscue"])
	}

	if report.PronunciationScore != 82 {
		t.Errorf("PronunciationScore = %d", report.PronunciationScore)
	}
	if report.AccuracyScore != 88 || report.FluencyScore != 75 || report.CompletenessScore != 100 {
		t.Errorf("scores = %+v", report)
	}
	if len(report.MispronouncedWords) != 1 || report.MispronouncedWords[0].Word != "world" {
		t.Errorf("mispronounced = %+v", report.MispronouncedWords)
	}
	if report.MispronouncedWords[0].Accuracy != 41 {
		t.Errorf("mispronounced accuracy = %v", report.MispronouncedWords[0].Accuracy)
	}
	if len(report.OmittedWords) != 1 || report.OmittedWords[0] != "today" {
		t.Errorf("omitted = %v", report.OmittedWords)
	}
}

func TestAssessPronunciation_APIErrorReturnsZeroReport(t *testing.T) {
	t.Parallel()

	client := newTestSpeechClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(500, `{"error":"boom"}`), nil
	})

	report, err := client.AssessPronunciation(context.Background(), []byte("audio"), "reference")
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
	if report.PronunciationScore != 0 || len(report.MispronouncedWords) != 0 {
		t.Errorf("report = %+v, want zero report", report)
	}
	if report.MispronouncedWords == nil || report.OmittedWords == nil {
		t.Error("zero report must carry empty, non-nil word lists")
	}
}

func TestRecognize_RequiresCredentials(t *testing.T) {
	t.Parallel()

	client := NewAzureSpeechClient("", "", time.Second)
	if client.Configured() {
		t.Fatal("empty credentials must not report configured")
	}
	if _, err := client.Transcribe(context.Background(), bytes.Repeat([]byte{0}, 4)); err == nil {
		t.Fatal("expected error without credentials")
	}
}
