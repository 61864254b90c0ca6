package grammar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/toeicgenius/assessment_service/internal/logger"
)

func ltServer(t *testing.T, matches []map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/languages":
			w.Write([]byte(`[]`))
		case "/v2/check":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
			if r.PostForm.Get("language") != "en-US" {
				t.Errorf("language = %q, want en-US", r.PostForm.Get("language"))
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"matches": matches})
		default:
			http.NotFound(w, r)
		}
	}))
}

func match(offset, length int, replacement, ruleID, category string) map[string]interface{} {
	return map[string]interface{}{
		"offset":       offset,
		"length":       length,
		"replacements": []map[string]string{{"value": replacement}},
		"rule": map[string]interface{}{
			"id":       ruleID,
			"category": map[string]string{"id": category},
		},
	}
}

func TestCheck_FiltersAndLabels(t *testing.T) {
	t.Parallel()

	// text: "he go to school now"
	srv := ltServer(t, []map[string]interface{}{
		match(3, 2, "goes", "SUBJECT_VERB_AGREEMENT", "GRAMMAR"),
		match(9, 2, "towards", "STYLE_HINT", "STYLE"),
		match(3, 2, "went", "OTHER_RULE", "GRAMMAR"),
	})
	defer srv.Close()

	c := NewChecker(srv.URL, logger.NewNop())
	findings, err := c.Check(context.Background(), "he go to school now")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1 (style filtered, duplicate span dropped)", len(findings))
	}
	f := findings[0]
	if f.Wrong != "go" || f.Correct != "goes" {
		t.Errorf("finding = %q -> %q, want go -> goes", f.Wrong, f.Correct)
	}
	if f.Rule != "Subject Verb Agreement" {
		t.Errorf("rule label = %q", f.Rule)
	}
}

func TestCheck_DropsNoOpCorrections(t *testing.T) {
	t.Parallel()

	srv := ltServer(t, []map[string]interface{}{
		match(0, 2, "He", "UPPERCASE_SENTENCE_START", "TYPOS"),
		match(3, 2, "", "EMPTY_SUGGESTION", "GRAMMAR"),
	})
	defer srv.Close()

	c := NewChecker(srv.URL, logger.NewNop())
	findings, err := c.Check(context.Background(), "he go")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %v, want none (case-only and empty corrections dropped)", findings)
	}
}

func TestCheck_CapsFindings(t *testing.T) {
	t.Parallel()

	text := ""
	var matches []map[string]interface{}
	for i := 0; i < 20; i++ {
		text += "ab "
		matches = append(matches, match(i*3, 2, "xy", "SOME_RULE", "TYPOS"))
	}
	srv := ltServer(t, matches)
	defer srv.Close()

	c := NewChecker(srv.URL, logger.NewNop())
	findings, err := c.Check(context.Background(), text)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(findings) != maxFindings {
		t.Errorf("findings = %d, want cap of %d", len(findings), maxFindings)
	}
}

func TestChecker_Unconfigured(t *testing.T) {
	t.Parallel()

	c := NewChecker("", logger.NewNop())
	if c.Available() {
		t.Error("Available() true with no server configured")
	}
	findings, err := c.Check(context.Background(), "some text")
	if err != nil || findings != nil {
		t.Errorf("Check = %v, %v; want nil, nil", findings, err)
	}
}

func TestPing_MarksAvailability(t *testing.T) {
	t.Parallel()

	srv := ltServer(t, nil)
	c := NewChecker(srv.URL, logger.NewNop())
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !c.Available() {
		t.Error("Available() false after successful ping")
	}

	srv.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("Ping succeeded against closed server")
	}
	if c.Available() {
		t.Error("Available() true after failed ping")
	}
}

func TestRuleLabel(t *testing.T) {
	t.Parallel()

	if got := ruleLabel("MORFOLOGIK_RULE_EN_US"); got != "Morfologik Rule En Us" {
		t.Errorf("ruleLabel = %q", got)
	}
}
