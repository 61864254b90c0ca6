// Package grammar wraps a LanguageTool server as a rule-based safety net.
// It catches mechanical errors cheaply; open-ended detection is left to
// the AI analyzer.
package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/toeicgenius/assessment_service/internal/scoring"
)

const (
	checkTimeout = 15 * time.Second
	maxFindings  = 15
)

// safetyNetCategories are the only LanguageTool categories surfaced.
// Style and punctuation noise would drown the AI findings.
var safetyNetCategories = map[string]bool{
	"GRAMMAR":        true,
	"TYPOS":          true,
	"CONFUSED_WORDS": true,
}

type Checker struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	up         atomic.Bool
}

// NewChecker builds a checker against a LanguageTool server. An empty
// baseURL disables the safety net entirely; the analyzer then runs in
// AI-only mode.
func NewChecker(baseURL string, log zerolog.Logger) *Checker {
	c := &Checker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: checkTimeout},
		log:        log,
	}
	if c.baseURL != "" {
		c.up.Store(true)
	}
	return c
}

// Available reports whether the server answered its last probe or check.
func (c *Checker) Available() bool {
	return c.baseURL != "" && c.up.Load()
}

// Ping probes the server and updates availability.
func (c *Checker) Ping(ctx context.Context) error {
	if c.baseURL == "" {
		return fmt.Errorf("grammar: no server configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/languages", nil)
	if err != nil {
		return fmt.Errorf("grammar: build probe: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.up.Store(false)
		return fmt.Errorf("grammar: probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode == http.StatusOK
	c.up.Store(ok)
	if !ok {
		return fmt.Errorf("grammar: probe status %d", resp.StatusCode)
	}
	return nil
}

type checkResponse struct {
	Matches []ltMatch `json:"matches"`
}

type ltMatch struct {
	Offset       int `json:"offset"`
	Length       int `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Rule struct {
		ID       string `json:"id"`
		Category struct {
			ID string `json:"id"`
		} `json:"category"`
	} `json:"rule"`
}

// Check runs the text through /v2/check and distills the matches into
// findings: safety-net categories only, one finding per text span,
// corrections that actually change the text, at most 15.
func (c *Checker) Check(ctx context.Context, text string) ([]scoring.Finding, error) {
	if c.baseURL == "" || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("grammar: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.up.Store(false)
		return nil, fmt.Errorf("grammar: check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("grammar: check status %d: %s", resp.StatusCode, string(body))
	}
	c.up.Store(true)

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("grammar: decode response: %w", err)
	}

	runes := []rune(text)
	seen := make(map[[2]int]bool)
	var findings []scoring.Finding

	for _, m := range parsed.Matches {
		if !safetyNetCategories[m.Rule.Category.ID] {
			continue
		}
		span := [2]int{m.Offset, m.Length}
		if seen[span] {
			continue
		}
		seen[span] = true

		if m.Offset < 0 || m.Offset+m.Length > len(runes) {
			continue
		}
		wrong := string(runes[m.Offset : m.Offset+m.Length])
		correct := ""
		if len(m.Replacements) > 0 {
			correct = m.Replacements[0].Value
		}
		if correct == "" || strings.EqualFold(wrong, correct) {
			continue
		}

		findings = append(findings, scoring.Finding{
			Wrong:   wrong,
			Correct: correct,
			Rule:    ruleLabel(m.Rule.ID),
			Source:  scoring.SourceRuleBased,
		})
		if len(findings) >= maxFindings {
			break
		}
	}

	if len(findings) > 0 {
		c.log.Info().Int("count", len(findings)).Msg("rule-based findings")
	}
	return findings, nil
}

// ruleLabel turns MORFOLOGIK_RULE_EN_US into "Morfologik Rule En Us".
func ruleLabel(id string) string {
	words := strings.Split(strings.ToLower(strings.ReplaceAll(id, "_", " ")), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
