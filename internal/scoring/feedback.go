package scoring

import "fmt"

// Report accumulates feedback lines in presentation order. Scoring code
// builds reports; the response boundary renders them as the ordered
// recommendations list.
type Report struct {
	lines []string
}

// NewReport creates an empty feedback report.
func NewReport() *Report {
	return &Report{lines: []string{}}
}

// Add appends a formatted feedback line.
func (r *Report) Add(format string, args ...interface{}) *Report {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
	return r
}

// Blank appends an empty separator line.
func (r *Report) Blank() *Report {
	r.lines = append(r.lines, "")
	return r
}

// AddAll appends pre-built lines verbatim.
func (r *Report) AddAll(lines ...string) *Report {
	r.lines = append(r.lines, lines...)
	return r
}

// Lines renders the report, truncated to at most limit lines. limit <= 0
// means no cap.
func (r *Report) Lines(limit int) []string {
	if limit > 0 && len(r.lines) > limit {
		return r.lines[:limit]
	}
	return r.lines
}

// Headline returns the top-line verdict for an overall score in the full
// evaluation tier.
func Headline(overall int) string {
	switch {
	case overall >= 90:
		return "EXCELLENT PERFORMANCE!"
	case overall >= 80:
		return "GOOD JOB! Minor improvements needed."
	case overall >= 70:
		return "FAIR PERFORMANCE. Focus on key areas below."
	case overall >= 60:
		return "NEEDS IMPROVEMENT. Practice areas below."
	default:
		return "SIGNIFICANT WORK NEEDED. Focus on fundamentals."
	}
}

// Encouragement returns the closing line for an overall score.
func Encouragement(overall int) string {
	if overall >= 70 {
		return "Keep practicing! You're making progress."
	}
	return "Focus on fundamentals. Practice daily!"
}
