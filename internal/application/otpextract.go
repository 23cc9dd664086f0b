package application

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Default code patterns. The portal's OTP mail puts the code alone in a
// table cell; the generic pattern covers plain-text and other layouts.
const (
	DefaultOTPCellPattern = `^\d{6}$`
	DefaultOTPPattern     = `\b\d{4,8}\b`
)

// CodeExtractor pulls a one-time code out of a decoded message body.
type CodeExtractor interface {
	Extract(body string) (string, bool)
}

// PatternExtractor matches a regular expression against the body. When the
// pattern has a capture group, group 1 is the code.
type PatternExtractor struct {
	pattern *regexp.Regexp
	policy  *bluemonday.Policy // nil keeps markup in the searched text.
}

// NewPatternExtractor compiles pattern. With stripHTML set, HTML bodies are
// reduced to their text before matching so attribute values and inline styles
// cannot produce false codes.
func NewPatternExtractor(pattern string, stripHTML bool) (*PatternExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile otp pattern %q: %w", pattern, err)
	}

	e := &PatternExtractor{pattern: re}
	if stripHTML {
		e.policy = bluemonday.StrictPolicy()
		e.policy.AddSpaceWhenStrippingTag(true)
	}
	return e, nil
}

// Extract returns the first match.
func (e *PatternExtractor) Extract(body string) (string, bool) {
	text := body
	if e.policy != nil && looksLikeHTML(body) {
		text = html.UnescapeString(e.policy.Sanitize(body))
	}

	m := e.pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 && m[1] != "" {
		return m[1], true
	}
	return m[0], true
}

// TableCellExtractor returns the text of the first <td> whose trimmed content
// fully matches the cell pattern.
type TableCellExtractor struct {
	cell *regexp.Regexp
}

// NewTableCellExtractor compiles the cell pattern.
func NewTableCellExtractor(pattern string) (*TableCellExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile otp cell pattern %q: %w", pattern, err)
	}
	return &TableCellExtractor{cell: re}, nil
}

// Extract scans table cells in document order.
func (e *TableCellExtractor) Extract(body string) (string, bool) {
	if !looksLikeHTML(body) {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	var code string
	doc.Find("td").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if e.cell.MatchString(text) {
			code = text
			return false
		}
		return true
	})

	return code, code != ""
}

// FirstMatch tries each extractor in order.
type FirstMatch []CodeExtractor

// Extract returns the first extractor's hit.
func (f FirstMatch) Extract(body string) (string, bool) {
	for _, e := range f {
		if code, ok := e.Extract(body); ok {
			return code, true
		}
	}
	return "", false
}

// ExtractFirst runs each extractor over every body before moving on to the
// next extractor, so a specific extractor wins over a looser one regardless of
// which body it matches. It returns the index of the matching body.
func (f FirstMatch) ExtractFirst(bodies []string) (string, int, bool) {
	for _, e := range f {
		for i, body := range bodies {
			if code, ok := e.Extract(body); ok {
				return code, i, true
			}
		}
	}
	return "", -1, false
}

// NewCodeExtractor builds the default chain: the portal's table-cell layout
// first, then pattern over the text rendering of the body.
func NewCodeExtractor(pattern string) (CodeExtractor, error) {
	if pattern == "" {
		pattern = DefaultOTPPattern
	}

	cell, err := NewTableCellExtractor(DefaultOTPCellPattern)
	if err != nil {
		return nil, err
	}
	text, err := NewPatternExtractor(pattern, true)
	if err != nil {
		return nil, err
	}
	return FirstMatch{cell, text}, nil
}

func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<table") ||
		strings.Contains(lower, "<td") ||
		strings.Contains(lower, "<div") ||
		strings.Contains(lower, "<p")
}
