// Package parser turns raw Markdown notes into models.ParsedNote values:
// frontmatter, action items, attendees, dates, tags, reading statistics and
// a suggested PARA category.
package parser

import (
	"fmt"
	"strings"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/models"
)

// Mode selects how parsing failures are handled.
type Mode int

const (
	// Strict aborts on the first failure.
	Strict Mode = iota
	// Graceful degrades instead of failing for any non-empty input.
	Graceful
)

// Status describes how a parse outcome was produced.
type Status int

const (
	StatusParsed Status = iota
	StatusDegraded
	StatusFallback
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusDegraded:
		return "degraded"
	case StatusFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Outcome is the result of Parse. Note is set unless Status is
// StatusFailed. Err carries the failure that forced a degraded or fallback
// result, or the fatal error for StatusFailed.
type Outcome struct {
	Status Status
	Note   *models.ParsedNote
	Err    error
}

// Result returns the note, or the error when parsing failed.
func (o Outcome) Result() (*models.ParsedNote, error) {
	if o.Status == StatusFailed {
		return nil, o.Err
	}
	return o.Note, nil
}

// ParseError wraps a strict-mode failure with the note path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{apperr.ErrParsing, e.Err}
}

// Option configures a Parser.
type Option func(*Parser)

// WithScorer replaces the default category scorer.
func WithScorer(s *Scorer) Option {
	return func(p *Parser) {
		p.scorer = s
	}
}

// WithWordsPerMinute sets the reading speed used for read-time estimates.
func WithWordsPerMinute(wpm int) Option {
	return func(p *Parser) {
		if wpm > 0 {
			p.wpm = wpm
		}
	}
}

// Parser holds the compiled extraction patterns and scoring tables. Build
// one per run and share it; it keeps no per-note state.
type Parser struct {
	extractor *Extractor
	scorer    *Scorer
	wpm       int
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		extractor: NewExtractor(),
		scorer:    NewScorer(nil, DefaultThreshold),
		wpm:       DefaultWordsPerMinute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extractor returns the parser's entity extractor.
func (p *Parser) Extractor() *Extractor { return p.extractor }

// Scorer returns the parser's category scorer.
func (p *Parser) Scorer() *Scorer { return p.scorer }

// Parse parses raw note content read from path.
//
// Blank content fails in both modes with apperr.ErrEmptyDocument. In Strict
// mode any other failure yields StatusFailed with a *ParseError. In Graceful
// mode a failure is retried on the body left after heuristically dropping
// the frontmatter (StatusDegraded); if that fails too a minimal note is
// returned (StatusFallback).
func (p *Parser) Parse(path string, raw []byte, mode Mode) Outcome {
	text := NormalizeNewlines(string(raw))
	if strings.TrimSpace(text) == "" {
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("parse %s: %w", path, apperr.ErrEmptyDocument)}
	}

	note, err := p.guard(func() (*models.ParsedNote, error) { return p.Analyze(path, text) })
	if err == nil {
		return Outcome{Status: StatusParsed, Note: note}
	}
	if mode == Strict {
		return Outcome{Status: StatusFailed, Err: &ParseError{Path: path, Err: err}}
	}

	body := stripFrontmatterPrefix(text)
	note, retryErr := p.guard(func() (*models.ParsedNote, error) {
		return p.assemble(path, text, models.NewFrontmatter(), body), nil
	})
	if retryErr == nil {
		return Outcome{Status: StatusDegraded, Note: note, Err: err}
	}
	return Outcome{Status: StatusFallback, Note: fallbackNote(path, text), Err: err}
}

// Analyze runs the strict pipeline over in-memory text.
func (p *Parser) Analyze(path, text string) (*models.ParsedNote, error) {
	text = NormalizeNewlines(text)
	fm, body, err := SplitFrontmatter(text)
	if err != nil {
		return nil, err
	}
	return p.assemble(path, text, fm, body), nil
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeNewlines converts CRLF and lone CR line endings to LF so that
// line-anchored patterns see the same text on every platform.
func NormalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	return newlines.Replace(text)
}

func (p *Parser) assemble(path, raw string, fm *models.Frontmatter, body string) *models.ParsedNote {
	words := WordCount(body)
	return &models.ParsedNote{
		Path:        path,
		Frontmatter: fm,
		Content:     body,
		RawContent:  raw,
		ActionItems: p.extractor.ActionItems(body),
		Attendees:   p.extractor.Attendees(body),
		Dates:       p.extractor.Dates(body),
		Tags:        p.extractor.Tags(body, fm),
		Category:    p.scorer.Categorize(body, fm),
		WordCount:   words,
		ReadTime:    ReadTime(words, p.wpm),
	}
}

// guard converts a panic inside fn into an error.
func (p *Parser) guard(fn func() (*models.ParsedNote, error)) (note *models.ParsedNote, err error) {
	defer func() {
		if r := recover(); r != nil {
			note, err = nil, fmt.Errorf("%w: recovered: %v", apperr.ErrParsing, r)
		}
	}()
	return fn()
}

func fallbackNote(path, raw string) *models.ParsedNote {
	return &models.ParsedNote{
		Path:        path,
		Frontmatter: models.NewFrontmatter(),
		Content:     raw,
		RawContent:  raw,
		ActionItems: []models.ActionItem{},
		Attendees:   []string{},
		Dates:       []string{},
		Tags:        []string{},
		Category: models.Categorization{
			Category:  models.Inbox,
			Reasoning: []string{"fallback: note could not be parsed"},
		},
		WordCount: 0,
		ReadTime:  1,
	}
}
