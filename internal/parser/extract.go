package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/paranote/internal/models"
)

// Extractor runs the entity extraction passes over a note body. Every pass
// is a pure function of its input.
type Extractor struct {
	actionRe   *regexp.Regexp
	attendeeRe *regexp.Regexp
	emailRe    *regexp.Regexp
	dateRe     *regexp.Regexp
	tagRe      *regexp.Regexp
	splitRe    *regexp.Regexp
}

// NewExtractor compiles the extraction patterns.
func NewExtractor() *Extractor {
	return &Extractor{
		// checkbox, text, then optional "@who", "due: when" and "[priority]" in that order.
		actionRe: regexp.MustCompile(`(?m)^[ \t]*(- \[([ xX])\][ \t]+(.+?))` +
			`(?:[ \t]+-?[ \t]*@([\w.-]+))?` +
			`(?:[ \t]+-?[ \t]*[Dd]ue:[ \t]*([^\[\n]+?))?` +
			`(?:[ \t]*\[(\w+)\])?[ \t]*$`),
		attendeeRe: regexp.MustCompile(`(?im)(?:attendees|participants)\**[ \t]*:[ \t]*([^\n]*(?:\n[ \t]*[-*+][ \t]+[^\[\n][^\n]*)*)`),
		emailRe:    regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		dateRe:     regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[ T]\d{2}:\d{2}(?::\d{2})?)?\b`),
		tagRe:      regexp.MustCompile(`(?:^|\s)#([A-Za-z0-9_-]+)`),
		splitRe:    regexp.MustCompile(`[,;\n]`),
	}
}

// ActionItems returns every checklist line in document order.
func (e *Extractor) ActionItems(body string) []models.ActionItem {
	var out []models.ActionItem
	seen := make(map[string]int)
	for _, m := range e.actionRe.FindAllStringSubmatchIndex(body, -1) {
		start := m[2]
		item := models.ActionItem{
			Text:       strings.TrimSpace(body[m[6]:m[7]]),
			Completed:  strings.EqualFold(body[m[4]:m[5]], "x"),
			LineNumber: strings.Count(body[:start], "\n") + 1,
		}
		if m[8] >= 0 {
			item.Assignee = body[m[8]:m[9]]
		}
		if m[10] >= 0 {
			item.DueDate = strings.TrimSpace(body[m[10]:m[11]])
		}
		if m[12] >= 0 {
			item.Priority = strings.TrimSpace(body[m[12]:m[13]])
		}
		item.Occurrence = seen[item.Text]
		seen[item.Text]++
		out = append(out, item)
	}
	return out
}

// Attendees collects names from labelled attendee/participant lines and
// every email address in the body. Placeholders such as TBD are dropped.
func (e *Extractor) Attendees(body string) []string {
	var names []string
	for _, m := range e.attendeeRe.FindAllStringSubmatch(body, -1) {
		for _, frag := range e.splitRe.Split(m[1], -1) {
			name := strings.TrimSpace(frag)
			name = strings.TrimLeft(name, "-*+ \t")
			name = e.emailRe.ReplaceAllString(name, "")
			name = strings.TrimSpace(strings.Trim(strings.TrimSpace(name), "<>()[]"))
			if name == "" || isPlaceholder(name) {
				continue
			}
			names = append(names, name)
		}
	}
	names = append(names, e.emailRe.FindAllString(body, -1)...)
	return dedupe(names)
}

func isPlaceholder(s string) bool {
	switch strings.ToUpper(s) {
	case "TBD", "N/A", "NA", "TBC":
		return true
	}
	return false
}

// Dates returns every YYYY-MM-DD literal, with an optional time suffix.
func (e *Extractor) Dates(body string) []string {
	return dedupe(e.dateRe.FindAllString(body, -1))
}

// Tags unions inline #hashtags with the frontmatter "tags" field, which may
// be a comma-separated string or a sequence.
func (e *Extractor) Tags(body string, fm *models.Frontmatter) []string {
	var tags []string
	if raw, ok := fm.Get("tags"); ok {
		switch v := raw.(type) {
		case string:
			for _, t := range strings.Split(v, ",") {
				tags = append(tags, strings.TrimSpace(t))
			}
		case []any:
			for _, item := range v {
				if item == nil {
					continue
				}
				tags = append(tags, strings.TrimSpace(fmt.Sprint(item)))
			}
		case nil:
		default:
			tags = append(tags, strings.TrimSpace(fmt.Sprint(v)))
		}
	}
	for _, m := range e.tagRe.FindAllStringSubmatch(body, -1) {
		tags = append(tags, m[1])
	}
	return dedupe(tags)
}

// dedupe drops empty strings and repeats, keeping first occurrences.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
