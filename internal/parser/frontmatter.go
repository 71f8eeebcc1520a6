package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/models"
)

// Delimiter opens and closes the YAML frontmatter block.
const Delimiter = "---"

// StructuredDataError reports a frontmatter block that is present but is not
// a valid YAML mapping.
type StructuredDataError struct {
	Err error
}

func (e *StructuredDataError) Error() string {
	return fmt.Sprintf("frontmatter: %v", e.Err)
}

// Unwrap exposes both the YAML cause and apperr.ErrStructuredData.
func (e *StructuredDataError) Unwrap() []error {
	return []error{apperr.ErrStructuredData, e.Err}
}

// SplitFrontmatter separates the YAML frontmatter from the Markdown body.
//
// Text that is blank, does not start with the delimiter, or has no closing
// delimiter is returned whole as body with empty frontmatter. The text is
// split on the first two delimiters; the body has its leading newlines
// removed.
func SplitFrontmatter(text string) (*models.Frontmatter, string, error) {
	fm := models.NewFrontmatter()
	if strings.TrimSpace(text) == "" || !strings.HasPrefix(text, Delimiter) {
		return fm, text, nil
	}

	parts := strings.SplitN(text, Delimiter, 3)
	if len(parts) < 3 {
		return fm, text, nil
	}

	body := strings.TrimLeft(parts[2], "\n")
	block := strings.TrimSpace(parts[1])
	if block == "" {
		return fm, body, nil
	}

	if err := yaml.Unmarshal([]byte(block), fm); err != nil {
		return nil, "", &StructuredDataError{Err: err}
	}
	return fm, body, nil
}

// stripFrontmatterPrefix drops a frontmatter-looking header without
// validating it: everything up to and including the next line that starts
// with the delimiter. Text without such a line is returned unchanged.
func stripFrontmatterPrefix(text string) string {
	if !strings.HasPrefix(text, Delimiter) {
		return text
	}
	rest := text[len(Delimiter):]
	idx := strings.Index(rest, "\n"+Delimiter)
	if idx < 0 {
		return text
	}
	rest = rest[idx+1+len(Delimiter):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		rest = ""
	}
	return strings.TrimLeft(rest, "\n")
}

// RenderNote serializes frontmatter and body into note text:
// delimiter, YAML block, delimiter, blank line, body.
//
// The result must split back into the same frontmatter and body. Values
// that would move the closing delimiter, such as a string containing
// "---", fail with apperr.ErrSafety instead of producing a corrupt note.
func RenderNote(fm *models.Frontmatter, body string) (string, error) {
	body = strings.TrimLeft(body, "\n")
	out, err := render(fm, body)
	if err != nil {
		return "", err
	}
	gotFM, gotBody, err := SplitFrontmatter(out)
	if err != nil {
		return "", fmt.Errorf("frontmatter: rendered note does not parse: %w: %w", apperr.ErrSafety, err)
	}
	if gotBody != body || gotFM.Len() != fm.Len() {
		return "", fmt.Errorf("frontmatter: rendered note does not round-trip: %w", apperr.ErrSafety)
	}
	again, err := render(gotFM, gotBody)
	if err != nil || again != out {
		return "", fmt.Errorf("frontmatter: rendered note does not round-trip: %w", apperr.ErrSafety)
	}
	return out, nil
}

func render(fm *models.Frontmatter, body string) (string, error) {
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	if fm.Len() > 0 {
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		if err := enc.Encode(fm); err != nil {
			return "", fmt.Errorf("frontmatter: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("frontmatter: encode: %w", err)
		}
	}
	b.WriteString(Delimiter + "\n\n")
	b.WriteString(body)
	return b.String(), nil
}
