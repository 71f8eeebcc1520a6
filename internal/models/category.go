package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one of the five PARA buckets.
type Category int

// Declaration order is also the scoring tie-break order.
const (
	Projects Category = iota
	Areas
	Resources
	Archive
	Inbox
)

var categoryNames = [...]string{
	Projects:  "projects",
	Areas:     "areas",
	Resources: "resources",
	Archive:   "archive",
	Inbox:     "inbox",
}

var categoryDirs = [...]string{
	Projects:  "Projects",
	Areas:     "Areas",
	Resources: "Resources",
	Archive:   "Archive",
	Inbox:     "Inbox",
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{Projects, Areas, Resources, Archive, Inbox}
}

// ParseCategory converts s (case-insensitive, surrounding space ignored)
// into a Category. Unknown names are an error.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == needle {
			return Category(c), nil
		}
	}
	return Inbox, fmt.Errorf("unknown PARA category %q", s)
}

// String returns the lower-case category name.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Dir returns the conventional vault directory for the category.
func (c Category) Dir() string {
	if c < 0 || int(c) >= len(categoryDirs) {
		return categoryDirs[Inbox]
	}
	return categoryDirs[c]
}

// MarshalJSON encodes the category as its name.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a category name.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CategoryScore pairs a category with its keyword score.
type CategoryScore struct {
	Category Category `json:"category"`
	Score    int      `json:"score"`
}

// Categorization is the extended result of category scoring.
type Categorization struct {
	Category       Category        `json:"category"`
	Confidence     float64         `json:"confidence"`
	Reasoning      []string        `json:"reasoning"`
	Alternatives   []CategoryScore `json:"alternatives,omitempty"`
	ManualOverride bool            `json:"manual_override"`
}
