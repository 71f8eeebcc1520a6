package api

import (
	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/index"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/noteservice"
)

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []index.NoteRow `json:"notes" validate:"required"`
	Total int             `json:"total" example:"42" validate:"required"`
}

// NoteResponse is a parsed note together with how it was parsed.
type NoteResponse struct {
	Status  string             `json:"status" example:"parsed" validate:"required"`
	Warning string             `json:"warning,omitempty" example:"structured data: yaml: line 2: did not find expected key"`
	Note    *models.ParsedNote `json:"note" validate:"required"`
}

// UpdateFrontmatterRequest is the request body for a frontmatter update.
// Backup defaults to true.
type UpdateFrontmatterRequest struct {
	Updates *models.Frontmatter `json:"updates" validate:"required"`
	Backup  *bool               `json:"backup,omitempty"`
}

// UpdateFrontmatterResponse is the result of a frontmatter update.
type UpdateFrontmatterResponse = noteservice.UpdateResult

// ActionListResponse lists action items.
type ActionListResponse struct {
	Items  []actions.Entry         `json:"items" validate:"required"`
	Errors []noteservice.FileError `json:"errors" validate:"required"`
}

// ActionGroupResponse lists action items grouped by project.
type ActionGroupResponse struct {
	Groups map[string][]actions.Entry `json:"groups" validate:"required"`
	Errors []noteservice.FileError    `json:"errors" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
