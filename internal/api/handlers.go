package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/index"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/noteservice"
	"github.com/starford/paranote/internal/parser"
)

const frontmatterSuffix = "/frontmatter"

// Handler holds API route handlers.
type Handler struct {
	svc       *noteservice.Service
	idx       index.Reader
	pattern   string
	staleDays int
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service, idx index.Reader, pattern string, staleDays int) *Handler {
	return &Handler{svc: svc, idx: idx, pattern: pattern, staleDays: staleDays}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. Projects%2Fplan.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, op, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	case errors.Is(err, apperr.ErrEmptyDocument),
		errors.Is(err, apperr.ErrStructuredData),
		errors.Is(err, apperr.ErrParsing):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrSafety):
		slog.Error(op+" failed safely", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("note left unchanged: write failed"))
	default:
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// boolParam reads a boolean query parameter; absent means false.
func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List indexed notes with optional pagination and filtering
//	@Tags			notes
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			category	query		string	false	"Filter by category"	Enums(projects, areas, resources, archive, inbox)
//	@Success		200			{object}	NoteListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	filter := index.NoteFilter{Tag: q.Get("tag"), Limit: limit, Offset: offset}
	if c := q.Get("category"); c != "" {
		cat, err := models.ParseCategory(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		filter.Category = cat.String()
	}

	items, total, err := h.idx.ListNotes(filter)
	if err != nil {
		writeError(w, "list notes", "", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Parse a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path		path		string	true	"Note path"
//	@Param			graceful	query		bool	false	"Recover from malformed frontmatter"
//	@Success		200			{object}	NoteResponse
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	graceful, err := boolParam(r.URL.Query(), "graceful")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("graceful must be a boolean"))
		return
	}
	mode := parser.Strict
	if graceful {
		mode = parser.Graceful
	}

	out := h.svc.ParseFile(r.Context(), path, mode)
	note, err := out.Result()
	if err != nil {
		writeError(w, "get note", path, err)
		return
	}
	resp := NoteResponse{Status: out.Status.String(), Note: note}
	if out.Err != nil {
		resp.Warning = out.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateFrontmatter handles PUT /api/notes/*/frontmatter.
//
//	@Summary		Merge keys into a note's frontmatter
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string						true	"Note path"
//	@Param			body	body		UpdateFrontmatterRequest	true	"Keys to set"
//	@Success		200		{object}	UpdateFrontmatterResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path}/frontmatter [put]
func (h *Handler) UpdateFrontmatter(w http.ResponseWriter, r *http.Request) {
	raw := notePath(r)
	path, ok := strings.CutSuffix(raw, frontmatterSuffix)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("only frontmatter updates are supported"))
		return
	}
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	var req UpdateFrontmatterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if req.Updates.Len() == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("updates must contain at least one key"))
		return
	}
	backup := req.Backup == nil || *req.Backup

	res, err := h.svc.UpdateFrontmatter(r.Context(), path, req.Updates, backup)
	if err != nil {
		writeError(w, "update frontmatter", path, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListActions handles GET /api/actions.
//
//	@Summary		List action items across the vault
//	@Tags			actions
//	@Produce		json
//	@Param			dir			query		string	false	"Vault-relative directory"
//	@Param			status		query		string	false	"Status filter"	Enums(all, pending, completed, overdue)
//	@Param			orphaned	query		bool	false	"Only unassigned items without a future due date"
//	@Param			stale		query		int		false	"Only pending items older than this many days"
//	@Param			prioritized	query		bool	false	"Sort by urgency score"
//	@Param			group		query		bool	false	"Group by project"
//	@Success		200			{object}	ActionListResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/actions [get]
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := h.actionQuery(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	group, err := boolParam(q, "group")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("group must be a boolean"))
		return
	}

	dir := q.Get("dir")
	repo, failures, err := h.svc.Actions(r.Context(), dir, h.pattern)
	if err != nil {
		writeError(w, "list actions", dir, err)
		return
	}
	selected := repo.Select(query)
	if group {
		writeJSON(w, http.StatusOK, ActionGroupResponse{Groups: repo.GroupEntries(selected), Errors: failures})
		return
	}
	writeJSON(w, http.StatusOK, ActionListResponse{Items: repo.Entries(selected), Errors: failures})
}

func (h *Handler) actionQuery(q url.Values) (actions.Query, error) {
	var (
		out actions.Query
		err error
	)
	if out.Status, err = actions.ParseStatus(q.Get("status")); err != nil {
		return out, err
	}
	if out.Orphaned, err = boolParam(q, "orphaned"); err != nil {
		return out, errors.New("orphaned must be a boolean")
	}
	if out.Prioritize, err = boolParam(q, "prioritized"); err != nil {
		return out, errors.New("prioritized must be a boolean")
	}
	if v := q.Get("stale"); v != "" {
		days, convErr := strconv.Atoi(v)
		switch {
		case convErr == nil && days > 0:
			out.StaleDays = days
		case v == "true":
			out.StaleDays = h.staleDays
		default:
			return out, errors.New("stale must be a positive number of days")
		}
		out.Stale = true
	}
	return out, nil
}

// Search handles GET /api/search.
//
//	@Summary		Search indexed notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			category	query		string	false	"Restrict to a PARA category"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	sq := index.SearchQuery{Text: q}
	sq.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if c := r.URL.Query().Get("category"); c != "" {
		cat, err := models.ParseCategory(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		sq.Category = cat.String()
	}
	results, err := h.idx.Search(sq)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
