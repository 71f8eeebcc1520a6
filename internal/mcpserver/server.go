// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes paranote tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/index"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/noteservice"
	"github.com/starford/paranote/internal/parser"
)

// Config carries vault settings used by directory-wide tools.
type Config struct {
	Pattern   string
	StaleDays int
}

// Server wraps the MCP server with paranote tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
	idx index.Reader
	cfg Config
}

// New creates a new MCP server with all paranote tools registered.
func New(svc *noteservice.Service, idx index.Reader, cfg Config) *Server {
	if cfg.StaleDays <= 0 {
		cfg.StaleDays = actions.DefaultStaleDays
	}
	s := &Server{svc: svc, idx: idx, cfg: cfg}

	s.mcp = server.NewMCPServer(
		"paranote",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_note",
		mcp.WithDescription("Parse a Markdown note and return its frontmatter, action items, "+
			"attendees, dates, tags, suggested PARA category and reading statistics."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. Projects/website/plan.md)")),
		mcp.WithBoolean("graceful", mcp.Description("Recover from malformed frontmatter instead of failing")),
	), s.parseNote)

	s.mcp.AddTool(mcp.NewTool("suggest_category",
		mcp.WithDescription("Suggest a PARA category for a note or for raw Markdown text, "+
			"with confidence, reasoning and ranked alternatives."),
		mcp.WithString("path", mcp.Description("Vault-relative note path")),
		mcp.WithString("content", mcp.Description("Markdown text to categorize when no path is given")),
	), s.suggestCategory)

	s.mcp.AddTool(mcp.NewTool("list_action_items",
		mcp.WithDescription("List checklist action items across the vault with filters."),
		mcp.WithString("dir", mcp.Description("Vault-relative directory (empty for the whole vault)")),
		mcp.WithString("status", mcp.Description("all, pending, completed or overdue"), mcp.Enum("all", "pending", "completed", "overdue")),
		mcp.WithBoolean("orphaned", mcp.Description("Only pending items with no assignee and no future due date")),
		mcp.WithNumber("stale_days", mcp.Description("Only pending items from notes created more than this many days ago")),
		mcp.WithBoolean("prioritized", mcp.Description("Sort by urgency score, highest first")),
		mcp.WithBoolean("group", mcp.Description("Group items by project folder")),
	), s.listActionItems)

	s.mcp.AddTool(mcp.NewTool("update_frontmatter",
		mcp.WithDescription("Set frontmatter keys on a note, keeping its body unchanged. "+
			"A backup is written first unless backup is false. Read the "+NoteFormatURI+" resource first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative note path")),
		mcp.WithObject("updates", mcp.Required(), mcp.Description("Keys to set; values replace existing ones")),
		mcp.WithBoolean("backup", mcp.Description("Write a backup first (default true)")),
	), s.updateFrontmatter)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search indexed notes by title, body and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("category", mcp.Description("Restrict results to one PARA category"),
			mcp.Enum("projects", "areas", "resources", "archive", "inbox")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns the Markdown conventions the parser understands. "+
			"Call this before editing notes."),
	), s.getNoteFormat)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format",
			mcp.WithResourceDescription("Markdown conventions for action items, attendees, tags and PARA categories."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

type parseResult struct {
	Status  string             `json:"status"`
	Warning string             `json:"warning,omitempty"`
	Note    *models.ParsedNote `json:"note"`
}

func (s *Server) parseNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode := parser.Strict
	if req.GetBool("graceful", false) {
		mode = parser.Graceful
	}
	out := s.svc.ParseFile(ctx, path, mode)
	note, err := out.Result()
	if err != nil {
		return mcp.NewToolResultError(describe(path, err)), nil
	}
	res := parseResult{Status: out.Status.String(), Note: note}
	if out.Err != nil {
		res.Warning = out.Err.Error()
	}
	return jsonResult(res)
}

func (s *Server) suggestCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	content := req.GetString("content", "")
	switch {
	case path != "":
		note, err := s.svc.ParseFile(ctx, path, parser.Graceful).Result()
		if err != nil {
			return mcp.NewToolResultError(describe(path, err)), nil
		}
		return jsonResult(note.Category)
	case content != "":
		fm, body, err := parser.SplitFrontmatter(content)
		if err != nil {
			fm, body = models.NewFrontmatter(), content
		}
		return jsonResult(s.svc.Parser().Scorer().Categorize(body, fm))
	default:
		return mcp.NewToolResultError("either path or content is required"), nil
	}
}

type actionList struct {
	Items  []actions.Entry            `json:"items,omitempty"`
	Groups map[string][]actions.Entry `json:"groups,omitempty"`
	Errors []noteservice.FileError    `json:"errors"`
}

func (s *Server) listActionItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := actions.ParseStatus(req.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := actions.Query{
		Status:     status,
		Orphaned:   req.GetBool("orphaned", false),
		Prioritize: req.GetBool("prioritized", false),
	}
	if days := req.GetInt("stale_days", 0); days > 0 {
		q.Stale, q.StaleDays = true, days
	}

	dir := req.GetString("dir", "")
	repo, failures, err := s.svc.Actions(ctx, dir, s.cfg.Pattern)
	if err != nil {
		return mcp.NewToolResultError(describe(dir, err)), nil
	}
	selected := repo.Select(q)
	res := actionList{Errors: failures}
	if req.GetBool("group", false) {
		res.Groups = repo.GroupEntries(selected)
	} else {
		res.Items = repo.Entries(selected)
	}
	return jsonResult(res)
}

func (s *Server) updateFrontmatter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, ok := req.GetArguments()["updates"]
	if !ok {
		return mcp.NewToolResultError("updates is required"), nil
	}
	// Object arguments arrive as maps; the JSON round trip yields sorted keys.
	data, err := json.Marshal(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updates := models.NewFrontmatter()
	if err := json.Unmarshal(data, updates); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("updates must be an object: %v", err)), nil
	}
	if updates.Len() == 0 {
		return mcp.NewToolResultError("updates must contain at least one key"), nil
	}

	res, err := s.svc.UpdateFrontmatter(ctx, path, updates, req.GetBool("backup", true))
	if err != nil {
		return mcp.NewToolResultError(describe(path, err)), nil
	}
	return jsonResult(res)
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sq := index.SearchQuery{Text: query, Limit: req.GetInt("limit", index.DefaultSearchLimit)}
	if c := req.GetString("category", ""); c != "" {
		cat, err := models.ParseCategory(c)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sq.Category = cat.String()
	}
	results, err := s.idx.Search(sq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getNoteFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

// describe turns a service error into a message for the model.
func describe(path string, err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fmt.Sprintf("not found: %s", path)
	case errors.Is(err, apperr.ErrInvalidPath):
		return fmt.Sprintf("invalid path: %s", path)
	case errors.Is(err, apperr.ErrSafety):
		return fmt.Sprintf("note left unchanged: %v", err)
	default:
		return err.Error()
	}
}
