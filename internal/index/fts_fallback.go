//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Without FTS5 the notes table itself is searched.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches every whitespace-separated term, case-insensitively, in
// the title, body or tags. Snippets are the first 200 bytes of the body.
func (db *DB) Search(q SearchQuery) ([]SearchResult, error) {
	terms := strings.Fields(q.Text)
	if len(terms) == 0 {
		return []SearchResult{}, nil
	}
	where := []string{"(? = '' OR category = ?)"}
	args := []any{q.Category, q.Category}
	for _, t := range terms {
		like := "%" + likeEscaper.Replace(t) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	args = append(args, q.limit())

	rows, err := db.conn.Query(`
		SELECT path, title, category, pending_count, substr(body, 1, 200)
		FROM notes
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY path
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
