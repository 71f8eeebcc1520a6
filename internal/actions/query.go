package actions

// Query combines the repository filters. Filters apply in field order;
// zero values disable a filter. StaleDays is only read when Stale is set,
// and zero there means DefaultStaleDays.
type Query struct {
	Status     Status
	Orphaned   bool
	StaleDays  int
	Stale      bool
	Prioritize bool
}

// Select applies q to the repository's records.
func (r *Repository) Select(q Query) []Record {
	status := q.Status
	if status == "" {
		status = StatusAll
	}
	sub := r.derive(r.Filter(status))
	if q.Orphaned {
		sub = r.derive(sub.Orphaned())
	}
	if q.Stale {
		sub = r.derive(sub.Stale(q.StaleDays))
	}
	if q.Prioritize {
		return sub.Prioritized()
	}
	return sub.All()
}

func (r *Repository) derive(records []Record) *Repository {
	return &Repository{records: records, now: r.now}
}

// Entry is the presentation form of a record.
type Entry struct {
	ID          string `json:"id"`
	NotePath    string `json:"note_path"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Priority    string `json:"priority,omitempty"`
	LineNumber  int    `json:"line_number"`
	Created     string `json:"created,omitempty"`
	Overdue     bool   `json:"overdue"`
	DaysOverdue int    `json:"days_overdue"`
	Score       int    `json:"score"`
}

// Entries renders records with their computed fields.
func (r *Repository) Entries(records []Record) []Entry {
	out := make([]Entry, len(records))
	for i, rec := range records {
		out[i] = Entry{
			ID:          rec.ID(),
			NotePath:    rec.NotePath,
			Text:        rec.Item.Text,
			Completed:   rec.Item.Completed,
			Assignee:    rec.Item.Assignee,
			DueDate:     rec.Item.DueDate,
			Priority:    rec.Item.Priority,
			LineNumber:  rec.Item.LineNumber,
			Created:     rec.Created,
			Overdue:     r.IsOverdue(rec),
			DaysOverdue: r.DaysOverdue(rec),
			Score:       r.Score(rec),
		}
	}
	return out
}

// GroupEntries groups records by project and renders each group.
func (r *Repository) GroupEntries(records []Record) map[string][]Entry {
	groups := r.derive(records).GroupByProject()
	out := make(map[string][]Entry, len(groups))
	for key, recs := range groups {
		out[key] = r.Entries(recs)
	}
	return out
}
