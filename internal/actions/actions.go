// Package actions aggregates action items across notes: status filters,
// grouping by PARA location, priority ranking, staleness and orphan checks.
package actions

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/starford/paranote/internal/models"
)

// Status selects action items in Filter.
type Status string

const (
	StatusAll       Status = "all"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// ParseStatus validates a status name. Empty means StatusAll.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StatusAll, nil
	case StatusAll, StatusPending, StatusCompleted, StatusOverdue:
		return st, nil
	default:
		return "", fmt.Errorf("unknown action status %q", s)
	}
}

// DefaultStaleDays is the default age after which a pending item is stale.
const DefaultStaleDays = 30

// Unassigned is the group for items outside every PARA directory.
const Unassigned = "Unassigned"

// Priority label points.
var priorityPoints = map[string]int{
	"high":   100,
	"medium": 50,
	"low":    25,
}

// Score weights.
const (
	overduePointsPerDay = 50
	agePointsPerDay     = 1
)

// bucketDirs are the path segments recognised by GroupByProject, in lookup order.
var bucketDirs = []string{"Projects", "Areas", "Inbox", "Resources"}

// dateLayouts are the due/created formats understood by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a free-text date in one of the supported layouts and
// returns the calendar day in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return day(t), true
		}
	}
	return time.Time{}, false
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Record is an action item together with the note it came from.
type Record struct {
	Item     models.ActionItem `json:"item"`
	NotePath string            `json:"note_path"`
	// Created is the raw creation date of the source note, if any.
	Created string `json:"created,omitempty"`
}

// ID returns the item's fingerprint within its note.
func (r Record) ID() string {
	return r.Item.Fingerprint(r.NotePath)
}

// Repository answers questions about a fixed set of records. Dates are
// compared by calendar day against the clock.
type Repository struct {
	records []Record
	now     func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository wraps records. The slice is not copied.
func NewRepository(records []Record, opts ...Option) *Repository {
	r := &Repository{records: records, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// All returns every record in input order.
func (r *Repository) All() []Record {
	return r.records
}

func (r *Repository) today() time.Time {
	return day(r.now())
}

// DaysOverdue returns how many days past due rec is. Completed items,
// items without a parseable due date, and items not yet due return 0.
func (r *Repository) DaysOverdue(rec Record) int {
	if rec.Item.Completed {
		return 0
	}
	due, ok := ParseDate(rec.Item.DueDate)
	if !ok {
		return 0
	}
	today := r.today()
	if !due.Before(today) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}

// IsOverdue reports whether rec is incomplete with a due date before today.
func (r *Repository) IsOverdue(rec Record) bool {
	return r.DaysOverdue(rec) > 0
}

// Filter returns the records matching status, in input order.
func (r *Repository) Filter(status Status) []Record {
	return r.where(func(rec Record) bool {
		switch status {
		case StatusPending:
			return !rec.Item.Completed
		case StatusCompleted:
			return rec.Item.Completed
		case StatusOverdue:
			return r.IsOverdue(rec)
		default:
			return true
		}
	})
}

// Orphaned returns incomplete records with no assignee whose due date is
// missing or already past.
func (r *Repository) Orphaned() []Record {
	return r.where(func(rec Record) bool {
		if rec.Item.Completed || rec.Item.Assignee != "" {
			return false
		}
		return rec.Item.DueDate == "" || r.IsOverdue(rec)
	})
}

// Stale returns pending records whose note was created more than days ago.
// Records without a parseable creation date are never stale. A non-positive
// days selects DefaultStaleDays.
func (r *Repository) Stale(days int) []Record {
	if days <= 0 {
		days = DefaultStaleDays
	}
	cutoff := r.today().AddDate(0, 0, -days)
	return r.where(func(rec Record) bool {
		if rec.Item.Completed {
			return false
		}
		created, ok := ParseDate(rec.Created)
		return ok && created.Before(cutoff)
	})
}

// Score ranks urgency: 50 points per overdue day, 100/50/25 for a
// high/medium/low priority label, and one point per day since creation.
func (r *Repository) Score(rec Record) int {
	score := overduePointsPerDay * r.DaysOverdue(rec)
	score += priorityPoints[strings.ToLower(strings.TrimSpace(rec.Item.Priority))]
	if created, ok := ParseDate(rec.Created); ok {
		if age := int(r.today().Sub(created).Hours() / 24); age > 0 {
			score += agePointsPerDay * age
		}
	}
	return score
}

// Prioritized returns a copy of the records sorted by Score, highest
// first. Equal scores keep their input order.
func (r *Repository) Prioritized() []Record {
	type scoredRecord struct {
		rec   Record
		score int
	}
	tmp := make([]scoredRecord, len(r.records))
	for i, rec := range r.records {
		tmp[i] = scoredRecord{rec: rec, score: r.Score(rec)}
	}
	slices.SortStableFunc(tmp, func(a, b scoredRecord) int {
		return cmp.Compare(b.score, a.score)
	})
	out := make([]Record, len(tmp))
	for i, s := range tmp {
		out[i] = s.rec
	}
	return out
}

// GroupByProject buckets records by the PARA directory of their note.
// The key is the bucket name, followed by the first sub-folder when the
// note lives below one (e.g. "Projects/website"). Notes outside every
// bucket go to Unassigned.
func (r *Repository) GroupByProject() map[string][]Record {
	out := make(map[string][]Record)
	for _, rec := range r.records {
		key := ProjectKey(rec.NotePath)
		out[key] = append(out[key], rec)
	}
	return out
}

// ProjectKey returns the GroupByProject key for a note path.
func ProjectKey(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	dirs := segments[:len(segments)-1]
	for i, seg := range dirs {
		bucket, ok := matchBucket(seg)
		if !ok {
			continue
		}
		if i+1 < len(dirs) {
			return bucket + "/" + dirs[i+1]
		}
		return bucket
	}
	return Unassigned
}

// matchBucket accepts a bucket name case-insensitively, optionally behind a
// numeric ordering prefix such as "1-" or "01_".
func matchBucket(seg string) (string, bool) {
	trimmed := strings.TrimLeft(seg, "0123456789")
	if trimmed != seg {
		trimmed = strings.TrimLeft(trimmed, "-_. ")
	}
	for _, b := range bucketDirs {
		if strings.EqualFold(trimmed, b) {
			return b, true
		}
	}
	return "", false
}

func (r *Repository) where(keep func(Record) bool) []Record {
	out := make([]Record, 0)
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}
