package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/noteservice"
)

func writeJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func (e *env) renderNote(n *models.ParsedNote) {
	e.ui.Header(n.Title())
	e.ui.Detail("path", n.Path)
	c := n.Category
	category := fmt.Sprintf("%s (confidence %.2f)", c.Category, c.Confidence)
	if c.ManualOverride {
		category += " [frontmatter]"
	}
	e.ui.Detail("category", category)
	e.ui.List("reasoning", c.Reasoning)
	e.ui.Detail("tags", strings.Join(n.Tags, ", "))
	e.ui.Detail("attendees", strings.Join(n.Attendees, ", "))
	e.ui.Detail("dates", strings.Join(n.Dates, ", "))
	e.ui.Detail("words", fmt.Sprintf("%d (%d min read)", n.WordCount, n.ReadTime))
	if len(n.ActionItems) == 0 {
		return
	}
	items := make([]string, len(n.ActionItems))
	for i, it := range n.ActionItems {
		items[i] = describeItem(it)
	}
	e.ui.List("action items", items)
}

func describeItem(it models.ActionItem) string {
	box := "[ ]"
	if it.Completed {
		box = "[x]"
	}
	var extra []string
	if it.Assignee != "" {
		extra = append(extra, "@"+it.Assignee)
	}
	if it.DueDate != "" {
		extra = append(extra, "due "+it.DueDate)
	}
	if it.Priority != "" {
		extra = append(extra, it.Priority+" priority")
	}
	s := fmt.Sprintf("%s %s (line %d)", box, it.Text, it.LineNumber)
	if len(extra) > 0 {
		s += " " + strings.Join(extra, ", ")
	}
	return s
}

func (e *env) renderBatch(res *noteservice.BatchResult) {
	rows := make([][]string, 0, len(res.Notes))
	for _, n := range res.Notes {
		rows = append(rows, []string{
			n.Path,
			n.Category.Category.String(),
			strconv.FormatFloat(n.Category.Confidence, 'f', 2, 64),
			strconv.Itoa(len(n.ActionItems)),
			strconv.Itoa(n.WordCount),
		})
	}
	e.ui.Table([]string{"PATH", "CATEGORY", "CONFIDENCE", "ACTIONS", "WORDS"}, rows)
	for _, p := range res.Degraded {
		e.ui.Warning(p + ": frontmatter recovered")
	}
}

func (e *env) renderSummary(sum noteservice.Summary) {
	e.ui.Header("Summary")
	e.ui.Detail("notes", strconv.Itoa(sum.Notes))
	e.ui.Detail("failed", strconv.Itoa(sum.Failed))
	for _, c := range models.Categories() {
		if n := sum.ByCategory[c.String()]; n > 0 {
			e.ui.Detail(c.String(), strconv.Itoa(n))
		}
	}
	e.ui.Detail("action items", fmt.Sprintf("%d (%d pending, %d completed)", sum.ActionItems, sum.Pending, sum.Completed))
	e.ui.Detail("with attendees", strconv.Itoa(sum.WithAttendees))
	e.ui.Detail("words", fmt.Sprintf("%d (%d min read)", sum.Words, sum.ReadingMinutes))
	e.ui.Detail("tags", strings.Join(sum.Tags, ", "))
}

func (e *env) reportFailures(failures []noteservice.FileError) {
	for _, f := range failures {
		e.ui.Error(f.Path + ": " + f.Message)
	}
}

func entryRows(entries []actions.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, en := range entries {
		state := " "
		switch {
		case en.Completed:
			state = "x"
		case en.Overdue:
			state = "!"
		}
		rows = append(rows, []string{
			state,
			en.Text,
			en.Assignee,
			en.DueDate,
			en.Priority,
			strconv.Itoa(en.Score),
			fmt.Sprintf("%s:%d", en.NotePath, en.LineNumber),
		})
	}
	return rows
}

var entryHeaders = []string{"", "TEXT", "ASSIGNEE", "DUE", "PRIORITY", "SCORE", "NOTE"}

func (e *env) renderEntries(entries []actions.Entry) {
	if len(entries) == 0 {
		e.ui.Success("no matching action items")
		return
	}
	e.ui.Table(entryHeaders, entryRows(entries))
}

func (e *env) renderGroups(groups map[string][]actions.Entry) {
	if len(groups) == 0 {
		e.ui.Success("no matching action items")
		return
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		e.ui.Header(fmt.Sprintf("%s (%d)", k, len(groups[k])))
		e.ui.Table(entryHeaders, entryRows(groups[k]))
	}
}

func (e *env) reportUpdate(cmd *cli.Command, res *noteservice.UpdateResult) error {
	if e.json {
		return writeJSON(cmd, res)
	}
	e.ui.Success("updated " + res.Path)
	e.ui.Detail("backup", res.BackupPath)
	e.ui.Detail("keys", strings.Join(res.Note.Frontmatter.Keys(), ", "))
	return nil
}

func (e *env) renderMoves(moves []noteservice.Move, apply bool) {
	if len(moves) == 0 {
		e.ui.Success("inbox has nothing to file")
		return
	}
	rows := make([][]string, 0, len(moves))
	moved := 0
	for _, m := range moves {
		state := "suggested"
		if m.Applied {
			state = "moved"
			moved++
		} else if apply {
			state = "failed"
		}
		rows = append(rows, []string{
			m.From, m.To, m.Category.String(),
			strconv.FormatFloat(m.Confidence, 'f', 2, 64), state,
		})
	}
	e.ui.Table([]string{"FROM", "TO", "CATEGORY", "CONFIDENCE", "STATE"}, rows)
	if apply {
		e.ui.Success(fmt.Sprintf("moved %d of %d notes", moved, len(moves)))
	}
}

func (e *env) renderProjects(snaps []noteservice.ProjectSnapshot) {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.Project,
			strconv.Itoa(len(s.Notes)),
			strconv.Itoa(s.Pending),
			strconv.Itoa(s.Completed),
			strconv.Itoa(s.Overdue),
		})
	}
	e.ui.Table([]string{"PROJECT", "NOTES", "PENDING", "COMPLETED", "OVERDUE"}, rows)
	e.ui.Success(fmt.Sprintf("index synced, %d project snapshots written", len(snaps)))
}
