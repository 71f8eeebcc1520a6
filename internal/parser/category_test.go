package parser

import (
	"strings"
	"testing"

	"github.com/starford/paranote/internal/models"
)

func TestCategorize_HigherScoreWins(t *testing.T) {
	body := "The deadline is close. Another deadline follows. Ask the team."
	s := NewScorer(nil, 0)

	scores := s.Scores(body)
	if scores[models.Projects] != 6 || scores[models.Areas] != 2 || scores[models.Resources] != 0 {
		t.Fatalf("scores = %v", scores)
	}

	res := s.Categorize(body, nil)
	if res.Category != models.Projects {
		t.Errorf("category = %v, want projects", res.Category)
	}
	if res.Confidence != 0.75 {
		t.Errorf("confidence = %v, want 0.75", res.Confidence)
	}
	if res.ManualOverride {
		t.Error("heuristic result should not be a manual override")
	}
	if len(res.Alternatives) != 2 || res.Alternatives[0].Category != models.Areas {
		t.Errorf("alternatives = %+v", res.Alternatives)
	}
}

func TestCategorize_EmptyFallsBackToInbox(t *testing.T) {
	res := NewScorer(nil, 0).Categorize("", nil)
	if res.Category != models.Inbox || res.Confidence != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestCategorize_BelowThreshold(t *testing.T) {
	// "link" is a single low-tier hit.
	res := NewScorer(nil, 0).Categorize("a link", nil)
	if res.Category != models.Inbox {
		t.Errorf("category = %v, want inbox", res.Category)
	}
}

func TestCategorize_Override(t *testing.T) {
	fm := models.FrontmatterOf("category", "Archive")
	res := NewScorer(nil, 0).Categorize("deadline deadline deadline", fm)
	if res.Category != models.Archive || res.Confidence != 1.0 || !res.ManualOverride {
		t.Errorf("result = %+v", res)
	}
}

func TestCategorize_UnknownOverrideIgnored(t *testing.T) {
	fm := models.FrontmatterOf("category", "someday")
	res := NewScorer(nil, 0).Categorize("deadline", fm)
	if res.Category != models.Projects || res.ManualOverride {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(strings.Join(res.Reasoning, "\n"), "someday") {
		t.Errorf("reasoning should mention ignored override: %v", res.Reasoning)
	}
}

func TestCategorize_SubstringCounting(t *testing.T) {
	// "projects" contains "project"; "roadmaps" contains "roadmap".
	scores := NewScorer(nil, 0).Scores("projects roadmaps")
	if scores[models.Projects] != 4 {
		t.Errorf("projects score = %d, want 4", scores[models.Projects])
	}
}

func TestCategorize_TieGoesToDeclarationOrder(t *testing.T) {
	kw := map[models.Category]KeywordTiers{
		models.Projects:  {Medium: []string{"alpha"}},
		models.Areas:     {Medium: []string{"beta"}},
		models.Resources: {Medium: []string{"gamma"}},
	}
	s := NewScorer(kw, 0)
	if got := s.Suggest("gamma beta", nil); got != models.Areas {
		t.Errorf("tie = %v, want areas", got)
	}
	if got := s.Suggest("gamma beta alpha", nil); got != models.Projects {
		t.Errorf("three-way tie = %v, want projects", got)
	}
}

func TestCategorize_Deterministic(t *testing.T) {
	s := NewScorer(nil, 0)
	body := "Team review of the research guide before the sprint deadline."
	first := s.Suggest(body, nil)
	for range 20 {
		if got := s.Suggest(body, nil); got != first {
			t.Fatalf("category changed between calls: %v vs %v", first, got)
		}
	}
}
