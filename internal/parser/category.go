package parser

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/starford/paranote/internal/models"
)

// Tier weights for keyword matches.
const (
	WeightHigh   = 3
	WeightMedium = 2
	WeightLow    = 1
)

// DefaultThreshold is the minimum winning score; below it a note stays in the inbox.
const DefaultThreshold = 2

// overrideKeys are the frontmatter fields that pin a category explicitly.
var overrideKeys = []string{"category", "para"}

// KeywordTiers holds the weighted keywords of one category.
type KeywordTiers struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

// DefaultKeywords returns the built-in keyword tiers for the scored categories.
func DefaultKeywords() map[models.Category]KeywordTiers {
	return map[models.Category]KeywordTiers{
		models.Projects: {
			High:   []string{"deadline", "milestone", "deliverable", "sprint", "launch"},
			Medium: []string{"project", "roadmap", "timeline", "objective", "kickoff"},
			Low:    []string{"todo", "next step", "finish", "ship"},
		},
		models.Areas: {
			High:   []string{"responsibility", "ongoing", "maintain", "routine", "standard"},
			Medium: []string{"team", "process", "health", "finance", "review"},
			Low:    []string{"weekly", "monthly", "habit", "recurring"},
		},
		models.Resources: {
			High:   []string{"reference", "tutorial", "documentation", "research", "how-to"},
			Medium: []string{"article", "book", "course", "guide", "learn"},
			Low:    []string{"link", "idea", "example", "topic"},
		},
	}
}

// scored lists the categories the heuristic can pick, in tie-break order.
var scored = []models.Category{models.Projects, models.Areas, models.Resources}

// Scorer suggests a PARA category from note content.
type Scorer struct {
	keywords  map[models.Category]KeywordTiers
	threshold int
}

// NewScorer creates a Scorer. A nil keyword map selects DefaultKeywords and
// a non-positive threshold selects DefaultThreshold.
func NewScorer(keywords map[models.Category]KeywordTiers, threshold int) *Scorer {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	lowered := make(map[models.Category]KeywordTiers, len(keywords))
	for c, t := range keywords {
		lowered[c] = KeywordTiers{High: lowerAll(t.High), Medium: lowerAll(t.Medium), Low: lowerAll(t.Low)}
	}
	return &Scorer{keywords: lowered, threshold: threshold}
}

// Suggest returns the best category for body.
func (s *Scorer) Suggest(body string, fm *models.Frontmatter) models.Category {
	return s.Categorize(body, fm).Category
}

// Categorize returns the best category with confidence and reasoning.
//
// An explicit category in the frontmatter always wins. Otherwise each scored
// category sums weight times occurrences of its keywords in the lower-cased body.
// Occurrences are substring counts, so "projects" also counts "project".
// Ties go to the category declared first.
func (s *Scorer) Categorize(body string, fm *models.Frontmatter) models.Categorization {
	var reasons []string
	for _, key := range overrideKeys {
		raw := fm.String(key)
		if raw == "" {
			continue
		}
		c, err := models.ParseCategory(raw)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("ignored frontmatter %s %q: not a PARA category", key, raw))
			continue
		}
		return models.Categorization{
			Category:       c,
			Confidence:     1.0,
			Reasoning:      append(reasons, fmt.Sprintf("explicit frontmatter %s: %s", key, c)),
			ManualOverride: true,
		}
	}

	text := strings.ToLower(body)
	scores := make([]models.CategoryScore, 0, len(scored))
	total := 0
	for _, c := range scored {
		tiers, ok := s.keywords[c]
		if !ok {
			continue
		}
		score, hits := scoreTiers(text, tiers)
		total += score
		scores = append(scores, models.CategoryScore{Category: c, Score: score})
		if score > 0 {
			reasons = append(reasons, fmt.Sprintf("%s: score %d from %s", c, score, strings.Join(hits, ", ")))
		}
	}

	best := -1
	for i, sc := range scores {
		if best < 0 || sc.Score > scores[best].Score {
			best = i
		}
	}
	if best < 0 || scores[best].Score < s.threshold {
		return models.Categorization{
			Category:     models.Inbox,
			Confidence:   0,
			Reasoning:    append(reasons, fmt.Sprintf("no category reached threshold %d", s.threshold)),
			Alternatives: rankAlternatives(scores, -1),
		}
	}

	return models.Categorization{
		Category:     scores[best].Category,
		Confidence:   float64(scores[best].Score) / float64(total),
		Reasoning:    reasons,
		Alternatives: rankAlternatives(scores, best),
	}
}

// Scores returns the raw keyword score of every scored category.
func (s *Scorer) Scores(body string) map[models.Category]int {
	text := strings.ToLower(body)
	out := make(map[models.Category]int, len(scored))
	for _, c := range scored {
		if tiers, ok := s.keywords[c]; ok {
			out[c], _ = scoreTiers(text, tiers)
		}
	}
	return out
}

func scoreTiers(text string, t KeywordTiers) (int, []string) {
	score := 0
	var hits []string
	for _, tier := range []struct {
		words  []string
		weight int
	}{{t.High, WeightHigh}, {t.Medium, WeightMedium}, {t.Low, WeightLow}} {
		for _, kw := range tier.words {
			if kw == "" {
				continue
			}
			if n := strings.Count(text, kw); n > 0 {
				score += n * tier.weight
				hits = append(hits, fmt.Sprintf("%q x%d", kw, n))
			}
		}
	}
	return score, hits
}

// rankAlternatives orders every score except skip by score, then declaration order.
func rankAlternatives(scores []models.CategoryScore, skip int) []models.CategoryScore {
	out := make([]models.CategoryScore, 0, len(scores))
	for i, sc := range scores {
		if i != skip {
			out = append(out, sc)
		}
	}
	slices.SortStableFunc(out, func(a, b models.CategoryScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
