package insights

import (
	"math"
	"time"

	"github.com/spendlens/spendlens/logging"
)

const (
	defaultScore  = 80 // optimistic default when there is nothing to judge yet
	baseScore     = 70
	fallbackScore = 70
)

// scoreFeatures is the small feature vector the scoring rules run over.
type scoreFeatures struct {
	ValidCount     int
	StdDev         float64
	CategoryCount  int
	RecentCount    int
	HighValueCount int
}

type scoreRule struct {
	name    string
	applies func(scoreFeatures) bool
	delta   float64
}

// The rules are additive and independent; order only matters for readability.
var scoreRules = []scoreRule{
	{
		name:    "stable spending",
		applies: func(f scoreFeatures) bool { return f.ValidCount >= 2 && f.StdDev < 1000 },
		delta:   5,
	},
	{
		name:    "volatile spending",
		applies: func(f scoreFeatures) bool { return f.ValidCount >= 2 && f.StdDev > 5000 },
		delta:   -10,
	},
	{
		name:    "diverse categories",
		applies: func(f scoreFeatures) bool { return f.CategoryCount >= 3 },
		delta:   5,
	},
	{
		name:    "single category",
		applies: func(f scoreFeatures) bool { return f.CategoryCount == 1 },
		delta:   -5,
	},
	{
		name:    "high recent velocity",
		applies: func(f scoreFeatures) bool { return f.RecentCount > 10 },
		delta:   -8,
	},
	{
		name:    "frequent high-value purchases",
		applies: func(f scoreFeatures) bool { return f.HighValueCount > 3 },
		delta:   -7,
	},
}

// CalculateSpendingScore maps an expense set to a 0-100 financial health
// score. It never fails: an empty set scores the optimistic default and any
// internal panic degrades to the fallback score.
func CalculateSpendingScore(expenses []Expense, now time.Time) (score int) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Errorf("spending score computation panicked, returning fallback: %v", r)
			score = fallbackScore
		}
	}()

	valid := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if validAmount(e.Amount) {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return defaultScore
	}

	features := computeScoreFeatures(valid, now)

	total := float64(baseScore)
	for _, rule := range scoreRules {
		if rule.applies(features) {
			total += rule.delta
		}
	}

	return int(math.Round(math.Min(100, math.Max(0, total))))
}

func computeScoreFeatures(valid []Expense, now time.Time) scoreFeatures {
	features := scoreFeatures{ValidCount: len(valid)}

	amounts := make([]float64, 0, len(valid))
	categories := make(map[string]struct{})
	weekAgo := now.AddDate(0, 0, -7)

	for _, e := range valid {
		amounts = append(amounts, e.Amount)
		if e.Category != "" {
			categories[e.Category] = struct{}{}
		}
		if !e.Date.IsZero() && e.Date.After(weekAgo) && !e.Date.After(now) {
			features.RecentCount++
		}
		if e.Amount > 5000 {
			features.HighValueCount++
		}
	}

	if len(amounts) >= 2 {
		features.StdDev = populationStdDev(amounts, meanOf(amounts))
	}
	features.CategoryCount = len(categories)

	return features
}

// ScoreRating maps a score to the dashboard rating label and its hex color.
func ScoreRating(score int) (rating string, color string) {
	switch {
	case score >= 80:
		return "Excellent", "#4CAF50"
	case score >= 60:
		return "Good", "#8BC34A"
	case score >= 40:
		return "Fair", "#FFC107"
	default:
		return "Needs Improvement", "#F44336"
	}
}
