package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/spendlens/spendlens/logging"
)

const (
	PatternWeekendSplurging = "weekend_splurging"
	PatternImpulseBuying    = "impulse_buying"
	PatternCategorySpike    = "category_spike"
)

type Pattern struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Suggestion  string `json:"suggestion"`
}

// DetectPatterns scans a window of recent expenses (callers pass the most
// recent records first, typically capped at 100) for behavioral signals.
// It never fails: a panic mid-way returns whatever patterns were already
// collected.
func DetectPatterns(recent []Expense, now time.Time) (patterns []Pattern) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Errorf("pattern detection panicked, returning partial result: %v", r)
		}
	}()

	patterns = []Pattern{}

	if p, ok := detectWeekendSplurging(recent); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectImpulseBuying(recent); ok {
		patterns = append(patterns, p)
	}
	patterns = append(patterns, detectCategorySpikes(recent, now)...)

	return patterns
}

// detectWeekendSplurging compares weekend vs weekday spend over the 30 most
// recent records only, so one unusual weekend months ago cannot trigger it.
func detectWeekendSplurging(recent []Expense) (Pattern, bool) {
	window := recent
	if len(window) > 30 {
		window = window[:30]
	}

	var weekendTotal, weekdayTotal float64
	for _, e := range window {
		if !validExpense(e) {
			continue
		}
		switch e.Date.Weekday() {
		case time.Saturday, time.Sunday:
			weekendTotal += e.Amount
		default:
			weekdayTotal += e.Amount
		}
	}

	if weekdayTotal > 0 && weekendTotal > 1.5*weekdayTotal {
		return Pattern{
			Type:        PatternWeekendSplurging,
			Description: "Your weekend spending is significantly higher than your weekday spending.",
			Impact:      "Medium",
			Suggestion:  "Set a weekend budget before Saturday and plan free activities to balance things out.",
		}, true
	}
	return Pattern{}, false
}

func detectImpulseBuying(recent []Expense) (Pattern, bool) {
	count := 0
	for _, e := range recent {
		if validAmount(e.Amount) && e.Amount < 500 {
			count++
		}
	}

	if count > 8 {
		return Pattern{
			Type:        PatternImpulseBuying,
			Description: fmt.Sprintf("You made %d small purchases recently, which can add up quickly.", count),
			Impact:      "Medium",
			Suggestion:  "Try the 24-hour rule: wait a day before small unplanned purchases.",
		}, true
	}
	return Pattern{}, false
}

// detectCategorySpikes flags every category whose current-month spend exceeds
// twice the mean of all per-category sums for the month.
func detectCategorySpikes(recent []Expense, now time.Time) []Pattern {
	totals := make(map[string]float64)
	for _, e := range recent {
		if !validExpense(e) {
			continue
		}
		if e.Date.Year() != now.Year() || e.Date.Month() != now.Month() {
			continue
		}
		totals[e.Category] += e.Amount
	}
	if len(totals) == 0 {
		return nil
	}

	var sum float64
	for _, t := range totals {
		sum += t
	}
	mean := sum / float64(len(totals))

	categories := make([]string, 0, len(totals))
	for category := range totals {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var spikes []Pattern
	for _, category := range categories {
		if total := totals[category]; total > 2*mean {
			spikes = append(spikes, Pattern{
				Type:        PatternCategorySpike,
				Description: fmt.Sprintf("Spending on %s this month is far above your usual category average.", category),
				Impact:      "Medium",
				Suggestion:  fmt.Sprintf("Review your %s expenses this month and check for one-offs you can avoid next month.", category),
			})
		}
	}
	return spikes
}
