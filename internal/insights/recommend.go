package insights

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const minRecommendMonths = 3

type Recommendation struct {
	Category          string  `json:"category"`
	RecommendedAmount float64 `json:"recommended_amount"`
	CurrentAverage    float64 `json:"current_average"`
	Confidence        string  `json:"confidence"`
	Reasoning         string  `json:"reasoning"`
	DataPoints        int     `json:"data_points"`
	MonthsAnalyzed    int     `json:"months_analyzed"`
}

type BudgetReport struct {
	HasData                bool             `json:"has_data"`
	Message                string           `json:"message,omitempty"`
	MonthsAnalyzed         int              `json:"months_analyzed"`
	TotalRecommendedBudget float64          `json:"total_recommended_budget"`
	AvgMonthlyIncome       float64          `json:"avg_monthly_income"`
	Recommendations        []Recommendation `json:"recommendations"`
}

// RecommendBudgets derives per-category monthly budget suggestions from
// spending history. It needs at least three months of data; with less it
// returns a report with HasData=false and a message the UI can show as-is.
func RecommendBudgets(expenses []Expense, incomes []Income, now time.Time) BudgetReport {
	report := BudgetReport{Recommendations: []Recommendation{}}

	valid := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if validExpense(e) {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		report.Message = "Not enough spending history yet. Add expenses for a few months to get budget recommendations."
		return report
	}

	oldest := valid[0].Date
	for _, e := range valid[1:] {
		if e.Date.Before(oldest) {
			oldest = e.Date
		}
	}
	monthsAvailable := int(now.Sub(oldest).Hours()/24) / 30
	if monthsAvailable < minRecommendMonths {
		report.Message = fmt.Sprintf("Need at least %d months of history for reliable recommendations; you have about %d.", minRecommendMonths, monthsAvailable)
		return report
	}

	// Per category: total spend, per-transaction amounts and the set of
	// distinct months the category was active in.
	type categoryStats struct {
		total   float64
		amounts []float64
		months  map[string]struct{}
	}
	stats := make(map[string]*categoryStats)
	for _, e := range valid {
		s, ok := stats[e.Category]
		if !ok {
			s = &categoryStats{months: make(map[string]struct{})}
			stats[e.Category] = s
		}
		s.total += e.Amount
		s.amounts = append(s.amounts, e.Amount)
		s.months[monthKey(e.Date)] = struct{}{}
	}

	var totalIncome float64
	for _, in := range incomes {
		if validAmount(in.Amount) {
			totalIncome += in.Amount
		}
	}
	avgMonthlyIncome := totalIncome / float64(monthsAvailable)

	var recommendations []Recommendation
	var totalRecommended float64
	for category, s := range stats {
		activeMonths := len(s.months)
		avgMonthly := s.total / float64(activeMonths)
		if avgMonthly == 0 {
			continue
		}

		stdDev := populationStdDev(s.amounts, avgMonthly)
		cv := stdDev / avgMonthly

		var confidence, caveat string
		switch {
		case cv < 0.3:
			confidence = "high"
			caveat = "Your spending here is consistent, so this budget should work well."
		case cv < 0.6:
			confidence = "medium"
			caveat = "There is moderate variance in this category, so a 15% buffer is added."
		default:
			confidence = "low"
			caveat = "Spending here varies a lot month to month; review this one closely."
		}

		recommended := math.Round(avgMonthly * 1.15)
		reasoning := fmt.Sprintf("Based on your average %s spend of %.2f per month over %d active months. %s",
			category, round2(avgMonthly), activeMonths, caveat)
		if avgMonthlyIncome > 0 {
			reasoning += fmt.Sprintf(" This is about %.1f%% of your monthly income.", recommended/avgMonthlyIncome*100)
		}

		recommendations = append(recommendations, Recommendation{
			Category:          category,
			RecommendedAmount: recommended,
			CurrentAverage:    round2(avgMonthly),
			Confidence:        confidence,
			Reasoning:         reasoning,
			DataPoints:        len(s.amounts),
			MonthsAnalyzed:    activeMonths,
		})
		totalRecommended += recommended
	}

	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].RecommendedAmount != recommendations[j].RecommendedAmount {
			return recommendations[i].RecommendedAmount > recommendations[j].RecommendedAmount
		}
		return recommendations[i].Category < recommendations[j].Category
	})

	report.HasData = true
	report.MonthsAnalyzed = monthsAvailable
	report.TotalRecommendedBudget = totalRecommended
	report.AvgMonthlyIncome = round2(avgMonthlyIncome)
	report.Recommendations = recommendations
	return report
}
