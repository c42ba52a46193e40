package insights

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var recommendNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

// twoTxnHistory builds two transactions in distinct months spanning roughly
// 100 days, which is enough history for recommendations. With two amounts x
// and y the category's monthly average is (x+y)/2.
func twoTxnHistory(category string, x, y float64) []Expense {
	return []Expense{
		{Category: category, Amount: x, Date: recommendNow.AddDate(0, 0, -100)},
		{Category: category, Amount: y, Date: recommendNow.AddDate(0, 0, -10)},
	}
}

func TestRecommendBudgets_NoExpenses(t *testing.T) {
	report := RecommendBudgets(nil, nil, recommendNow)
	require.False(t, report.HasData)
	require.NotEmpty(t, report.Message)
	require.Empty(t, report.Recommendations)
}

func TestRecommendBudgets_NotEnoughHistory(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: 500, Date: recommendNow.AddDate(0, 0, -60)},
		{Category: "Food", Amount: 700, Date: recommendNow.AddDate(0, 0, -5)},
	}

	report := RecommendBudgets(expenses, nil, recommendNow)
	require.False(t, report.HasData)
	require.Contains(t, report.Message, "3 months")
}

func TestRecommendBudgets_Buffer(t *testing.T) {
	report := RecommendBudgets(twoTxnHistory("Food", 100, 100), nil, recommendNow)
	require.True(t, report.HasData)
	require.Equal(t, 3, report.MonthsAnalyzed)
	require.Len(t, report.Recommendations, 1)

	rec := report.Recommendations[0]
	require.Equal(t, "Food", rec.Category)
	require.Equal(t, 100.0, rec.CurrentAverage)
	require.Equal(t, math.Round(100*1.15), rec.RecommendedAmount)
	require.Equal(t, 2, rec.DataPoints)
	require.Equal(t, 2, rec.MonthsAnalyzed)
}

func TestRecommendBudgets_ConfidenceBands(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want string
	}{
		{"Zero variance is high", 100, 100, "high"},
		{"CV just below 0.3 is high", 129, 71, "high"},
		{"CV exactly 0.3 is medium", 130, 70, "medium"},
		{"CV just below 0.6 is medium", 159, 41, "medium"},
		{"CV at 0.6 is low", 160, 40, "low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := RecommendBudgets(twoTxnHistory("Food", tt.x, tt.y), nil, recommendNow)
			require.True(t, report.HasData)
			require.Len(t, report.Recommendations, 1)
			require.Equal(t, tt.want, report.Recommendations[0].Confidence)
		})
	}
}

func TestRecommendBudgets_SortedByAmountDesc(t *testing.T) {
	var expenses []Expense
	expenses = append(expenses, twoTxnHistory("Food", 500, 500)...)
	expenses = append(expenses, twoTxnHistory("Travel", 2000, 2000)...)
	expenses = append(expenses, twoTxnHistory("Transport", 100, 100)...)

	report := RecommendBudgets(expenses, nil, recommendNow)
	require.True(t, report.HasData)
	require.Len(t, report.Recommendations, 3)
	require.Equal(t, "Travel", report.Recommendations[0].Category)
	require.Equal(t, "Food", report.Recommendations[1].Category)
	require.Equal(t, "Transport", report.Recommendations[2].Category)

	var sum float64
	for _, rec := range report.Recommendations {
		sum += rec.RecommendedAmount
	}
	require.Equal(t, sum, report.TotalRecommendedBudget)
}

func TestRecommendBudgets_IncomeShare(t *testing.T) {
	incomes := []Income{
		{Source: "Salary", Amount: 90000, Date: recommendNow.AddDate(0, 0, -50)},
	}

	report := RecommendBudgets(twoTxnHistory("Food", 1000, 1000), incomes, recommendNow)
	require.True(t, report.HasData)
	require.Equal(t, 30000.0, report.AvgMonthlyIncome)
	require.Contains(t, report.Recommendations[0].Reasoning, "monthly income")
}

func TestRecommendBudgets_NoIncomeOmitsShare(t *testing.T) {
	report := RecommendBudgets(twoTxnHistory("Food", 1000, 1000), nil, recommendNow)
	require.True(t, report.HasData)
	require.NotContains(t, report.Recommendations[0].Reasoning, "monthly income")
}
