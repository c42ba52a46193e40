package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var forecastNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

// monthlyExpenses spreads total over count records inside the given month.
func monthlyExpenses(year int, month time.Month, total float64, count int) []Expense {
	expenses := make([]Expense, 0, count)
	per := total / float64(count)
	for i := 0; i < count; i++ {
		expenses = append(expenses, Expense{
			Category: "Food",
			Amount:   per,
			Date:     time.Date(year, month, 2+i, 10, 0, 0, 0, time.UTC),
		})
	}
	return expenses
}

func TestForecastExpenses_WeightedAverage(t *testing.T) {
	var expenses []Expense
	expenses = append(expenses, monthlyExpenses(2025, time.January, 1000, 4)...)
	expenses = append(expenses, monthlyExpenses(2025, time.February, 1200, 3)...)
	expenses = append(expenses, monthlyExpenses(2025, time.March, 1100, 2)...)
	expenses = append(expenses, monthlyExpenses(2025, time.April, 1300, 2)...)

	predictions := ForecastExpenses(expenses, 3, forecastNow)
	require.Len(t, predictions, 3)

	// base = 1000*0.1 + 1200*0.2 + 1100*0.3 + 1300*0.4 = 1190
	require.Equal(t, "2025-07", predictions[0].Month)
	require.Equal(t, 1249.50, predictions[0].PredictedAmount)
	require.Equal(t, "medium", predictions[0].Confidence)

	require.Equal(t, "2025-08", predictions[1].Month)
	require.InDelta(t, 1311.98, predictions[1].PredictedAmount, 0.01)

	require.Equal(t, "2025-09", predictions[2].Month)
	require.InDelta(t, 1377.57, predictions[2].PredictedAmount, 0.01)
}

func TestForecastExpenses_TooFewRecords(t *testing.T) {
	var expenses []Expense
	expenses = append(expenses, monthlyExpenses(2025, time.March, 1000, 3)...)
	expenses = append(expenses, monthlyExpenses(2025, time.April, 1000, 3)...)
	expenses = append(expenses, monthlyExpenses(2025, time.May, 1000, 3)...)

	require.Empty(t, ForecastExpenses(expenses, 3, forecastNow))
}

func TestForecastExpenses_TooFewMonths(t *testing.T) {
	var expenses []Expense
	expenses = append(expenses, monthlyExpenses(2025, time.April, 2000, 6)...)
	expenses = append(expenses, monthlyExpenses(2025, time.May, 2000, 6)...)

	require.Empty(t, ForecastExpenses(expenses, 3, forecastNow))
}

func TestForecastExpenses_ThreeMonthsIsLowConfidence(t *testing.T) {
	var expenses []Expense
	expenses = append(expenses, monthlyExpenses(2025, time.March, 1000, 4)...)
	expenses = append(expenses, monthlyExpenses(2025, time.April, 2000, 3)...)
	expenses = append(expenses, monthlyExpenses(2025, time.May, 3000, 3)...)

	predictions := ForecastExpenses(expenses, 3, forecastNow)
	require.Len(t, predictions, 3)

	// weights renormalized to [0.2 0.3 0.4]/0.9, base = 2222.22
	require.InDelta(t, 2333.33, predictions[0].PredictedAmount, 0.01)
	for _, p := range predictions {
		require.Equal(t, "low", p.Confidence)
	}
}

func TestForecastExpenses_KeepsLastSixMonths(t *testing.T) {
	var expenses []Expense
	// An enormous old month outside the six-month window must not leak in.
	expenses = append(expenses, monthlyExpenses(2024, time.October, 1000000, 2)...)
	for m := time.November; m <= time.December; m++ {
		expenses = append(expenses, monthlyExpenses(2024, m, 1000, 2)...)
	}
	for m := time.January; m <= time.April; m++ {
		expenses = append(expenses, monthlyExpenses(2025, m, 1000, 2)...)
	}

	predictions := ForecastExpenses(expenses, 1, forecastNow)
	require.Len(t, predictions, 1)
	require.InDelta(t, 1050.00, predictions[0].PredictedAmount, 0.01)
}

func TestForecastExpenses_DefaultHorizon(t *testing.T) {
	var expenses []Expense
	expenses = append(expenses, monthlyExpenses(2025, time.February, 1000, 3)...)
	expenses = append(expenses, monthlyExpenses(2025, time.March, 1000, 3)...)
	expenses = append(expenses, monthlyExpenses(2025, time.April, 1000, 4)...)

	require.Len(t, ForecastExpenses(expenses, 0, forecastNow), DefaultForecastMonths)
}
