package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildCalendarHeatmap_June2025(t *testing.T) {
	// June 2025 starts on a Sunday, so the grid has no leading blanks.
	expenses := []Expense{
		{Category: "Food", Amount: 100, Date: time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)},
		{Category: "Food", Amount: 50, Date: time.Date(2025, time.June, 3, 20, 0, 0, 0, time.UTC)},
		{Category: "Bills", Amount: 80, Date: time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)},
	}

	grid := BuildCalendarHeatmap(expenses, 2025, 6)
	require.Equal(t, 2025, grid.Year)
	require.Equal(t, 6, grid.Month)
	require.Equal(t, "June", grid.MonthName)
	require.Equal(t, 150.0, grid.MaxAmount)
	require.Len(t, grid.Weeks, 5)

	require.NotNil(t, grid.Weeks[0][0].Day)
	require.Equal(t, 1, *grid.Weeks[0][0].Day)

	day3 := grid.Weeks[0][2]
	require.True(t, day3.HasData)
	require.Equal(t, 150.0, day3.Amount)

	day10 := grid.Weeks[1][2]
	require.True(t, day10.HasData)
	require.Equal(t, 80.0, day10.Amount)
}

func TestBuildCalendarHeatmap_RowShape(t *testing.T) {
	// July 2025 starts on a Tuesday: two leading blanks, trailing padding.
	grid := BuildCalendarHeatmap(nil, 2025, 7)
	require.Len(t, grid.Weeks, 5)

	for _, week := range grid.Weeks {
		require.Len(t, week, 7)
	}

	require.Nil(t, grid.Weeks[0][0].Day)
	require.Nil(t, grid.Weeks[0][1].Day)
	require.NotNil(t, grid.Weeks[0][2].Day)
	require.Equal(t, 1, *grid.Weeks[0][2].Day)

	last := grid.Weeks[4]
	require.NotNil(t, last[4].Day)
	require.Equal(t, 31, *last[4].Day)
	require.Nil(t, last[5].Day)
	require.Nil(t, last[6].Day)
}

func TestBuildCalendarHeatmap_DaysAreSequential(t *testing.T) {
	grid := BuildCalendarHeatmap(nil, 2025, 2)

	expected := 1
	for _, week := range grid.Weeks {
		for _, cell := range week {
			if cell.Day == nil {
				continue
			}
			require.Equal(t, expected, *cell.Day)
			expected++
		}
	}
	require.Equal(t, 29, expected) // February 2025 has 28 days
}

func TestBuildCalendarHeatmap_IgnoresOtherMonths(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: 999, Date: time.Date(2025, time.May, 3, 9, 0, 0, 0, time.UTC)},
		{Category: "Food", Amount: 999, Date: time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)},
	}

	grid := BuildCalendarHeatmap(expenses, 2025, 6)
	require.Equal(t, 0.0, grid.MaxAmount)
	for _, week := range grid.Weeks {
		for _, cell := range week {
			require.False(t, cell.HasData)
		}
	}
}

func TestBuildCalendarHeatmap_ZeroAmountDayHasNoData(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: 0, Date: time.Date(2025, time.June, 5, 9, 0, 0, 0, time.UTC)},
	}

	grid := BuildCalendarHeatmap(expenses, 2025, 6)

	day5 := grid.Weeks[0][4]
	require.Equal(t, 5, *day5.Day)
	require.False(t, day5.HasData)
	require.Equal(t, 0.0, day5.Amount)
}

func TestBuildCalendarHeatmap_InvalidMonth(t *testing.T) {
	for _, month := range []int{0, 13, -1} {
		grid := BuildCalendarHeatmap(nil, 2025, month)
		require.Empty(t, grid.Weeks)
		require.Equal(t, month, grid.Month)
	}
}
