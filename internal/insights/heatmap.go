package insights

import (
	"time"

	"github.com/spendlens/spendlens/logging"
)

type HeatmapCell struct {
	Day     *int    `json:"day"`
	Amount  float64 `json:"amount"`
	HasData bool    `json:"has_data"`
}

type HeatmapGrid struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Weeks     [][]HeatmapCell `json:"weeks"`
	MaxAmount float64         `json:"max_amount"`
}

// BuildCalendarHeatmap lays out one calendar month as rows of seven cells,
// Sunday first. Cells before the first day and after the last day of the
// month carry a nil Day so the UI can render them as blanks. Any failure
// produces a grid with no weeks rather than an error.
func BuildCalendarHeatmap(expenses []Expense, year, month int) (grid HeatmapGrid) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Errorf("heatmap build panicked, returning empty grid: %v", r)
			grid = HeatmapGrid{Year: year, Month: month, Weeks: [][]HeatmapCell{}}
		}
	}()

	grid = HeatmapGrid{Year: year, Month: month, Weeks: [][]HeatmapCell{}}
	if month < 1 || month > 12 {
		return grid
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	grid.MonthName = first.Month().String()

	dailyTotals := make(map[int]float64)
	for _, e := range expenses {
		if !validExpense(e) {
			continue
		}
		if e.Date.Year() != year || int(e.Date.Month()) != month {
			continue
		}
		dailyTotals[e.Date.Day()] += e.Amount
		if dailyTotals[e.Date.Day()] > grid.MaxAmount {
			grid.MaxAmount = dailyTotals[e.Date.Day()]
		}
	}

	week := make([]HeatmapCell, 0, 7)
	for i := 0; i < int(first.Weekday()); i++ {
		week = append(week, HeatmapCell{})
	}
	for day := 1; day <= daysInMonth; day++ {
		d := day
		amount := dailyTotals[day]
		week = append(week, HeatmapCell{Day: &d, Amount: round2(amount), HasData: amount > 0})
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = make([]HeatmapCell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, HeatmapCell{})
		}
		grid.Weeks = append(grid.Weeks, week)
	}

	grid.MaxAmount = round2(grid.MaxAmount)
	return grid
}
