package insights

import (
	"math"
	"time"
)

// Expense categories are a fixed set; "Other" is the catch-all and is the
// only one the query parser never binds from keywords.
var Categories = []string{
	"Food",
	"Transport",
	"Shopping",
	"Entertainment",
	"Bills",
	"Health",
	"Education",
	"Travel",
	"Other",
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Expense struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	IsRecurring bool      `json:"is_recurring"`
	Date        time.Time `json:"date"`
	CreatedBy   string    `json:"-"`
}

type Income struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Amount      float64   `json:"amount"`
	Note        string    `json:"note"`
	IsRecurring bool      `json:"is_recurring"`
	Date        time.Time `json:"date"`
	CreatedBy   string    `json:"-"`
}

type Budget struct {
	ID            string  `json:"id"`
	Category      string  `json:"category"`
	MonthlyBudget float64 `json:"monthly_budget"`
	CreatedBy     string  `json:"-"`
}

// validAmount rejects records the CRUD layer let through with a broken
// amount; the engine skips them instead of failing the whole computation.
func validAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0) && amount >= 0
}

func validExpense(e Expense) bool {
	return validAmount(e.Amount) && !e.Date.IsZero()
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// populationStdDev is the plain sqrt(sum((x-mean)^2)/n) deviation around the
// given center, not a sample deviation.
func populationStdDev(values []float64, center float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var varianceSum float64
	for _, v := range values {
		diff := v - center
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(len(values)))
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
