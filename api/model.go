package api

import (
	"errors"

	appErrors "github.com/spendlens/spendlens/errors"
	"github.com/spendlens/spendlens/internal/insights"
	"github.com/spendlens/spendlens/internal/tracker"
)

// REQUESTS START:

type SaveUserRequest struct {
	UserName string `json:"username"`
	FullName string `json:"fullname"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type UserLoginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type SaveExpenseRequest struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	IsRecurring bool    `json:"is_recurring"`
	Date        string  `json:"date"` // "2006-01-02", today when empty
}

type SaveIncomeRequest struct {
	Source      string  `json:"source"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note"`
	IsRecurring bool    `json:"is_recurring"`
	Date        string  `json:"date"`
}

type SaveBudgetRequest struct {
	Category      string  `json:"category"`
	MonthlyBudget float64 `json:"monthly_budget"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

// REQUESTS END:

// RESPONSES:

type UserCreatedResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ScoreResponse struct {
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Rating   string `json:"rating"`
	Color    string `json:"color"`
}

type PatternsResponse struct {
	Patterns []insights.Pattern `json:"patterns"`
}

type PredictionsResponse struct {
	Predictions []insights.Prediction `json:"predictions"`
}

type ExpenseListResponse struct {
	Expenses []insights.Expense `json:"expenses"`
}

type BudgetListResponse struct {
	Budgets []insights.Budget `json:"budgets"`
}

type SearchResponse struct {
	Query       string               `json:"query"`
	Filter      insights.QueryFilter `json:"filter"`
	FilterLabel string               `json:"filter_label"`
	Expenses    []insights.Expense   `json:"expenses"`
	Count       int                  `json:"count"`
	Total       float64              `json:"total"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

func SearchResultToHttp(result tracker.SearchResult) SearchResponse {
	return SearchResponse{
		Query:       result.Query,
		Filter:      result.Filter,
		FilterLabel: result.FilterLabel,
		Expenses:    result.Matches,
		Count:       result.Count,
		Total:       result.Total,
	}
}

func httpStatusFromError(err error) int {
	var appErr appErrors.ErrorResponse
	if !errors.As(err, &appErr) {
		return 500
	}

	switch appErr.Code {
	case appErrors.ErrNotFound:
		return 404 // not found
	case appErrors.ErrInvalidInput:
		return 400 // bad request
	case appErrors.ErrAuth:
		return 401 // unauthorized
	case appErrors.ErrAccessDenied:
		return 403 // access denied
	case appErrors.ErrConflict:
		return 409 // conflict
	default:
		return 500 // internal error
	}
}
