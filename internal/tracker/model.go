package tracker

import (
	"context"
	"time"

	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/insights"
)

const (
	MAX_AMOUNT_LIMIT       = 999999999999999999
	MAX_DESCRIPTION_LENGTH = 1000
	MAX_SOURCE_LENGTH      = 255
)

// Storage is the persistence boundary of the tracker. Both the MySQL and the
// in-memory implementations satisfy it.
type Storage interface {
	SaveUser(ctx context.Context, user auth.User) error
	ValidateUser(ctx context.Context, credentials auth.UserCredentialsPure) (auth.User, error)
	IsUserExists(ctx context.Context, username string) (bool, error)
	SaveSession(ctx context.Context, session auth.Session) error
	GetSessionByToken(ctx context.Context, token string) (auth.Session, error)
	CheckSession(ctx context.Context, token string) (userId string, err error)
	UpdateSession(ctx context.Context, userId string, expireAt time.Time) error
	LogoutUser(ctx context.Context, userId string, token string) error
	SaveExpense(ctx context.Context, expense insights.Expense) error
	SaveIncome(ctx context.Context, income insights.Income) error
	GetExpenses(ctx context.Context, userId string, from, to *time.Time) ([]insights.Expense, error)
	GetIncomes(ctx context.Context, userId string, from, to *time.Time) ([]insights.Income, error)
	UpsertBudget(ctx context.Context, budget insights.Budget) error
	GetBudgets(ctx context.Context, userId string) ([]insights.Budget, error)
	GetStorageType() string
}

type ExpenseRequest struct {
	Category    string
	Amount      float64
	Description string
	IsRecurring bool
	Date        time.Time
}

type IncomeRequest struct {
	Source      string
	Amount      float64
	Note        string
	IsRecurring bool
	Date        time.Time
}

type BudgetRequest struct {
	Category      string
	MonthlyBudget float64
}

type ScoreResult struct {
	Score    int
	MaxScore int
	Rating   string
	Color    string
}

// SearchResult carries the parsed filter back so the client can show which
// constraints were understood.
type SearchResult struct {
	Query       string
	Filter      insights.QueryFilter
	FilterLabel string
	Matches     []insights.Expense
	Count       int
	Total       float64
}
