package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	appErrors "github.com/spendlens/spendlens/errors"
	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/insights"
)

// InMemoryStorage keeps everything in process memory. It backs the tests and
// the STORAGE_DRIVER=memory mode for running without a database.
type InMemoryStorage struct {
	mu       sync.RWMutex
	users    []auth.User
	sessions []auth.Session
	expenses []insights.Expense
	incomes  []insights.Income
	budgets  []insights.Budget
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return "inmemory"
}

func (inMem *InMemoryStorage) SaveUser(ctx context.Context, user auth.User) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for _, u := range inMem.users {
		if u.UserName == user.UserName {
			return appErrors.ErrorResponse{
				Code:    appErrors.ErrConflict,
				Message: "This username is already taken.",
			}
		}
	}
	inMem.users = append(inMem.users, user)
	return nil
}

func (inMem *InMemoryStorage) ValidateUser(ctx context.Context, credentials auth.UserCredentialsPure) (auth.User, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	for _, user := range inMem.users {
		if user.UserName == strings.ToLower(credentials.UserName) {
			if auth.ComparePasswords(user.PasswordHashed, credentials.PasswordPlain) {
				return user, nil
			}
			return auth.User{}, appErrors.ErrorResponse{
				Code:    appErrors.ErrAuth,
				Message: "Username or password is wrong.",
			}
		}
	}
	return auth.User{}, appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: "Username or password is wrong.",
	}
}

func (inMem *InMemoryStorage) IsUserExists(ctx context.Context, username string) (bool, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	for _, user := range inMem.users {
		if user.UserName == strings.ToLower(username) {
			return true, nil
		}
	}
	return false, nil
}

func (inMem *InMemoryStorage) SaveSession(ctx context.Context, session auth.Session) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	inMem.sessions = append(inMem.sessions, session)
	return nil
}

func (inMem *InMemoryStorage) GetSessionByToken(ctx context.Context, token string) (auth.Session, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	for _, session := range inMem.sessions {
		if session.Token == strings.TrimSpace(token) {
			return session, nil
		}
	}
	return auth.Session{}, appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: "Session not found, login again.",
	}
}

func (inMem *InMemoryStorage) CheckSession(ctx context.Context, token string) (string, error) {
	session, err := inMem.GetSessionByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if session.ExpireAt.Before(time.Now().UTC()) {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Session expired, login again.",
		}
	}
	return session.UserID, nil
}

func (inMem *InMemoryStorage) UpdateSession(ctx context.Context, userId string, expireAt time.Time) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for i := range inMem.sessions {
		if inMem.sessions[i].UserID == userId {
			inMem.sessions[i].ExpireAt = expireAt
		}
	}
	return nil
}

func (inMem *InMemoryStorage) LogoutUser(ctx context.Context, userId string, token string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	remaining := inMem.sessions[:0]
	for _, session := range inMem.sessions {
		if session.UserID == userId && session.Token == token {
			continue
		}
		remaining = append(remaining, session)
	}
	inMem.sessions = remaining
	return nil
}

func (inMem *InMemoryStorage) SaveExpense(ctx context.Context, expense insights.Expense) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	inMem.expenses = append(inMem.expenses, expense)
	return nil
}

func (inMem *InMemoryStorage) SaveIncome(ctx context.Context, income insights.Income) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	inMem.incomes = append(inMem.incomes, income)
	return nil
}

func (inMem *InMemoryStorage) GetExpenses(ctx context.Context, userId string, from, to *time.Time) ([]insights.Expense, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	var result []insights.Expense
	for _, expense := range inMem.expenses {
		if expense.CreatedBy != userId {
			continue
		}
		if from != nil && expense.Date.Before(*from) {
			continue
		}
		if to != nil && expense.Date.After(*to) {
			continue
		}
		result = append(result, expense)
	}
	return result, nil
}

func (inMem *InMemoryStorage) GetIncomes(ctx context.Context, userId string, from, to *time.Time) ([]insights.Income, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	var result []insights.Income
	for _, income := range inMem.incomes {
		if income.CreatedBy != userId {
			continue
		}
		if from != nil && income.Date.Before(*from) {
			continue
		}
		if to != nil && income.Date.After(*to) {
			continue
		}
		result = append(result, income)
	}
	return result, nil
}

func (inMem *InMemoryStorage) UpsertBudget(ctx context.Context, budget insights.Budget) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for i := range inMem.budgets {
		if inMem.budgets[i].CreatedBy == budget.CreatedBy && inMem.budgets[i].Category == budget.Category {
			inMem.budgets[i].MonthlyBudget = budget.MonthlyBudget
			return nil
		}
	}
	inMem.budgets = append(inMem.budgets, budget)
	return nil
}

func (inMem *InMemoryStorage) GetBudgets(ctx context.Context, userId string) ([]insights.Budget, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	var result []insights.Budget
	for _, budget := range inMem.budgets {
		if budget.CreatedBy == userId {
			result = append(result, budget)
		}
	}
	return result, nil
}
