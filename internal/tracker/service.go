package tracker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	appErrors "github.com/spendlens/spendlens/errors"
	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/insights"
	"github.com/google/uuid"
)

const (
	patternWindowSize       = 100
	recommendLookbackMonths = 6
)

type FinanceTracker struct {
	storage     Storage
	StorageType string
}

func NewFinanceTracker(s Storage) FinanceTracker {
	return FinanceTracker{
		storage:     s,
		StorageType: s.GetStorageType(),
	}
}

func (ft *FinanceTracker) SaveUser(ctx context.Context, newUser auth.NewUser) (string, error) {
	if err := newUser.ValidateUserFields(); err != nil {
		return "", err
	}

	isUserExists, err := ft.storage.IsUserExists(ctx, newUser.UserName)
	if err != nil {
		return "", fmt.Errorf("failed to check username availability: %w", err)
	}
	if isUserExists {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrConflict,
			Message: fmt.Sprintf("this '%s' username already taken", newUser.UserName),
		}
	}

	hashedPassword, err := auth.HashPassword(newUser.PasswordPlain)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := auth.User{
		ID:             uuid.New().String(),
		UserName:       strings.ToLower(newUser.UserName),
		FullName:       newUser.FullName,
		Email:          strings.ToLower(newUser.Email),
		PasswordHashed: hashedPassword,
	}

	if err := ft.storage.SaveUser(ctx, user); err != nil {
		return "", fmt.Errorf("failed to registration: %w", err)
	}

	credentials := auth.UserCredentialsPure{
		UserName:      newUser.UserName,
		PasswordPlain: newUser.PasswordPlain,
	}
	token, err := ft.GenerateSession(ctx, credentials)
	if err != nil {
		return "", fmt.Errorf("user created but failed to start session: %w", err)
	}
	return token, nil
}

func (ft *FinanceTracker) GenerateSession(ctx context.Context, credentials auth.UserCredentialsPure) (string, error) {
	user, err := ft.storage.ValidateUser(ctx, credentials)
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	tokenByte := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, tokenByte); err != nil {
		return "", fmt.Errorf("failed to generate new session: %w", err)
	}
	token := hex.EncodeToString(tokenByte)

	now := time.Now().UTC()
	session := auth.Session{
		ID:        uuid.New().String(),
		Token:     token,
		CreatedAt: now,
		ExpireAt:  now.AddDate(0, 3, 0),
		UserID:    user.ID,
	}

	if err := ft.storage.SaveSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return token, nil
}

func (ft *FinanceTracker) CheckSession(ctx context.Context, token string) (string, error) {
	session, err := ft.storage.GetSessionByToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to get session by token: %w", err)
	}

	userId, err := ft.storage.CheckSession(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to check session: %w", err)
	}

	now := time.Now().UTC()
	daysUntilExpiry := int(session.ExpireAt.Sub(now).Hours() / 24)
	if daysUntilExpiry <= 5 {
		if err := ft.storage.UpdateSession(ctx, userId, now.AddDate(0, 1, 0)); err != nil {
			return "", fmt.Errorf("failed to update session: %w", err)
		}
	}
	return userId, nil
}

func (ft *FinanceTracker) LogoutUser(ctx context.Context, token string) error {
	userId, err := ft.storage.CheckSession(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if err := ft.storage.LogoutUser(ctx, userId, token); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

func (ft *FinanceTracker) SaveExpense(ctx context.Context, userId string, req ExpenseRequest) (insights.Expense, error) {
	if !insights.IsValidCategory(req.Category) {
		return insights.Expense{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("invalid category: '%s'", req.Category),
		}
	}
	if req.Amount <= 0 || req.Amount > MAX_AMOUNT_LIMIT {
		return insights.Expense{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "expense amount must be positive and within the allowed limit",
		}
	}
	if len(req.Description) > MAX_DESCRIPTION_LENGTH {
		return insights.Expense{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("description is too long, maximum %d characters allowed", MAX_DESCRIPTION_LENGTH),
		}
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	expense := insights.Expense{
		ID:          uuid.New().String(),
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		IsRecurring: req.IsRecurring,
		Date:        date,
		CreatedBy:   userId,
	}
	if err := ft.storage.SaveExpense(ctx, expense); err != nil {
		return insights.Expense{}, fmt.Errorf("failed to save expense: %w", err)
	}
	return expense, nil
}

func (ft *FinanceTracker) SaveIncome(ctx context.Context, userId string, req IncomeRequest) (insights.Income, error) {
	if req.Source == "" || len(req.Source) > MAX_SOURCE_LENGTH {
		return insights.Income{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "income source is required and must be short",
		}
	}
	if req.Amount <= 0 || req.Amount > MAX_AMOUNT_LIMIT {
		return insights.Income{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "income amount must be positive and within the allowed limit",
		}
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	income := insights.Income{
		ID:          uuid.New().String(),
		Source:      req.Source,
		Amount:      req.Amount,
		Note:        req.Note,
		IsRecurring: req.IsRecurring,
		Date:        date,
		CreatedBy:   userId,
	}
	if err := ft.storage.SaveIncome(ctx, income); err != nil {
		return insights.Income{}, fmt.Errorf("failed to save income: %w", err)
	}
	return income, nil
}

func (ft *FinanceTracker) ListExpenses(ctx context.Context, userId string, from, to *time.Time) ([]insights.Expense, error) {
	expenses, err := ft.storage.GetExpenses(ctx, userId, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	return expenses, nil
}

func (ft *FinanceTracker) UpsertBudget(ctx context.Context, userId string, req BudgetRequest) (insights.Budget, error) {
	if !insights.IsValidCategory(req.Category) {
		return insights.Budget{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("invalid category: '%s'", req.Category),
		}
	}
	if req.MonthlyBudget <= 0 {
		return insights.Budget{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "monthly budget must be greater than 0",
		}
	}

	budget := insights.Budget{
		ID:            uuid.New().String(),
		Category:      req.Category,
		MonthlyBudget: req.MonthlyBudget,
		CreatedBy:     userId,
	}
	if err := ft.storage.UpsertBudget(ctx, budget); err != nil {
		return insights.Budget{}, fmt.Errorf("failed to save budget: %w", err)
	}
	return budget, nil
}

func (ft *FinanceTracker) GetBudgets(ctx context.Context, userId string) ([]insights.Budget, error) {
	budgets, err := ft.storage.GetBudgets(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get budgets: %w", err)
	}
	return budgets, nil
}

func (ft *FinanceTracker) SpendingScore(ctx context.Context, userId string, now time.Time) (ScoreResult, error) {
	expenses, err := ft.storage.GetExpenses(ctx, userId, nil, nil)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("failed to get expenses for score: %w", err)
	}

	score := insights.CalculateSpendingScore(expenses, now)
	rating, color := insights.ScoreRating(score)
	return ScoreResult{
		Score:    score,
		MaxScore: 100,
		Rating:   rating,
		Color:    color,
	}, nil
}

// Patterns runs detection over the user's 100 most recent expenses.
func (ft *FinanceTracker) Patterns(ctx context.Context, userId string, now time.Time) ([]insights.Pattern, error) {
	expenses, err := ft.storage.GetExpenses(ctx, userId, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses for patterns: %w", err)
	}

	sort.Slice(expenses, func(i, j int) bool { return expenses[i].Date.After(expenses[j].Date) })
	if len(expenses) > patternWindowSize {
		expenses = expenses[:patternWindowSize]
	}
	return insights.DetectPatterns(expenses, now), nil
}

func (ft *FinanceTracker) Predictions(ctx context.Context, userId string, months int, now time.Time) ([]insights.Prediction, error) {
	expenses, err := ft.storage.GetExpenses(ctx, userId, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses for predictions: %w", err)
	}
	return insights.ForecastExpenses(expenses, months, now), nil
}

func (ft *FinanceTracker) Heatmap(ctx context.Context, userId string, year, month int) (insights.HeatmapGrid, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	expenses, err := ft.storage.GetExpenses(ctx, userId, &from, &to)
	if err != nil {
		return insights.HeatmapGrid{}, fmt.Errorf("failed to get expenses for heatmap: %w", err)
	}
	return insights.BuildCalendarHeatmap(expenses, year, month), nil
}

func (ft *FinanceTracker) BudgetRecommendations(ctx context.Context, userId string, now time.Time) (insights.BudgetReport, error) {
	from := now.AddDate(0, -recommendLookbackMonths, 0)

	expenses, err := ft.storage.GetExpenses(ctx, userId, &from, nil)
	if err != nil {
		return insights.BudgetReport{}, fmt.Errorf("failed to get expenses for recommendations: %w", err)
	}
	incomes, err := ft.storage.GetIncomes(ctx, userId, &from, nil)
	if err != nil {
		return insights.BudgetReport{}, fmt.Errorf("failed to get incomes for recommendations: %w", err)
	}
	return insights.RecommendBudgets(expenses, incomes, now), nil
}

// Search parses a natural-language query and applies the resulting filter.
// The date range is pushed down to storage; category, amount and keyword
// constraints are applied in-process.
func (ft *FinanceTracker) Search(ctx context.Context, userId string, query string, now time.Time) (SearchResult, error) {
	filter, err := insights.ParseQuery(query, now)
	if err != nil {
		return SearchResult{}, err
	}

	expenses, err := ft.storage.GetExpenses(ctx, userId, filter.StartDate, filter.EndDate)
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to search expenses: %w", err)
	}

	matches := make([]insights.Expense, 0, len(expenses))
	for _, e := range expenses {
		if matchesFilter(e, filter) {
			matches = append(matches, e)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Date.After(matches[j].Date) })

	var total float64
	for _, e := range matches {
		total += e.Amount
	}

	return SearchResult{
		Query:       query,
		Filter:      filter,
		FilterLabel: filterLabel(filter),
		Matches:     matches,
		Count:       len(matches),
		Total:       total,
	}, nil
}

// matchesFilter checks the in-process constraints. Keywords only apply when
// no category was bound; a category hit already explains those words.
func matchesFilter(e insights.Expense, filter insights.QueryFilter) bool {
	if filter.Category != "" && e.Category != filter.Category {
		return false
	}
	if filter.MinAmount != nil && e.Amount < *filter.MinAmount {
		return false
	}
	if filter.MaxAmount != nil && e.Amount > *filter.MaxAmount {
		return false
	}
	if filter.Category == "" && len(filter.DescriptionKeywords) > 0 {
		haystack := strings.ToLower(e.Description + " " + e.Category)
		found := false
		for _, kw := range filter.DescriptionKeywords {
			if strings.Contains(haystack, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func filterLabel(filter insights.QueryFilter) string {
	switch {
	case filter.Category != "":
		return filter.Category
	case filter.TimePeriod != "":
		return filter.TimePeriod
	default:
		return "custom"
	}
}

// Chat answers a small set of direct questions; everything else gets a help
// reply so the client always has something to show.
func (ft *FinanceTracker) Chat(ctx context.Context, userId string, message string, now time.Time) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Message cannot be empty!",
		}
	}

	from := now.AddDate(0, -recommendLookbackMonths, 0)
	expenses, err := ft.storage.GetExpenses(ctx, userId, &from, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get expenses for chat: %w", err)
	}
	incomes, err := ft.storage.GetIncomes(ctx, userId, &from, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get incomes for chat: %w", err)
	}

	if answer, ok := insights.AnswerChat(message, expenses, incomes, now); ok {
		return answer, nil
	}
	return "I can answer questions like \"how much did I spend on food this month\", " +
		"\"can I afford ₹5000\", \"what are my top categories\", \"show my recent expenses\" " +
		"or \"what is my balance\".", nil
}
