package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/0xcafe-io/iz"
	"github.com/google/uuid"

	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/contextutil"
	"github.com/spendlens/spendlens/internal/tracker"
	"github.com/spendlens/spendlens/logging"
)

const dateLayout = "2006-01-02"

type Api struct {
	Service *tracker.FinanceTracker
}

func NewApi(service *tracker.FinanceTracker) *Api {
	return &Api{
		Service: service,
	}
}

// authorize checks the Authorization header and returns a trace-tagged
// context plus the session's user. A non-nil responder means the request
// must be rejected with it.
func (api *Api) authorize(r *iz.Request) (context.Context, string, iz.Responder) {
	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())

	token := r.Header.Get("Authorization")
	if token == "" {
		msg := "authorization failed: Authorization header is required."
		return ctx, "", iz.Respond().Status(401).Text(msg)
	}

	userId, err := api.Service.CheckSession(ctx, token)
	if err != nil {
		msg := fmt.Sprintf("authorization failed: %s", err.Error())
		return ctx, "", iz.Respond().Status(401).Text(msg)
	}
	return ctx, userId, nil
}

func (api *Api) SaveUserHandler(r *iz.Request) iz.Responder {
	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())

	var newUserReq SaveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&newUserReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	newUser := auth.NewUser{
		UserName:      newUserReq.UserName,
		FullName:      newUserReq.FullName,
		PasswordPlain: newUserReq.Password,
		Email:         newUserReq.Email,
	}

	if err := newUser.ValidateUserFields(); err != nil {
		return iz.Respond().Status(httpStatusFromError(err)).Text(err.Error())
	}

	token, err := api.Service.SaveUser(ctx, newUser)
	if err != nil {
		msg := fmt.Sprintf("registration failed: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := UserCreatedResponse{
		Message: "Registration Completed",
		Token:   token,
	}
	return iz.Respond().Status(201).JSON(resp)
}

func (api *Api) LoginUserHandler(r *iz.Request) iz.Responder {
	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())

	var loginReq UserLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).Text(msg)
	}

	token, err := api.Service.GenerateSession(ctx, auth.UserCredentialsPure{
		UserName:      loginReq.UserName,
		PasswordPlain: loginReq.Password,
	})
	if err != nil {
		msg := fmt.Sprintf("login failed: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := LoginResponse{
		Message: "Login Completed",
		Token:   token,
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) LogoutUserHandler(r *iz.Request) iz.Responder {
	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())

	token := r.Header.Get("Authorization")
	if token == "" {
		msg := "authorization failed: Authorization header is required."
		return iz.Respond().Status(401).Text(msg)
	}

	if err := api.Service.LogoutUser(ctx, token); err != nil {
		msg := fmt.Sprintf("logout failed: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).Text("logout completed")
}

func (api *Api) SaveExpenseHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var req SaveExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.Logger.Errorf("Failed to parse save expense request: %v", err)
		msg := fmt.Sprintf("failed to parse save expense request: %v", err)
		return iz.Respond().Status(400).Text(msg)
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			msg := fmt.Sprintf("invalid date: '%s', expected format %s", req.Date, dateLayout)
			return iz.Respond().Status(400).Text(msg)
		}
		date = parsed
	}

	expense, err := api.Service.SaveExpense(ctx, userId, tracker.ExpenseRequest{
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		IsRecurring: req.IsRecurring,
		Date:        date,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to create expense: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(201).JSON(expense)
}

func (api *Api) GetExpensesHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	params := r.URL.Query()
	var from, to *time.Time
	if fromStr := params.Get("from"); fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			msg := fmt.Sprintf("invalid from date: '%s'", fromStr)
			return iz.Respond().Status(400).Text(msg)
		}
		from = &parsed
	}
	if toStr := params.Get("to"); toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			msg := fmt.Sprintf("invalid to date: '%s'", toStr)
			return iz.Respond().Status(400).Text(msg)
		}
		to = &parsed
	}

	expenses, err := api.Service.ListExpenses(ctx, userId, from, to)
	if err != nil {
		msg := fmt.Sprintf("failed to get expenses: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(ExpenseListResponse{Expenses: expenses})
}

func (api *Api) SaveIncomeHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var req SaveIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := fmt.Sprintf("failed to parse save income request: %v", err)
		return iz.Respond().Status(400).Text(msg)
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			msg := fmt.Sprintf("invalid date: '%s', expected format %s", req.Date, dateLayout)
			return iz.Respond().Status(400).Text(msg)
		}
		date = parsed
	}

	income, err := api.Service.SaveIncome(ctx, userId, tracker.IncomeRequest{
		Source:      req.Source,
		Amount:      req.Amount,
		Note:        req.Note,
		IsRecurring: req.IsRecurring,
		Date:        date,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to create income: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(201).JSON(income)
}

func (api *Api) SaveBudgetHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var req SaveBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := fmt.Sprintf("failed to parse save budget request: %v", err)
		return iz.Respond().Status(400).Text(msg)
	}

	budget, err := api.Service.UpsertBudget(ctx, userId, tracker.BudgetRequest{
		Category:      req.Category,
		MonthlyBudget: req.MonthlyBudget,
	})
	if err != nil {
		msg := fmt.Sprintf("failed to save budget: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(budget)
}

func (api *Api) GetBudgetsHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	budgets, err := api.Service.GetBudgets(ctx, userId)
	if err != nil {
		msg := fmt.Sprintf("failed to get budgets: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(BudgetListResponse{Budgets: budgets})
}

func (api *Api) GetSpendingScoreHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	result, err := api.Service.SpendingScore(ctx, userId, time.Now().UTC())
	if err != nil {
		msg := fmt.Sprintf("failed to compute spending score: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}

	resp := ScoreResponse{
		Score:    result.Score,
		MaxScore: result.MaxScore,
		Rating:   result.Rating,
		Color:    result.Color,
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) GetPatternsHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	patterns, err := api.Service.Patterns(ctx, userId, time.Now().UTC())
	if err != nil {
		msg := fmt.Sprintf("failed to detect patterns: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(PatternsResponse{Patterns: patterns})
}

func (api *Api) GetPredictionsHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	months := 0
	if monthsStr := r.URL.Query().Get("months"); monthsStr != "" {
		parsed, err := strconv.Atoi(monthsStr)
		if err != nil || parsed < 1 || parsed > 12 {
			msg := fmt.Sprintf("invalid months parameter: '%s'", monthsStr)
			return iz.Respond().Status(400).Text(msg)
		}
		months = parsed
	}

	predictions, err := api.Service.Predictions(ctx, userId, months, time.Now().UTC())
	if err != nil {
		msg := fmt.Sprintf("failed to forecast expenses: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(PredictionsResponse{Predictions: predictions})
}

func (api *Api) GetHeatmapHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	now := time.Now().UTC()
	year := now.Year()
	month := int(now.Month())

	params := r.URL.Query()
	if yearStr := params.Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			msg := fmt.Sprintf("invalid year parameter: '%s'", yearStr)
			return iz.Respond().Status(400).Text(msg)
		}
		year = parsed
	}
	if monthStr := params.Get("month"); monthStr != "" {
		parsed, err := strconv.Atoi(monthStr)
		if err != nil || parsed < 1 || parsed > 12 {
			msg := fmt.Sprintf("invalid month parameter: '%s'", monthStr)
			return iz.Respond().Status(400).Text(msg)
		}
		month = parsed
	}

	grid, err := api.Service.Heatmap(ctx, userId, year, month)
	if err != nil {
		msg := fmt.Sprintf("failed to build heatmap: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(grid)
}

func (api *Api) GetBudgetRecommendationsHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	report, err := api.Service.BudgetRecommendations(ctx, userId, time.Now().UTC())
	if err != nil {
		msg := fmt.Sprintf("failed to build budget recommendations: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(report)
}

func (api *Api) SearchHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := fmt.Sprintf("failed to parse search request: %v", err)
		return iz.Respond().Status(400).Text(msg)
	}

	result, err := api.Service.Search(ctx, userId, req.Query, time.Now().UTC())
	if err != nil {
		msg := fmt.Sprintf("search failed: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(SearchResultToHttp(result))
}

func (api *Api) ChatHandler(r *iz.Request) iz.Responder {
	ctx, userId, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := fmt.Sprintf("failed to parse chat request: %v", err)
		return iz.Respond().Status(400).Text(msg)
	}

	answer, err := api.Service.Chat(ctx, userId, req.Message, time.Now().UTC())
	if err != nil {
		msg := fmt.Sprintf("chat failed: %v", err)
		return iz.Respond().Status(httpStatusFromError(err)).Text(msg)
	}
	return iz.Respond().Status(200).JSON(ChatResponse{Answer: answer})
}
