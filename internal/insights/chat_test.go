package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var chatNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func chatFixture() ([]Expense, []Income) {
	expenses := []Expense{
		{Category: "Food", Amount: 8000, Description: "groceries", Date: time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)},
		{Category: "Bills", Amount: 10000, Description: "rent", Date: time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)},
		{Category: "Transport", Amount: 2000, Description: "fuel", Date: time.Date(2025, time.June, 10, 18, 0, 0, 0, time.UTC)},
		{Category: "Food", Amount: 5000, Description: "old groceries", Date: time.Date(2025, time.May, 20, 10, 0, 0, 0, time.UTC)},
	}
	incomes := []Income{
		{Source: "Salary", Amount: 50000, Date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{Source: "Salary", Amount: 50000, Date: time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)},
	}
	return expenses, incomes
}

func TestAnswerChat_Afford(t *testing.T) {
	expenses, incomes := chatFixture()

	// June: income 50000, spent 20000, balance 30000.
	answer, ok := AnswerChat("can I afford ₹10,000?", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "Yes")
	require.Contains(t, answer, "30000.00")

	answer, ok = AnswerChat("can i afford 40000", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "over budget")
	require.Contains(t, answer, "per day")
}

func TestAnswerChat_SpendOnCategory(t *testing.T) {
	expenses, incomes := chatFixture()

	answer, ok := AnswerChat("how much did I spend on food this month?", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "₹8000.00")
	require.Contains(t, answer, "Food")
	require.Contains(t, answer, "this month")

	answer, ok = AnswerChat("how much did I spend on food last month?", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "₹5000.00")
	require.Contains(t, answer, "last month")
}

func TestAnswerChat_SpendOnCategoryNoMatches(t *testing.T) {
	expenses, incomes := chatFixture()

	answer, ok := AnswerChat("how much did I spend on travel this month?", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "no Travel expenses")
}

func TestAnswerChat_TopCategories(t *testing.T) {
	expenses, incomes := chatFixture()

	answer, ok := AnswerChat("what are my top categories?", expenses, incomes, chatNow)
	require.True(t, ok)

	// Bills 10000 leads Food 8000 for June.
	billsIdx := strings.Index(answer, "Bills")
	foodIdx := strings.Index(answer, "Food")
	require.Greater(t, billsIdx, -1)
	require.Greater(t, foodIdx, billsIdx)
}

func TestAnswerChat_RecentExpenses(t *testing.T) {
	expenses, incomes := chatFixture()

	answer, ok := AnswerChat("show my recent expenses", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "fuel")
	require.Contains(t, answer, "rent")
}

func TestAnswerChat_Balance(t *testing.T) {
	expenses, incomes := chatFixture()

	answer, ok := AnswerChat("what is my balance?", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "₹30000.00")
}

func TestAnswerChat_TotalThisMonth(t *testing.T) {
	expenses, incomes := chatFixture()

	answer, ok := AnswerChat("what is my total spending this month?", expenses, incomes, chatNow)
	require.True(t, ok)
	require.Contains(t, answer, "₹20000.00")
	require.Contains(t, answer, "June")
}

func TestAnswerChat_Unhandled(t *testing.T) {
	expenses, incomes := chatFixture()

	_, ok := AnswerChat("tell me a joke", expenses, incomes, chatNow)
	require.False(t, ok)

	_, ok = AnswerChat("", expenses, incomes, chatNow)
	require.False(t, ok)
}
