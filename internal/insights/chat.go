package insights

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var affordPattern = regexp.MustCompile(`can i afford (?:₹|rs\.?|inr)?\s*([\d,]+(?:\.\d+)?)`)

// AnswerChat answers a handful of direct money questions without going
// through the query parser. The second return value reports whether the
// message was handled; when false the caller falls back to search or a help
// message.
func AnswerChat(message string, expenses []Expense, incomes []Income, now time.Time) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return "", false
	}

	if match := affordPattern.FindStringSubmatch(m); match != nil {
		return answerAfford(parseAmount(match[1]), expenses, incomes, now), true
	}
	if strings.Contains(m, "how much") && (strings.Contains(m, "spend") || strings.Contains(m, "spent")) {
		if answer, ok := answerSpendOn(m, expenses, now); ok {
			return answer, true
		}
	}
	if strings.Contains(m, "top categor") || strings.Contains(m, "biggest categor") || strings.Contains(m, "most on") {
		return answerTopCategories(expenses, now), true
	}
	if strings.Contains(m, "recent") && (strings.Contains(m, "expense") || strings.Contains(m, "purchase") || strings.Contains(m, "transaction")) {
		return answerRecent(expenses), true
	}
	if strings.Contains(m, "balance") || strings.Contains(m, "left over") || strings.Contains(m, "how much do i have") {
		return answerBalance(expenses, incomes, now), true
	}
	if strings.Contains(m, "total") && strings.Contains(m, "month") {
		total := monthTotal(expenses, now)
		return fmt.Sprintf("You have spent ₹%.2f so far in %s.", total, now.Month().String()), true
	}

	return "", false
}

func answerAfford(amount float64, expenses []Expense, incomes []Income, now time.Time) string {
	income := monthIncome(incomes, now)
	spent := monthTotal(expenses, now)
	balance := income - spent

	if amount <= balance {
		return fmt.Sprintf("Yes, you can afford ₹%.2f. Your balance this month is ₹%.2f (income ₹%.2f, spent ₹%.2f).",
			amount, balance, income, spent)
	}

	daysLeft := daysLeftInMonth(now)
	answer := fmt.Sprintf("That would put you over budget: ₹%.2f exceeds your remaining balance of ₹%.2f this month.", amount, balance)
	if daysLeft > 0 && balance > 0 {
		answer += fmt.Sprintf(" If you skip it, you can still spend about ₹%.2f per day for the rest of the month.", balance/float64(daysLeft))
	}
	return answer
}

// answerSpendOn resolves a category from the message and sums it over an
// optional relative period; with no period it covers the current month.
func answerSpendOn(m string, expenses []Expense, now time.Time) (string, bool) {
	var filter QueryFilter
	parseCategory(m, &filter)
	if filter.Category == "" {
		return "", false
	}
	parsePeriod(m, now, &filter)

	periodLabel := filter.TimePeriod
	if periodLabel == "" {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := monthStart.AddDate(0, 1, 0).Add(-time.Second)
		filter.StartDate = &monthStart
		filter.EndDate = &end
		periodLabel = "this month"
	}

	var total float64
	count := 0
	for _, e := range expenses {
		if !validExpense(e) || e.Category != filter.Category {
			continue
		}
		if e.Date.Before(*filter.StartDate) || e.Date.After(*filter.EndDate) {
			continue
		}
		total += e.Amount
		count++
	}

	if count == 0 {
		return fmt.Sprintf("You have no %s expenses %s.", filter.Category, periodLabel), true
	}
	return fmt.Sprintf("You spent ₹%.2f on %s %s across %d transactions.", total, filter.Category, periodLabel, count), true
}

func answerTopCategories(expenses []Expense, now time.Time) string {
	totals := make(map[string]float64)
	for _, e := range expenses {
		if !validExpense(e) {
			continue
		}
		if e.Date.Year() != now.Year() || e.Date.Month() != now.Month() {
			continue
		}
		totals[e.Category] += e.Amount
	}
	if len(totals) == 0 {
		return "You have no expenses recorded this month yet."
	}

	type entry struct {
		category string
		total    float64
	}
	entries := make([]entry, 0, len(totals))
	for c, t := range totals {
		entries = append(entries, entry{c, t})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].total != entries[j].total {
			return entries[i].total > entries[j].total
		}
		return entries[i].category < entries[j].category
	})
	if len(entries) > 3 {
		entries = entries[:3]
	}

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (₹%.2f)", e.category, e.total)
	}
	return "Your top spending categories this month: " + strings.Join(parts, ", ") + "."
}

func answerRecent(expenses []Expense) string {
	valid := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if validExpense(e) {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return "You have no expenses recorded yet."
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].Date.After(valid[j].Date) })
	if len(valid) > 5 {
		valid = valid[:5]
	}

	lines := make([]string, len(valid))
	for i, e := range valid {
		desc := e.Description
		if desc == "" {
			desc = e.Category
		}
		lines[i] = fmt.Sprintf("%s: %s ₹%.2f", e.Date.Format("Jan 2"), desc, e.Amount)
	}
	return "Your most recent expenses: " + strings.Join(lines, "; ") + "."
}

func answerBalance(expenses []Expense, incomes []Income, now time.Time) string {
	income := monthIncome(incomes, now)
	spent := monthTotal(expenses, now)
	balance := income - spent
	if balance < 0 {
		return fmt.Sprintf("You are ₹%.2f over your income this month (income ₹%.2f, spent ₹%.2f).", -balance, income, spent)
	}
	return fmt.Sprintf("Your balance this month is ₹%.2f (income ₹%.2f, spent ₹%.2f).", balance, income, spent)
}

func monthTotal(expenses []Expense, now time.Time) float64 {
	var total float64
	for _, e := range expenses {
		if !validExpense(e) {
			continue
		}
		if e.Date.Year() == now.Year() && e.Date.Month() == now.Month() {
			total += e.Amount
		}
	}
	return total
}

func monthIncome(incomes []Income, now time.Time) float64 {
	var total float64
	for _, in := range incomes {
		if !validAmount(in.Amount) || in.Date.IsZero() {
			continue
		}
		if in.Date.Year() == now.Year() && in.Date.Month() == now.Month() {
			total += in.Amount
		}
	}
	return total
}

func daysLeftInMonth(now time.Time) int {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, 1, -1).Day() - now.Day()
}
