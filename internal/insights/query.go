package insights

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/spendlens/spendlens/errors"
	"github.com/spendlens/spendlens/logging"
)

const maxQueryLength = 500

// QueryFilter is the structured form of a natural-language expense query.
// Nil pointer fields mean "no constraint".
type QueryFilter struct {
	Category            string     `json:"category,omitempty"`
	MinAmount           *float64   `json:"min_amount,omitempty"`
	MaxAmount           *float64   `json:"max_amount,omitempty"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	TimePeriod          string     `json:"time_period,omitempty"`
	DescriptionKeywords []string   `json:"description_keywords,omitempty"`
}

var monthTokens = []struct {
	token string
	month time.Month
}{
	{"january", time.January},
	{"february", time.February},
	{"march", time.March},
	{"april", time.April},
	{"june", time.June},
	{"july", time.July},
	{"august", time.August},
	{"september", time.September},
	{"october", time.October},
	{"november", time.November},
	{"december", time.December},
	{"jan", time.January},
	{"feb", time.February},
	{"mar", time.March},
	{"apr", time.April},
	{"may", time.May},
	{"jun", time.June},
	{"jul", time.July},
	{"aug", time.August},
	{"sep", time.September},
	{"oct", time.October},
	{"nov", time.November},
	{"dec", time.December},
}

// Synonym tables are checked in this order and the first hit wins, so a query
// mixing "grocery" and "uber" binds to Food.
var categorySynonyms = []struct {
	category string
	words    []string
}{
	{"Food", []string{"food", "restaurant", "grocery", "groceries", "eat", "eating", "dining", "lunch", "dinner", "breakfast", "cafe", "coffee", "snack", "snacks"}},
	{"Transport", []string{"transport", "uber", "taxi", "cab", "bus", "train", "fuel", "petrol", "diesel", "metro", "commute"}},
	{"Shopping", []string{"shopping", "clothes", "clothing", "amazon", "flipkart", "shoes", "electronics", "gadget", "gadgets"}},
	{"Entertainment", []string{"entertainment", "movie", "movies", "netflix", "spotify", "game", "games", "gaming", "concert"}},
	{"Bills", []string{"bill", "bills", "electricity", "rent", "utility", "utilities", "internet", "wifi", "subscription", "recharge"}},
	{"Health", []string{"health", "medical", "medicine", "doctor", "hospital", "pharmacy", "gym", "fitness"}},
	{"Education", []string{"education", "course", "courses", "book", "books", "tuition", "class", "classes", "udemy"}},
	{"Travel", []string{"travel", "trip", "flight", "flights", "hotel", "vacation", "holiday"}},
}

var (
	yearPattern    = regexp.MustCompile(`\b(20\d\d)\b`)
	amountToken    = `([\d,]+(?:\.\d+)?)`
	overPattern    = regexp.MustCompile(`(?:over|more than|above|greater than)\s*(?:₹|rs\.?|inr)?\s*` + amountToken)
	underPattern   = regexp.MustCompile(`(?:under|less than|below)\s*(?:₹|rs\.?|inr)?\s*` + amountToken)
	betweenPattern = regexp.MustCompile(`between\s*(?:₹|rs\.?|inr)?\s*` + amountToken + `\s*(?:and|-)\s*(?:₹|rs\.?|inr)?\s*` + amountToken)
	numericToken   = regexp.MustCompile(`^[\d,.₹]+$`)
)

var stopwords = map[string]struct{}{}

func init() {
	common := []string{
		"show", "list", "find", "give", "what", "when", "where", "which", "how", "much",
		"many", "did", "does", "have", "has", "had", "was", "were", "the", "and", "for",
		"from", "with", "that", "this", "last", "past", "expenses", "expense", "spent",
		"spend", "spending", "paid", "payments", "payment", "purchases", "purchase",
		"transactions", "transaction", "money", "amount", "over", "under", "above",
		"below", "between", "more", "less", "than", "greater", "all", "any", "year",
		"month", "week", "today", "yesterday", "recent", "please", "total",
	}
	for _, w := range common {
		stopwords[w] = struct{}{}
	}
	for _, group := range categorySynonyms {
		stopwords[strings.ToLower(group.category)] = struct{}{}
		for _, w := range group.words {
			stopwords[w] = struct{}{}
		}
	}
	for _, mt := range monthTokens {
		stopwords[mt.token] = struct{}{}
	}
}

// ParseQuery turns a natural-language query into a QueryFilter. The only
// error it returns is for invalid input (empty or over the length limit);
// anything else degrades to a partial filter.
func ParseQuery(query string, now time.Time) (filter QueryFilter, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Errorf("query parse panicked, returning partial filter: %v", r)
			err = nil
		}
	}()

	if strings.TrimSpace(query) == "" {
		return filter, appErrors.ErrorResponse{Code: appErrors.ErrInvalidInput, Message: "Query cannot be empty!"}
	}
	if len(query) > maxQueryLength {
		return filter, appErrors.ErrorResponse{Code: appErrors.ErrInvalidInput, Message: "Query is too long, maximum 500 characters allowed."}
	}

	q := strings.ToLower(query)

	parsePeriod(q, now, &filter)
	parseCategory(q, &filter)
	parseAmounts(q, &filter)
	parseKeywords(q, &filter)

	return filter, nil
}

// parsePeriod resolves an explicit year (optionally with a month name) first,
// then falls through a fixed priority list of relative periods. Longer tokens
// are checked before their substrings ("last week" before "week"). Amount
// phrases are blanked out first so "over 2000" is never read as the year 2000.
func parsePeriod(q string, now time.Time, filter *QueryFilter) {
	q = stripAmountPhrases(q)

	if m := yearPattern.FindStringSubmatch(q); m != nil {
		year, _ := strconv.Atoi(m[1])
		for _, mt := range monthTokens {
			if containsWord(q, mt.token) {
				start := time.Date(year, mt.month, 1, 0, 0, 0, 0, now.Location())
				end := start.AddDate(0, 1, 0).Add(-time.Second)
				setPeriod(filter, start, end, strings.ToLower(mt.month.String())+" "+m[1])
				return
			}
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(1, 0, 0).Add(-time.Second)
		setPeriod(filter, start, end, m[1])
		return
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))

	switch {
	case strings.Contains(q, "last year"):
		start := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())
		setPeriod(filter, start, start.AddDate(1, 0, 0).Add(-time.Second), "last year")
	case strings.Contains(q, "this year"):
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		setPeriod(filter, start, start.AddDate(1, 0, 0).Add(-time.Second), "this year")
	case strings.Contains(q, "last month"):
		start := monthStart.AddDate(0, -1, 0)
		setPeriod(filter, start, monthStart.Add(-time.Second), "last month")
	case strings.Contains(q, "this month"):
		setPeriod(filter, monthStart, monthStart.AddDate(0, 1, 0).Add(-time.Second), "this month")
	case strings.Contains(q, "last week"):
		start := weekStart.AddDate(0, 0, -7)
		setPeriod(filter, start, weekStart.Add(-time.Second), "last week")
	case strings.Contains(q, "this week"), strings.Contains(q, "week"):
		setPeriod(filter, weekStart, weekStart.AddDate(0, 0, 7).Add(-time.Second), "this week")
	case strings.Contains(q, "today"):
		setPeriod(filter, today, today.AddDate(0, 0, 1).Add(-time.Second), "today")
	case strings.Contains(q, "yesterday"):
		start := today.AddDate(0, 0, -1)
		setPeriod(filter, start, today.Add(-time.Second), "yesterday")
	}

	if filter.TimePeriod != "" {
		return
	}
	for _, mt := range monthTokens {
		if containsWord(q, mt.token) {
			year := now.Year()
			if mt.month > now.Month() {
				year--
			}
			start := time.Date(year, mt.month, 1, 0, 0, 0, 0, now.Location())
			setPeriod(filter, start, start.AddDate(0, 1, 0).Add(-time.Second), strings.ToLower(mt.month.String()))
			return
		}
	}
}

func stripAmountPhrases(q string) string {
	for _, re := range []*regexp.Regexp{betweenPattern, overPattern, underPattern} {
		q = re.ReplaceAllString(q, " ")
	}
	return q
}

func setPeriod(filter *QueryFilter, start, end time.Time, label string) {
	filter.StartDate = &start
	filter.EndDate = &end
	filter.TimePeriod = label
}

// parseCategory binds the first table entry with any synonym present as a
// substring, so inflected forms ("restaurants", "taxis") still hit.
func parseCategory(q string, filter *QueryFilter) {
	for _, group := range categorySynonyms {
		for _, word := range group.words {
			if strings.Contains(q, word) {
				filter.Category = group.category
				return
			}
		}
	}
}

// parseAmounts tries the range phrasings in a fixed order; "over" and "under"
// can combine, "between" sets both bounds at once.
func parseAmounts(q string, filter *QueryFilter) {
	if m := betweenPattern.FindStringSubmatch(q); m != nil {
		low := parseAmount(m[1])
		high := parseAmount(m[2])
		if low > high {
			low, high = high, low
		}
		filter.MinAmount = &low
		filter.MaxAmount = &high
		return
	}
	if m := overPattern.FindStringSubmatch(q); m != nil {
		v := parseAmount(m[1])
		filter.MinAmount = &v
	}
	if m := underPattern.FindStringSubmatch(q); m != nil {
		v := parseAmount(m[1])
		filter.MaxAmount = &v
	}
}

func parseAmount(raw string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	return v
}

func parseKeywords(q string, filter *QueryFilter) {
	for _, token := range strings.Fields(q) {
		token = strings.Trim(token, ".,!?;:'\"()")
		if len(token) <= 3 || numericToken.MatchString(token) {
			continue
		}
		if _, ok := stopwords[token]; ok {
			continue
		}
		filter.DescriptionKeywords = append(filter.DescriptionKeywords, token)
	}
}

func containsWord(q, word string) bool {
	idx := 0
	for {
		i := strings.Index(q[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(q[start-1])
		afterOK := end == len(q) || !isWordChar(q[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
