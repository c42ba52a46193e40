package insights

import (
	"strings"
	"testing"
	"time"

	appErrors "github.com/spendlens/spendlens/errors"
	"github.com/stretchr/testify/require"
)

var queryNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestParseQuery_CategoryAmountAndPeriod(t *testing.T) {
	filter, err := ParseQuery("food expenses over 2000 last month", queryNow)
	require.NoError(t, err)

	require.Equal(t, "Food", filter.Category)
	require.NotNil(t, filter.MinAmount)
	require.Equal(t, 2000.0, *filter.MinAmount)
	require.Nil(t, filter.MaxAmount)
	require.Equal(t, "last month", filter.TimePeriod)

	require.NotNil(t, filter.StartDate)
	require.NotNil(t, filter.EndDate)
	require.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
	require.Equal(t, time.Date(2025, time.May, 31, 23, 59, 59, 0, time.UTC), *filter.EndDate)
}

func TestParseQuery_InvalidInput(t *testing.T) {
	_, err := ParseQuery("", queryNow)
	require.Error(t, err)

	_, err = ParseQuery("   ", queryNow)
	require.Error(t, err)

	_, err = ParseQuery(strings.Repeat("a", 501), queryNow)
	require.Error(t, err)
	var appErr appErrors.ErrorResponse
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidInput, appErr.Code)

	_, err = ParseQuery(strings.Repeat("a", 500), queryNow)
	require.NoError(t, err)
}

func TestParseQuery_AmountPhrasings(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantMin *float64
		wantMax *float64
	}{
		{"Over", "expenses over 1000", ptr(1000.0), nil},
		{"More than", "spent more than 2,500", ptr(2500.0), nil},
		{"Above with rupee sign", "purchases above ₹750", ptr(750.0), nil},
		{"Under", "expenses under 300", nil, ptr(300.0)},
		{"Less than", "anything less than 99.50", nil, ptr(99.5)},
		{"Between", "expenses between 100 and 500", ptr(100.0), ptr(500.0)},
		{"Between reversed", "expenses between 500 and 100", ptr(100.0), ptr(500.0)},
		{"Over and under combine", "expenses over 1000 under 3000", ptr(1000.0), ptr(3000.0)},
		{"Between wins over other phrasings", "between 100 and 500 over 2000", ptr(100.0), ptr(500.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := ParseQuery(tt.query, queryNow)
			require.NoError(t, err)

			if tt.wantMin == nil {
				require.Nil(t, filter.MinAmount)
			} else {
				require.NotNil(t, filter.MinAmount)
				require.Equal(t, *tt.wantMin, *filter.MinAmount)
			}
			if tt.wantMax == nil {
				require.Nil(t, filter.MaxAmount)
			} else {
				require.NotNil(t, filter.MaxAmount)
				require.Equal(t, *tt.wantMax, *filter.MaxAmount)
			}
		})
	}
}

func TestParseQuery_RelativePeriods(t *testing.T) {
	tests := []struct {
		query     string
		period    string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"expenses last year", "last year",
			time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC)},
		{"spending this year", "this year",
			time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC)},
		{"expenses this month", "this month",
			time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)},
		// queryNow is Sunday June 15, so the current week starts that day.
		{"expenses last week", "last week",
			time.Date(2025, time.June, 8, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 14, 23, 59, 59, 0, time.UTC)},
		{"expenses this week", "this week",
			time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 21, 23, 59, 59, 0, time.UTC)},
		{"expenses today", "today",
			time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 15, 23, 59, 59, 0, time.UTC)},
		{"what did I buy yesterday", "yesterday",
			time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 14, 23, 59, 59, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			filter, err := ParseQuery(tt.query, queryNow)
			require.NoError(t, err)
			require.Equal(t, tt.period, filter.TimePeriod)
			require.Equal(t, tt.wantStart, *filter.StartDate)
			require.Equal(t, tt.wantEnd, *filter.EndDate)
		})
	}
}

func TestParseQuery_AmountNotMistakenForYear(t *testing.T) {
	// "2000" here is an amount bound, not the year 2000.
	filter, err := ParseQuery("expenses over 2000 last month", queryNow)
	require.NoError(t, err)
	require.Equal(t, "last month", filter.TimePeriod)
	require.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
	require.NotNil(t, filter.MinAmount)
	require.Equal(t, 2000.0, *filter.MinAmount)

	filter, err = ParseQuery("between 2000 and 3000 this month", queryNow)
	require.NoError(t, err)
	require.Equal(t, "this month", filter.TimePeriod)
	require.Equal(t, 2000.0, *filter.MinAmount)
	require.Equal(t, 3000.0, *filter.MaxAmount)

	// A genuine year after an unrelated amount phrase still binds.
	filter, err = ParseQuery("expenses under 500 in 2024", queryNow)
	require.NoError(t, err)
	require.Equal(t, "2024", filter.TimePeriod)
	require.Equal(t, 500.0, *filter.MaxAmount)
}

func TestParseQuery_PeriodPriority(t *testing.T) {
	// "last month" outranks "this week" regardless of word order.
	filter, err := ParseQuery("this week and last month expenses", queryNow)
	require.NoError(t, err)
	require.Equal(t, "last month", filter.TimePeriod)
}

func TestParseQuery_ExplicitMonthAndYear(t *testing.T) {
	filter, err := ParseQuery("food spending in March 2025", queryNow)
	require.NoError(t, err)

	require.Equal(t, "march 2025", filter.TimePeriod)
	require.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
	require.Equal(t, time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC), *filter.EndDate)
}

func TestParseQuery_BareYear(t *testing.T) {
	filter, err := ParseQuery("all expenses in 2024", queryNow)
	require.NoError(t, err)

	require.Equal(t, "2024", filter.TimePeriod)
	require.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
	require.Equal(t, time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC), *filter.EndDate)
}

func TestParseQuery_BareMonthResolvesToPast(t *testing.T) {
	// Relative to June 2025, "march" is this year but "september" is last year.
	filter, err := ParseQuery("groceries in march", queryNow)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)

	filter, err = ParseQuery("groceries in september", queryNow)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
}

func TestParseQuery_CategorySynonyms(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"uber rides last week", "Transport"},
		{"grocery runs", "Food"},
		{"netflix and movies", "Entertainment"},
		{"electricity bill", "Bills"},
		{"doctor visits", "Health"},
		{"udemy course", "Education"},
		{"flight tickets", "Travel"},
		{"new shoes", "Shopping"},
		{"random things", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			filter, err := ParseQuery(tt.query, queryNow)
			require.NoError(t, err)
			require.Equal(t, tt.want, filter.Category)
		})
	}
}

func TestParseQuery_CategoryInflections(t *testing.T) {
	// Synonyms match as substrings, so plural and inflected forms bind too.
	tests := []struct {
		query string
		want  string
	}{
		{"restaurants last week", "Food"},
		{"taxis yesterday", "Transport"},
		{"hotels in march", "Travel"},
		{"gaming subscriptions", "Entertainment"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			filter, err := ParseQuery(tt.query, queryNow)
			require.NoError(t, err)
			require.Equal(t, tt.want, filter.Category)
		})
	}
}

func TestParseQuery_FirstSynonymTableWins(t *testing.T) {
	// Food is checked before Transport, so a mixed query binds to Food.
	filter, err := ParseQuery("grocery and uber expenses", queryNow)
	require.NoError(t, err)
	require.Equal(t, "Food", filter.Category)
}

func TestParseQuery_Keywords(t *testing.T) {
	filter, err := ParseQuery("show my starbucks payments over 200", queryNow)
	require.NoError(t, err)

	// "coffee" would have bound a category; "starbucks" is a free keyword.
	require.Equal(t, []string{"starbucks"}, filter.DescriptionKeywords)
}

func TestParseQuery_KeywordsSkipNoiseTokens(t *testing.T) {
	filter, err := ParseQuery("list 1,200 spent on things last month", queryNow)
	require.NoError(t, err)

	require.Equal(t, []string{"things"}, filter.DescriptionKeywords)
}

func TestParseQuery_Idempotent(t *testing.T) {
	query := "food expenses over 2,000 last month at starbucks"

	first, err := ParseQuery(query, queryNow)
	require.NoError(t, err)
	second, err := ParseQuery(query, queryNow)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func ptr(v float64) *float64 { return &v }
