package insights

import (
	"math"
	"sort"
	"time"

	"github.com/spendlens/spendlens/logging"
)

const (
	DefaultForecastMonths = 3

	minForecastRecords = 10
	maxForecastMonths  = 6
	minForecastBuckets = 3

	// Monthly compounding drift applied on top of the weighted average,
	// a rough inflation/lifestyle-creep allowance.
	forecastDrift = 1.05
)

// The most recent month gets the heaviest weight. For histories shorter than
// four months the tail of this template is renormalized to sum to 1.
var forecastWeights = []float64{0.1, 0.2, 0.3, 0.4}

type Prediction struct {
	Month           string  `json:"month"`
	PredictedAmount float64 `json:"predicted_amount"`
	Confidence      string  `json:"confidence"`
}

// ForecastExpenses predicts total spending for each of the next `months`
// calendar months using a weighted trailing average of monthly totals.
// It returns an empty slice when there is not enough history to say anything,
// and degrades to whatever was already computed if something goes wrong.
func ForecastExpenses(expenses []Expense, months int, now time.Time) (predictions []Prediction) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Errorf("expense forecast panicked, returning partial result: %v", r)
		}
	}()

	predictions = []Prediction{}
	if months <= 0 {
		months = DefaultForecastMonths
	}

	buckets := make(map[string]float64)
	validCount := 0
	for _, e := range expenses {
		if !validExpense(e) {
			continue
		}
		validCount++
		buckets[monthKey(e.Date)] += e.Amount
	}
	if validCount < minForecastRecords {
		return predictions
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxForecastMonths {
		keys = keys[len(keys)-maxForecastMonths:]
	}
	if len(keys) < minForecastBuckets {
		return predictions
	}

	amounts := make([]float64, len(keys)) // oldest -> newest
	for i, k := range keys {
		amounts[i] = buckets[k]
	}

	base := weightedBase(amounts)

	confidence := "low"
	if len(amounts) >= 4 {
		confidence = "medium"
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 1; i <= months; i++ {
		predicted := base * math.Pow(forecastDrift, float64(i))
		predictions = append(predictions, Prediction{
			Month:           monthStart.AddDate(0, i, 0).Format("2006-01"),
			PredictedAmount: round2(predicted),
			Confidence:      confidence,
		})
	}
	return predictions
}

// weightedBase pairs the newest monthly total with the heaviest weight over
// at most the last four months, renormalizing the weight tail when the
// history is shorter.
func weightedBase(amounts []float64) float64 {
	n := len(amounts)
	terms := n
	if terms > len(forecastWeights) {
		terms = len(forecastWeights)
	}

	weights := forecastWeights[len(forecastWeights)-terms:]
	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}

	var base float64
	for j := 0; j < terms; j++ {
		// amounts[n-1-j] is the j-th newest month; weights[terms-1-j] is
		// the j-th largest weight.
		base += amounts[n-1-j] * (weights[terms-1-j] / weightSum)
	}
	return base
}
