package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// The analytics core: pure, stateless computations over expense rows fetched
// by the handlers. Nothing in this file touches the database or Redis.

const weeksPerMonth = 4.33

// ExpenseRow is the minimal expense shape the analytics core consumes.
type ExpenseRow struct {
	ID           int
	CategoryID   *int
	CategoryName string
	Amount       float64
	Date         time.Time
}

// WeeklyAggregate is one non-empty ISO-week bucket of a user's spending.
type WeeklyAggregate struct {
	WeekStart        time.Time
	TotalAmount      float64
	TransactionCount int
	AvgTransaction   float64
}

// CategoryStat holds trailing-window statistics for one category.
type CategoryStat struct {
	CategoryID   int
	MeanAmount   float64
	StdDevAmount float64
	SampleCount  int
}

// CategorySpending is a category's average monthly spending over the
// budget-recommendation window.
type CategorySpending struct {
	CategoryID  int
	Name        string
	AvgSpending float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// weekStart truncates a date to the Monday of its ISO week.
func weekStart(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// aggregateWeekly groups expenses into ISO-week buckets ordered by week.
// Weeks with no expenses are omitted, not zero-filled.
func aggregateWeekly(expenses []ExpenseRow) []WeeklyAggregate {
	buckets := make(map[time.Time]*WeeklyAggregate)
	for _, e := range expenses {
		ws := weekStart(e.Date)
		b, ok := buckets[ws]
		if !ok {
			b = &WeeklyAggregate{WeekStart: ws}
			buckets[ws] = b
		}
		b.TotalAmount += e.Amount
		b.TransactionCount++
	}

	weeks := make([]WeeklyAggregate, 0, len(buckets))
	for _, b := range buckets {
		b.AvgTransaction = b.TotalAmount / float64(b.TransactionCount)
		weeks = append(weeks, *b)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekStart.Before(weeks[j].WeekStart)
	})
	return weeks
}

// predictSpending forecasts next month's spending from trailing weekly
// buckets. Fewer than 4 weeks of data yields the defined low-confidence
// result, not an error.
func predictSpending(weeks []WeeklyAggregate) Prediction {
	if len(weeks) < 4 {
		return Prediction{
			PredictedAmount: 0,
			ConfidenceScore: 0.1,
			TrendDirection:  "stable",
			ModelUsed:       "insufficient_data",
			Message:         "Need at least 4 weeks of data for ML prediction",
		}
	}

	amounts := make([]float64, len(weeks))
	for i, w := range weeks {
		amounts[i] = w.TotalAmount
	}

	recent := amounts[len(amounts)-4:]
	var avgRecent float64
	for _, v := range recent {
		avgRecent += v
	}
	avgRecent /= float64(len(recent))
	monthly := avgRecent * weeksPerMonth

	trend := classifyTrend(amounts)

	var variance float64
	for _, v := range amounts {
		variance += (v - avgRecent) * (v - avgRecent)
	}
	variance /= float64(len(amounts))

	confidence := 0.3
	volatility := 0.0
	if avgRecent > 0 {
		volatility = math.Sqrt(variance) / avgRecent
		confidence = clamp(1-volatility, 0.3, 0.9)
	}

	return Prediction{
		PredictedAmount: round2(monthly),
		ConfidenceScore: round2(confidence),
		TrendDirection:  trend,
		ModelUsed:       "statistical_analysis",
		DataPoints:      len(amounts),
		VolatilityScore: round2(volatility),
	}
}

// classifyTrend compares first-half and second-half averages of the weekly
// totals. With an odd count the first half gets the smaller share. The
// comparison is ratio-based, so scaling every total by the same positive
// constant never changes the result.
func classifyTrend(amounts []float64) string {
	mid := len(amounts) / 2
	firstAvg := mean(amounts[:mid])
	secondAvg := mean(amounts[mid:])

	switch {
	case secondAvg > firstAvg*1.1:
		return "increasing"
	case secondAvg < firstAvg*0.9:
		return "decreasing"
	default:
		return "stable"
	}
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// computeCategoryStats derives per-category mean and sample standard
// deviation. Categories with fewer than 3 transactions are excluded, so
// they can never be flagged downstream.
func computeCategoryStats(expenses []ExpenseRow) map[int]CategoryStat {
	grouped := make(map[int][]float64)
	for _, e := range expenses {
		if e.CategoryID == nil {
			continue
		}
		grouped[*e.CategoryID] = append(grouped[*e.CategoryID], e.Amount)
	}

	stats := make(map[int]CategoryStat)
	for id, amounts := range grouped {
		if len(amounts) < 3 {
			continue
		}
		avg := mean(amounts)
		var ss float64
		for _, v := range amounts {
			ss += (v - avg) * (v - avg)
		}
		stdDev := math.Sqrt(ss / float64(len(amounts)-1))
		stats[id] = CategoryStat{
			CategoryID:   id,
			MeanAmount:   avg,
			StdDevAmount: stdDev,
			SampleCount:  len(amounts),
		}
	}
	return stats
}

// detectAnomalies flags recent expenses whose amount exceeds
// mean + 2 standard deviations for their category. A degenerate (zero)
// standard deviation falls back to 30% of the mean. Expenses without a
// stats entry are skipped. Results are sorted by severity descending.
func detectAnomalies(recent []ExpenseRow, stats map[int]CategoryStat) []Anomaly {
	anomalies := make([]Anomaly, 0)

	for _, e := range recent {
		if e.CategoryID == nil {
			continue
		}
		s, ok := stats[*e.CategoryID]
		if !ok {
			continue
		}

		stdDev := s.StdDevAmount
		if stdDev == 0 {
			stdDev = s.MeanAmount * 0.3
		}
		threshold := s.MeanAmount + 2*stdDev
		if e.Amount <= threshold {
			continue
		}

		severity := clamp((e.Amount-s.MeanAmount)/(threshold-s.MeanAmount), 0, 1)
		anomalies = append(anomalies, Anomaly{
			ExpenseID:     e.ID,
			AnomalyType:   "amount_spike",
			SeverityScore: round2(severity),
			Description: fmt.Sprintf("Unusual %s expense: %s MKD (typical: %.0f MKD)",
				e.CategoryName, strconv.FormatFloat(e.Amount, 'f', -1, 64), math.Round(s.MeanAmount)),
			ExpectedValue: round2(s.MeanAmount),
			ActualValue:   e.Amount,
			MLConfidence:  0.8,
		})
	}

	sort.Slice(anomalies, func(i, j int) bool {
		return anomalies[i].SeverityScore > anomalies[j].SeverityScore
	})
	return anomalies
}

// necessityScores weights how essential each spending category is. Unknown
// categories score a neutral 0.5.
var necessityScores = map[string]float64{
	"Food & Dining":     0.9,
	"Bills & Utilities": 0.95,
	"Healthcare":        0.9,
	"Transportation":    0.8,
	"Education":         0.75,
	"Shopping":          0.4,
	"Entertainment":     0.3,
	"Other":             0.5,
}

func categoryNecessityScore(name string) float64 {
	if score, ok := necessityScores[name]; ok {
		return score
	}
	return 0.5
}

// recommendBudgets sizes per-category budget cuts from average monthly
// spending: 5% for essentials, 20% for discretionary, 10% otherwise. Only
// cuts saving more than 10 currency units are emitted, sorted by savings
// descending. No spending data yields an empty plan with zero totals.
func recommendBudgets(spending []CategorySpending) BudgetPlan {
	plan := BudgetPlan{Recommendations: make([]BudgetRecommendation, 0)}
	if len(spending) == 0 {
		return plan
	}

	var totalSavings, totalSpending float64
	for _, cat := range spending {
		totalSpending += cat.AvgSpending

		necessity := categoryNecessityScore(cat.Name)
		reduction := 0.1
		if necessity < 0.5 {
			reduction = 0.2
		} else if necessity > 0.8 {
			reduction = 0.05
		}

		recommended := math.Round(cat.AvgSpending * (1 - reduction))
		savings := math.Max(0, cat.AvgSpending-recommended)
		if savings <= 10 {
			continue
		}

		plan.Recommendations = append(plan.Recommendations, BudgetRecommendation{
			CategoryID:        cat.CategoryID,
			CategoryName:      cat.Name,
			CurrentBudget:     math.Round(cat.AvgSpending),
			RecommendedBudget: recommended,
			Reasoning: fmt.Sprintf("Based on %s spending patterns, a %.0f%% reduction is achievable.",
				cat.Name, reduction*100),
			ConfidenceScore:  0.75,
			PotentialSavings: math.Round(savings),
		})
		totalSavings += savings
	}

	sort.Slice(plan.Recommendations, func(i, j int) bool {
		return plan.Recommendations[i].PotentialSavings > plan.Recommendations[j].PotentialSavings
	})

	plan.TotalPotentialSavings = math.Round(totalSavings)
	if totalSpending > 0 {
		plan.OptimizationScore = math.Round(totalSavings / totalSpending * 100)
	}
	return plan
}

// monthlySpendingByCategory averages each category's monthly totals over the
// months that have data, mirroring the 6-month budget window.
func monthlySpendingByCategory(expenses []ExpenseRow, names map[int]string) []CategorySpending {
	type monthKey struct {
		category int
		month    string
	}
	monthly := make(map[monthKey]float64)
	for _, e := range expenses {
		if e.CategoryID == nil {
			continue
		}
		k := monthKey{category: *e.CategoryID, month: e.Date.Format("2006-01")}
		monthly[k] += e.Amount
	}

	totals := make(map[int]float64)
	months := make(map[int]int)
	for k, total := range monthly {
		totals[k.category] += total
		months[k.category]++
	}

	spending := make([]CategorySpending, 0, len(totals))
	for id, total := range totals {
		avg := total / float64(months[id])
		if avg <= 0 {
			continue
		}
		spending = append(spending, CategorySpending{
			CategoryID:  id,
			Name:        names[id],
			AvgSpending: avg,
		})
	}
	sort.Slice(spending, func(i, j int) bool {
		return spending[i].AvgSpending > spending[j].AvgSpending
	})
	return spending
}
