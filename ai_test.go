package main

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func expRow(id, categoryID int, amount float64, date time.Time) ExpenseRow {
	cat := categoryID
	return ExpenseRow{ID: id, CategoryID: &cat, CategoryName: "Food & Dining", Amount: amount, Date: date}
}

func TestWeekStartTruncatesToMonday(t *testing.T) {
	wed := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	sun := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	mon := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)

	want := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	if got := weekStart(wed); !got.Equal(want) {
		t.Fatalf("weekStart(wed) = %v, want %v", got, want)
	}
	if got := weekStart(sun); !got.Equal(want) {
		t.Fatalf("weekStart(sun) = %v, want %v", got, want)
	}
	if got := weekStart(mon); !got.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("weekStart(mon) = %v, want start of same week", got)
	}
}

func TestAggregateWeeklySparseAndOrdered(t *testing.T) {
	week1 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	week3 := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)

	expenses := []ExpenseRow{
		expRow(3, 1, 30, week3),
		expRow(1, 1, 100, week1),
		expRow(2, 1, 50, week1.AddDate(0, 0, 2)),
	}

	weeks := aggregateWeekly(expenses)
	if len(weeks) != 2 {
		t.Fatalf("expected 2 sparse buckets, got %d", len(weeks))
	}
	if !weeks[0].WeekStart.Equal(week1) || !weeks[1].WeekStart.Equal(week3) {
		t.Fatalf("buckets not ordered by week: %v, %v", weeks[0].WeekStart, weeks[1].WeekStart)
	}
	if !almostEqual(weeks[0].TotalAmount, 150) || weeks[0].TransactionCount != 2 {
		t.Fatalf("week1 aggregate wrong: total=%v count=%d", weeks[0].TotalAmount, weeks[0].TransactionCount)
	}
	if !almostEqual(weeks[0].AvgTransaction, 75) {
		t.Fatalf("week1 avg = %v, want 75", weeks[0].AvgTransaction)
	}
}

func TestAggregateWeeklyEmptyInput(t *testing.T) {
	weeks := aggregateWeekly(nil)
	if len(weeks) != 0 {
		t.Fatalf("expected empty result for empty input, got %d buckets", len(weeks))
	}
}

func weeksFromTotals(totals []float64) []WeeklyAggregate {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	weeks := make([]WeeklyAggregate, len(totals))
	for i, total := range totals {
		weeks[i] = WeeklyAggregate{
			WeekStart:        start.AddDate(0, 0, 7*i),
			TotalAmount:      total,
			TransactionCount: 1,
			AvgTransaction:   total,
		}
	}
	return weeks
}

func TestPredictInsufficientData(t *testing.T) {
	for n := 0; n < 4; n++ {
		totals := make([]float64, n)
		for i := range totals {
			totals[i] = 100
		}
		p := predictSpending(weeksFromTotals(totals))
		if p.ModelUsed != "insufficient_data" {
			t.Fatalf("n=%d: model = %q, want insufficient_data", n, p.ModelUsed)
		}
		if !almostEqual(p.ConfidenceScore, 0.1) {
			t.Fatalf("n=%d: confidence = %v, want 0.1", n, p.ConfidenceScore)
		}
		if p.TrendDirection != "stable" || p.PredictedAmount != 0 {
			t.Fatalf("n=%d: unexpected terminal state %+v", n, p)
		}
	}
}

func TestPredictStableForecast(t *testing.T) {
	p := predictSpending(weeksFromTotals([]float64{100, 100, 100, 100}))
	if p.ModelUsed != "statistical_analysis" {
		t.Fatalf("model = %q", p.ModelUsed)
	}
	if !almostEqual(p.PredictedAmount, 433) {
		t.Fatalf("predicted = %v, want 433 (100 * 4.33)", p.PredictedAmount)
	}
	if !almostEqual(p.ConfidenceScore, 0.9) {
		t.Fatalf("confidence = %v, want 0.9 for zero variance", p.ConfidenceScore)
	}
	if !almostEqual(p.VolatilityScore, 0) {
		t.Fatalf("volatility = %v, want 0", p.VolatilityScore)
	}
	if p.TrendDirection != "stable" {
		t.Fatalf("trend = %q, want stable", p.TrendDirection)
	}
	if p.DataPoints != 4 {
		t.Fatalf("data points = %d, want 4", p.DataPoints)
	}
}

func TestPredictConfidenceBounds(t *testing.T) {
	cases := [][]float64{
		{100, 100, 100, 100},
		{5, 500, 5, 500, 5, 500},
		{1000, 10, 10, 10, 10},
		{0, 0, 0, 0},
	}
	for _, totals := range cases {
		p := predictSpending(weeksFromTotals(totals))
		if p.ConfidenceScore < 0.1 || p.ConfidenceScore > 0.9 {
			t.Fatalf("totals %v: confidence %v out of [0.1, 0.9]", totals, p.ConfidenceScore)
		}
		if p.VolatilityScore < 0 {
			t.Fatalf("totals %v: negative volatility %v", totals, p.VolatilityScore)
		}
	}
}

func TestPredictZeroAverageRecent(t *testing.T) {
	p := predictSpending(weeksFromTotals([]float64{0, 0, 0, 0}))
	if !almostEqual(p.ConfidenceScore, 0.3) {
		t.Fatalf("confidence = %v, want minimum 0.3", p.ConfidenceScore)
	}
	if !almostEqual(p.VolatilityScore, 0) {
		t.Fatalf("volatility = %v, want 0", p.VolatilityScore)
	}
	if !almostEqual(p.PredictedAmount, 0) {
		t.Fatalf("predicted = %v, want 0", p.PredictedAmount)
	}
}

func TestClassifyTrendScaleInvariant(t *testing.T) {
	cases := []struct {
		totals []float64
		want   string
	}{
		{[]float64{10, 10, 20, 20}, "increasing"},
		{[]float64{20, 20, 10, 10}, "decreasing"},
		{[]float64{10, 10, 10, 11}, "stable"},
		{[]float64{10, 20, 100, 100, 100, 100}, "increasing"},
	}
	for _, tc := range cases {
		if got := classifyTrend(tc.totals); got != tc.want {
			t.Fatalf("trend(%v) = %q, want %q", tc.totals, got, tc.want)
		}
		scaled := make([]float64, len(tc.totals))
		for i, v := range tc.totals {
			scaled[i] = v * 7.5
		}
		if got := classifyTrend(scaled); got != tc.want {
			t.Fatalf("trend invariance broken: scaled %v = %q, want %q", scaled, got, tc.want)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	expenses := []ExpenseRow{
		expRow(1, 1, 120, start),
		expRow(2, 1, 90, start.AddDate(0, 0, 7)),
		expRow(3, 1, 140, start.AddDate(0, 0, 14)),
		expRow(4, 1, 110, start.AddDate(0, 0, 21)),
		expRow(5, 1, 95, start.AddDate(0, 0, 28)),
	}
	first := predictSpending(aggregateWeekly(expenses))
	second := predictSpending(aggregateWeekly(expenses))
	if first != second {
		t.Fatalf("prediction not deterministic: %+v vs %+v", first, second)
	}
}

func TestCategoryStatsMinimumSample(t *testing.T) {
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	expenses := []ExpenseRow{
		expRow(1, 1, 100, day),
		expRow(2, 1, 110, day.AddDate(0, 0, 1)),
		expRow(3, 1, 90, day.AddDate(0, 0, 2)),
		expRow(4, 2, 50, day),
		expRow(5, 2, 60, day.AddDate(0, 0, 1)),
	}
	stats := computeCategoryStats(expenses)

	s, ok := stats[1]
	if !ok {
		t.Fatal("category 1 with 3 samples should have stats")
	}
	if !almostEqual(s.MeanAmount, 100) {
		t.Fatalf("mean = %v, want 100", s.MeanAmount)
	}
	if !almostEqual(s.StdDevAmount, 10) {
		t.Fatalf("stddev = %v, want 10 (sample stddev)", s.StdDevAmount)
	}
	if s.SampleCount != 3 {
		t.Fatalf("sample count = %d, want 3", s.SampleCount)
	}

	if _, ok := stats[2]; ok {
		t.Fatal("category 2 with only 2 samples must be excluded")
	}
}

func TestAnomalyFallbackStdDevBoundary(t *testing.T) {
	// Three identical amounts give a zero stddev, so the detector must
	// fall back to 30% of the mean: threshold = 100 + 2*30 = 160.
	stats := map[int]CategoryStat{
		1: {CategoryID: 1, MeanAmount: 100, StdDevAmount: 0, SampleCount: 3},
	}
	day := time.Now()

	atThreshold := detectAnomalies([]ExpenseRow{expRow(1, 1, 160, day)}, stats)
	if len(atThreshold) != 0 {
		t.Fatalf("amount exactly at threshold flagged: %+v", atThreshold)
	}

	above := detectAnomalies([]ExpenseRow{expRow(2, 1, 170, day)}, stats)
	if len(above) != 1 {
		t.Fatalf("amount above threshold not flagged")
	}
	a := above[0]
	if a.ExpenseID != 2 || a.AnomalyType != "amount_spike" {
		t.Fatalf("unexpected anomaly %+v", a)
	}
	if a.SeverityScore < 0 || a.SeverityScore > 1 {
		t.Fatalf("severity %v out of [0, 1]", a.SeverityScore)
	}
	if !almostEqual(a.ExpectedValue, 100) || !almostEqual(a.ActualValue, 170) {
		t.Fatalf("expected/actual wrong: %+v", a)
	}
}

func TestAnomaliesSkipMissingStats(t *testing.T) {
	stats := map[int]CategoryStat{
		1: {CategoryID: 1, MeanAmount: 100, StdDevAmount: 10, SampleCount: 5},
	}
	day := time.Now()

	unknownCat := expRow(1, 99, 10000, day)
	noCat := ExpenseRow{ID: 2, Amount: 10000, Date: day}

	anomalies := detectAnomalies([]ExpenseRow{unknownCat, noCat}, stats)
	if len(anomalies) != 0 {
		t.Fatalf("expenses without stats must be skipped, got %+v", anomalies)
	}
}

func TestAnomaliesSortedBySeverity(t *testing.T) {
	stats := map[int]CategoryStat{
		1: {CategoryID: 1, MeanAmount: 100, StdDevAmount: 20, SampleCount: 5},
	}
	day := time.Now()
	recent := []ExpenseRow{
		expRow(1, 1, 150, day),
		expRow(2, 1, 500, day),
		expRow(3, 1, 200, day),
	}

	anomalies := detectAnomalies(recent, stats)
	if len(anomalies) == 0 {
		t.Fatal("expected anomalies")
	}
	for i := 1; i < len(anomalies); i++ {
		if anomalies[i].SeverityScore > anomalies[i-1].SeverityScore {
			t.Fatalf("anomalies not sorted by severity descending: %+v", anomalies)
		}
	}
	for _, a := range anomalies {
		if a.SeverityScore < 0 || a.SeverityScore > 1 {
			t.Fatalf("severity %v out of [0, 1]", a.SeverityScore)
		}
	}
}

func TestRecommendBudgetsThresholdAndOrder(t *testing.T) {
	spending := []CategorySpending{
		{CategoryID: 1, Name: "Food & Dining", AvgSpending: 1000}, // essential: 5% -> saves 50
		{CategoryID: 2, Name: "Entertainment", AvgSpending: 300},  // discretionary: 20% -> saves 60
		{CategoryID: 3, Name: "Shopping", AvgSpending: 50},        // 20% -> saves 10, below the cutoff
	}

	plan := recommendBudgets(spending)
	if len(plan.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d: %+v", len(plan.Recommendations), plan.Recommendations)
	}

	first, second := plan.Recommendations[0], plan.Recommendations[1]
	if first.CategoryName != "Entertainment" || second.CategoryName != "Food & Dining" {
		t.Fatalf("not sorted by savings descending: %q, %q", first.CategoryName, second.CategoryName)
	}
	if !almostEqual(first.PotentialSavings, 60) || !almostEqual(second.PotentialSavings, 50) {
		t.Fatalf("savings wrong: %v, %v", first.PotentialSavings, second.PotentialSavings)
	}
	if !almostEqual(first.RecommendedBudget, 240) || !almostEqual(second.RecommendedBudget, 950) {
		t.Fatalf("recommended budgets wrong: %v, %v", first.RecommendedBudget, second.RecommendedBudget)
	}
	if !almostEqual(plan.TotalPotentialSavings, 110) {
		t.Fatalf("total savings = %v, want 110", plan.TotalPotentialSavings)
	}
	if !almostEqual(plan.OptimizationScore, 8) {
		t.Fatalf("optimization score = %v, want 8", plan.OptimizationScore)
	}
}

func TestRecommendBudgetsUnknownCategoryNeutral(t *testing.T) {
	plan := recommendBudgets([]CategorySpending{
		{CategoryID: 1, Name: "Куче храна", AvgSpending: 1000},
	})
	if len(plan.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(plan.Recommendations))
	}
	// Neutral necessity 0.5 takes the default 10% reduction.
	if !almostEqual(plan.Recommendations[0].RecommendedBudget, 900) {
		t.Fatalf("recommended = %v, want 900", plan.Recommendations[0].RecommendedBudget)
	}
}

func TestRecommendBudgetsNoSpending(t *testing.T) {
	plan := recommendBudgets(nil)
	if len(plan.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %+v", plan.Recommendations)
	}
	if plan.TotalPotentialSavings != 0 || plan.OptimizationScore != 0 {
		t.Fatalf("expected zero totals, got %+v", plan)
	}
}

func TestMonthlySpendingByCategory(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	expenses := []ExpenseRow{
		expRow(1, 1, 100, jan),
		expRow(2, 1, 200, jan.AddDate(0, 0, 5)),
		expRow(3, 1, 400, feb),
	}
	names := map[int]string{1: "Food & Dining"}

	spending := monthlySpendingByCategory(expenses, names)
	if len(spending) != 1 {
		t.Fatalf("expected 1 category, got %d", len(spending))
	}
	// (300 + 400) averaged over the 2 months that have data.
	if !almostEqual(spending[0].AvgSpending, 350) {
		t.Fatalf("avg spending = %v, want 350", spending[0].AvgSpending)
	}
	if spending[0].Name != "Food & Dining" {
		t.Fatalf("name = %q", spending[0].Name)
	}
}
