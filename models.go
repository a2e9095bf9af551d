package main

// User represents a registered account holder
type User struct {
	ID                int    `json:"id"`
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	PreferredCurrency string `json:"preferred_currency"`
	CreatedAt         string `json:"created_at"`
}

// Category represents a per-user expense category
type Category struct {
	ID        int    `json:"id"`
	UserID    int    `json:"-"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	CreatedAt string `json:"created_at"`
}

// Expense represents a single recorded expense
type Expense struct {
	ID            int     `json:"id"`
	UserID        int     `json:"-"`
	CategoryID    *int    `json:"category_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
	ExpenseDate   string  `json:"expense_date"`
	CreatedAt     string  `json:"created_at"`
	CategoryName  *string `json:"category_name"`
	CategoryColor *string `json:"category_color"`
}

// ExpenseInput is the request body for creating/updating an expense
type ExpenseInput struct {
	Amount      float64 `json:"amount"`
	CategoryID  *int    `json:"category_id"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	ExpenseDate string  `json:"expense_date"`
}

// Pagination describes the paging envelope on list responses
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// Prediction is the spending forecast produced by the analytics core
type Prediction struct {
	PredictedAmount     float64 `json:"predicted_amount"`
	ConfidenceScore     float64 `json:"confidence_score"`
	TrendDirection      string  `json:"trend_direction"`
	SeasonalityDetected bool    `json:"seasonality_detected"`
	ModelUsed           string  `json:"model_used"`
	DataPoints          int     `json:"data_points"`
	VolatilityScore     float64 `json:"volatility_score"`
	Message             string  `json:"message,omitempty"`
}

// Anomaly flags a recent expense whose amount exceeds the statistical
// threshold for its category
type Anomaly struct {
	ExpenseID     int     `json:"expense_id"`
	AnomalyType   string  `json:"anomaly_type"`
	SeverityScore float64 `json:"severity_score"`
	Description   string  `json:"description"`
	ExpectedValue float64 `json:"expected_value"`
	ActualValue   float64 `json:"actual_value"`
	MLConfidence  float64 `json:"ml_confidence"`
}

// BudgetRecommendation suggests a reduced budget for one category
type BudgetRecommendation struct {
	CategoryID        int     `json:"category_id"`
	CategoryName      string  `json:"category_name"`
	CurrentBudget     float64 `json:"current_budget"`
	RecommendedBudget float64 `json:"recommended_budget"`
	Reasoning         string  `json:"reasoning"`
	ConfidenceScore   float64 `json:"confidence_score"`
	PotentialSavings  float64 `json:"potential_savings"`
}

// BudgetPlan is the full recommendation response
type BudgetPlan struct {
	Recommendations       []BudgetRecommendation `json:"recommendations"`
	TotalPotentialSavings float64                `json:"total_potential_savings"`
	OptimizationScore     float64                `json:"optimization_score"`
}

// ParsedExpense is the result of free-text expense parsing
type ParsedExpense struct {
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Currency    string   `json:"currency"`
	Confidence  float64  `json:"confidence"`
}

// AIPreferences holds per-user AI feature toggles
type AIPreferences struct {
	EnablePredictions      bool   `json:"enable_predictions"`
	EnableAnomalyDetection bool   `json:"enable_anomaly_detection"`
	EnableSmartBudgeting   bool   `json:"enable_smart_budgeting"`
	NotificationFrequency  string `json:"notification_frequency"`
}

// Insight is a generated tip surfaced on the AI dashboard
type Insight struct {
	ID              int64  `json:"id"`
	UserID          int    `json:"user_id"`
	InsightType     string `json:"insight_type"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ImportanceLevel string `json:"importance_level"`
	IsRead          bool   `json:"is_read"`
	CreatedAt       string `json:"created_at"`
}

// CategoryBreakdown is one row of the spending-breakdown report
type CategoryBreakdown struct {
	Category         string  `json:"category"`
	Color            string  `json:"color"`
	Total            float64 `json:"total"`
	TransactionCount int     `json:"transaction_count"`
	AvgTransaction   float64 `json:"avg_transaction"`
	Percentage       float64 `json:"percentage"`
}

// AnalyticsCategory is one per-category slice of the overview report
type AnalyticsCategory struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Amount float64 `json:"amount"`
}

// DailyTotal is one point of the overview daily series
type DailyTotal struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// AnalyticsOverview summarizes spending over a period
type AnalyticsOverview struct {
	Total      float64             `json:"total"`
	Categories []AnalyticsCategory `json:"categories"`
	Daily      []DailyTotal        `json:"daily"`
}

// TopCategory names the biggest spending category this month
type TopCategory struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// AnalyticsInsights compares the current month against the previous one
type AnalyticsInsights struct {
	CurrentMonth     float64      `json:"current_month"`
	PreviousMonth    float64      `json:"previous_month"`
	ChangePercentage float64      `json:"change_percentage"`
	TopCategory      *TopCategory `json:"top_category"`
}
