package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Trailing windows the AI endpoints fetch data over. These are interpolated
// into SQL, so they stay fixed constants.
const (
	predictionWindow = "16 weeks"
	recentWindow     = "2 weeks"
	statsWindow      = "3 months"
	budgetWindow     = "6 months"
)

// fetchExpenseRows loads a user's expenses over a trailing window in the
// shape the analytics core consumes.
func fetchExpenseRows(userID int, window string) ([]ExpenseRow, error) {
	query := fmt.Sprintf(`
		SELECT e.id, e.category_id, COALESCE(c.name, ''), e.amount, e.expense_date
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = $1 AND e.expense_date >= CURRENT_DATE - INTERVAL '%s'
		ORDER BY e.expense_date`, window)

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]ExpenseRow, 0)
	for rows.Next() {
		var e ExpenseRow
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.CategoryName, &e.Amount, &e.Date); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// loadAIPreferences returns a user's AI toggles, creating the default row
// on first access.
func loadAIPreferences(userID int) (AIPreferences, error) {
	prefs := AIPreferences{
		EnablePredictions:      true,
		EnableAnomalyDetection: true,
		EnableSmartBudgeting:   true,
		NotificationFrequency:  "daily",
	}

	err := db.QueryRow(
		`SELECT enable_predictions, enable_anomaly_detection, enable_smart_budgeting, notification_frequency
		 FROM user_ai_preferences WHERE user_id = $1`,
		userID,
	).Scan(&prefs.EnablePredictions, &prefs.EnableAnomalyDetection, &prefs.EnableSmartBudgeting, &prefs.NotificationFrequency)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := db.Exec(`INSERT INTO user_ai_preferences (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID); err != nil {
			return prefs, err
		}
		return prefs, nil
	}
	return prefs, err
}

// getAIPredictions computes the monthly spending forecast and records it as
// an audit row when it predicts a positive amount.
func getAIPredictions(c *gin.Context) {
	userID := currentUserID(c)

	prefs, err := loadAIPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate ML predictions"})
		return
	}
	if !prefs.EnablePredictions {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Predictions are disabled in your AI preferences",
		})
		return
	}

	expenses, err := fetchExpenseRows(userID, predictionWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate ML predictions"})
		return
	}

	prediction := predictSpending(aggregateWeekly(expenses))

	if prediction.PredictedAmount > 0 {
		_, err := db.Exec(
			`INSERT INTO predictions (user_id, prediction_type, predicted_amount, predicted_date, confidence_score)
			 VALUES ($1, $2, $3, $4, $5)`,
			userID, "monthly_ml", prediction.PredictedAmount,
			time.Now().AddDate(0, 0, 30).Format("2006-01-02"), prediction.ConfidenceScore,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate ML predictions"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"prediction":   prediction,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// getAIAnomalies runs anomaly detection over the last two weeks of
// expenses and persists any new anomalies (insert-if-absent per expense).
func getAIAnomalies(c *gin.Context) {
	userID := currentUserID(c)

	prefs, err := loadAIPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to detect anomalies"})
		return
	}
	if !prefs.EnableAnomalyDetection {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Anomaly detection is disabled in your AI preferences",
		})
		return
	}

	recent, err := fetchExpenseRows(userID, recentWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to detect anomalies"})
		return
	}
	history, err := fetchExpenseRows(userID, statsWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to detect anomalies"})
		return
	}

	anomalies := detectAnomalies(recent, computeCategoryStats(history))

	for _, a := range anomalies {
		var existingID int
		err := db.QueryRow(
			`SELECT id FROM anomalies WHERE user_id = $1 AND expense_id = $2`,
			userID, a.ExpenseID,
		).Scan(&existingID)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to detect anomalies"})
			return
		}

		_, err = db.Exec(
			`INSERT INTO anomalies (user_id, expense_id, anomaly_type, severity_score, description, expected_value, actual_value)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			userID, a.ExpenseID, a.AnomalyType, a.SeverityScore, a.Description, a.ExpectedValue, a.ActualValue,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to detect anomalies"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"anomalies":        anomalies,
		"detection_method": "statistical_analysis",
		"generated_at":     time.Now().UTC().Format(time.RFC3339),
	})
}

// getBudgetRecommendations computes per-category budget cuts from six
// months of spending history.
func getBudgetRecommendations(c *gin.Context) {
	userID := currentUserID(c)

	prefs, err := loadAIPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate smart recommendations"})
		return
	}
	if !prefs.EnableSmartBudgeting {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Smart budgeting is disabled in your AI preferences",
		})
		return
	}

	expenses, err := fetchExpenseRows(userID, budgetWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate smart recommendations"})
		return
	}

	names := make(map[int]string)
	for _, e := range expenses {
		if e.CategoryID != nil {
			names[*e.CategoryID] = e.CategoryName
		}
	}

	plan := recommendBudgets(monthlySpendingByCategory(expenses, names))

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"recommendations":         plan.Recommendations,
		"total_potential_savings": plan.TotalPotentialSavings,
		"optimization_score":      plan.OptimizationScore,
		"generated_at":            time.Now().UTC().Format(time.RFC3339),
	})
}

type parseExpenseRequest struct {
	Text string `json:"text"`
}

// parseExpense runs the free-text parser and records the attempt in the
// parse history.
func parseExpense(c *gin.Context) {
	userID := currentUserID(c)

	var req parseExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Text input required",
		})
		return
	}

	parsed := parseExpenseText(req.Text, time.Now())

	_, err := db.Exec(
		`INSERT INTO nlp_parse_history (user_id, raw_input, parsed_amount, parsed_category, parsed_description, confidence_score)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, req.Text, parsed.Amount, parsed.Category, parsed.Description, parsed.Confidence,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to parse expense",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"parsed":             parsed,
		"needs_confirmation": parsed.Confidence < 0.8,
		"suggestions": gin.H{
			"amount":      parsed.Amount,
			"category":    parsed.Category,
			"description": parsed.Description,
			"date":        parsed.Date,
			"currency":    parsed.Currency,
		},
	})
}

// getAIInsights returns generated tips for the AI dashboard
func getAIInsights(c *gin.Context) {
	userID := currentUserID(c)

	insights := []Insight{
		{
			ID:              time.Now().UnixMilli(),
			UserID:          userID,
			InsightType:     "tip",
			Title:           "AI Learning Progress",
			Description:     "Your AI assistant is continuously learning from your spending patterns to provide more accurate predictions and better recommendations.",
			ImportanceLevel: "medium",
			IsRead:          false,
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"insights":     insights,
		"unread_count": len(insights),
		"ml_powered":   true,
	})
}

// markInsightRead flags a stored insight as read
func markInsightRead(c *gin.Context) {
	userID := currentUserID(c)
	insightID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid insight id"})
		return
	}

	_, err = db.Exec(
		`UPDATE ai_insights SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		insightID, userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark insight as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Insight marked as read",
	})
}

// getAIPreferences returns the user's AI feature toggles
func getAIPreferences(c *gin.Context) {
	userID := currentUserID(c)

	prefs, err := loadAIPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get AI preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"preferences": prefs,
	})
}

// updateAIPreferences upserts the user's AI feature toggles
func updateAIPreferences(c *gin.Context) {
	userID := currentUserID(c)

	prefs := AIPreferences{
		EnablePredictions:      true,
		EnableAnomalyDetection: true,
		EnableSmartBudgeting:   true,
		NotificationFrequency:  "daily",
	}
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	_, err := db.Exec(
		`INSERT INTO user_ai_preferences (user_id, enable_predictions, enable_anomaly_detection, enable_smart_budgeting, notification_frequency)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
			enable_predictions = EXCLUDED.enable_predictions,
			enable_anomaly_detection = EXCLUDED.enable_anomaly_detection,
			enable_smart_budgeting = EXCLUDED.enable_smart_budgeting,
			notification_frequency = EXCLUDED.notification_frequency`,
		userID, prefs.EnablePredictions, prefs.EnableAnomalyDetection, prefs.EnableSmartBudgeting, prefs.NotificationFrequency,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update AI preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "AI preferences updated successfully",
	})
}

// getSpendingBreakdown reports per-category spending shares over a period,
// served from Redis when possible.
func getSpendingBreakdown(c *gin.Context) {
	ctx := context.Background()
	userID := currentUserID(c)

	period := c.DefaultQuery("period", "month")
	var interval string
	switch period {
	case "week":
		interval = "1 week"
	case "year":
		interval = "1 year"
	default:
		period = "month"
		interval = "1 month"
	}

	if redisClient != nil {
		cached, err := redisClient.Get(ctx, breakdownCacheKey(userID, period)).Result()
		if err == nil {
			var breakdown []CategoryBreakdown
			if err := json.Unmarshal([]byte(cached), &breakdown); err == nil {
				c.JSON(http.StatusOK, gin.H{
					"success":   true,
					"breakdown": breakdown,
					"period":    period,
					"cached":    true,
				})
				return
			}
		}
	}

	query := fmt.Sprintf(`
		SELECT c.name as category, c.color,
		       SUM(e.amount) as total,
		       COUNT(e.id) as transaction_count,
		       AVG(e.amount) as avg_transaction,
		       SUM(e.amount) * 100.0 / SUM(SUM(e.amount)) OVER () as percentage
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = $1 AND e.expense_date >= CURRENT_DATE - INTERVAL '%s'
		GROUP BY c.id, c.name, c.color
		ORDER BY total DESC`, interval)

	rows, err := db.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get spending breakdown"})
		return
	}
	defer rows.Close()

	breakdown := make([]CategoryBreakdown, 0)
	for rows.Next() {
		var b CategoryBreakdown
		if err := rows.Scan(&b.Category, &b.Color, &b.Total, &b.TransactionCount, &b.AvgTransaction, &b.Percentage); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get spending breakdown"})
			return
		}
		breakdown = append(breakdown, b)
	}

	if redisClient != nil {
		if data, err := json.Marshal(breakdown); err == nil {
			redisClient.SetEx(ctx, breakdownCacheKey(userID, period), data, 5*time.Minute)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"breakdown":    breakdown,
		"period":       period,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

type budgetGoalRequest struct {
	TargetAmount float64 `json:"target_amount"`
	Period       string  `json:"period"`
	CategoryID   *int    `json:"category_id"`
}

// setBudgetGoal records a budget target for a category (or overall)
func setBudgetGoal(c *gin.Context) {
	userID := currentUserID(c)

	var req budgetGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TargetAmount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Valid target amount is required"})
		return
	}
	if req.Period == "" {
		req.Period = "monthly"
	}

	var budgetID int
	err := db.QueryRow(
		`INSERT INTO budgets (user_id, category_id, amount, period, start_date, is_active)
		 VALUES ($1, $2, $3, $4, CURRENT_DATE, TRUE)
		 RETURNING id`,
		userID, req.CategoryID, req.TargetAmount, req.Period,
	).Scan(&budgetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to set budget goal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Budget goal set successfully",
		"budget_id": budgetID,
	})
}
