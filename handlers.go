package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	if err := db.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fintrack-api",
	})
}

type expenseListResponse struct {
	Expenses   []Expense  `json:"expenses"`
	Pagination Pagination `json:"pagination"`
}

// getExpenses lists the user's expenses with optional filters and
// pagination. The unfiltered first page is served from Redis when possible.
func getExpenses(c *gin.Context) {
	ctx := context.Background()
	userID := currentUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	category := c.Query("category")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	unfiltered := category == "" && startDate == "" && endDate == "" && page == 1 && limit == 20

	if unfiltered && redisClient != nil {
		cached, err := redisClient.Get(ctx, expensesCacheKey(userID)).Result()
		if err == nil {
			var resp expenseListResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	query := `
		SELECT e.id, e.category_id, e.amount, e.currency, e.description, e.expense_date, e.created_at,
		       c.name as category_name, c.color as category_color
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = $1
	`
	args := []interface{}{userID}

	if category != "" {
		args = append(args, category)
		query += " AND e.category_id = $" + strconv.Itoa(len(args))
	}
	if startDate != "" {
		args = append(args, startDate)
		query += " AND e.expense_date >= $" + strconv.Itoa(len(args))
	}
	if endDate != "" {
		args = append(args, endDate)
		query += " AND e.expense_date <= $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY e.expense_date DESC, e.created_at DESC"
	args = append(args, limit)
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, (page-1)*limit)
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := db.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching expenses"})
		return
	}
	defer rows.Close()

	// ensure empty array ([]) instead of null when no rows
	expenses := make([]Expense, 0)

	for rows.Next() {
		var e Expense
		err := rows.Scan(
			&e.ID, &e.CategoryID, &e.Amount, &e.Currency, &e.Description, &e.ExpenseDate, &e.CreatedAt,
			&e.CategoryName, &e.CategoryColor,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching expenses"})
			return
		}
		expenses = append(expenses, e)
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM expenses WHERE user_id = $1`, userID).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching expenses"})
		return
	}

	totalPages := (total + limit - 1) / limit
	resp := expenseListResponse{
		Expenses: expenses,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
		},
	}

	if unfiltered && redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			redisClient.SetEx(ctx, expensesCacheKey(userID), data, 60*time.Second)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func validateExpenseInput(in ExpenseInput) string {
	switch {
	case in.Amount <= 0:
		return "Valid amount is required"
	case in.CategoryID == nil:
		return "Category is required"
	case in.ExpenseDate == "":
		return "Expense date is required"
	case strings.TrimSpace(in.Description) == "":
		return "Description is required"
	case len(in.Description) > 500:
		return "Description too long"
	case in.Currency != "" && !validCurrency(in.Currency):
		return "Invalid currency. Must be MKD, EUR, or USD"
	}
	return ""
}

// createExpense records a new expense
func createExpense(c *gin.Context) {
	userID := currentUserID(c)

	var in ExpenseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if msg := validateExpenseInput(in); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
		return
	}
	if in.Currency == "" {
		in.Currency = "MKD"
	}

	var id int
	err := db.QueryRow(
		`INSERT INTO expenses (user_id, category_id, amount, currency, description, expense_date)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, in.CategoryID, in.Amount, in.Currency, in.Description, in.ExpenseDate,
	).Scan(&id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error creating expense"})
		return
	}

	var e Expense
	err = db.QueryRow(
		`SELECT e.id, e.category_id, e.amount, e.currency, e.description, e.expense_date, e.created_at,
		        c.name as category_name, c.color as category_color
		 FROM expenses e
		 LEFT JOIN categories c ON e.category_id = c.id
		 WHERE e.id = $1`,
		id,
	).Scan(
		&e.ID, &e.CategoryID, &e.Amount, &e.Currency, &e.Description, &e.ExpenseDate, &e.CreatedAt,
		&e.CategoryName, &e.CategoryColor,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error creating expense"})
		return
	}

	invalidateUserCaches(context.Background(), userID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Expense created successfully",
		"expense": e,
	})
}

// updateExpense modifies an existing expense owned by the user
func updateExpense(c *gin.Context) {
	userID := currentUserID(c)
	expenseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid expense id"})
		return
	}

	var in ExpenseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if msg := validateExpenseInput(in); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
		return
	}
	if in.Currency == "" {
		in.Currency = "MKD"
	}

	var e Expense
	err = db.QueryRow(
		`UPDATE expenses
		 SET amount = $1, category_id = $2, description = $3, expense_date = $4, currency = $5,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6 AND user_id = $7
		 RETURNING id, category_id, amount, currency, description, expense_date, created_at`,
		in.Amount, in.CategoryID, in.Description, in.ExpenseDate, in.Currency, expenseID, userID,
	).Scan(&e.ID, &e.CategoryID, &e.Amount, &e.Currency, &e.Description, &e.ExpenseDate, &e.CreatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
		return
	}

	invalidateUserCaches(context.Background(), userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Expense updated successfully",
		"expense": e,
	})
}

// deleteExpense removes an expense owned by the user
func deleteExpense(c *gin.Context) {
	userID := currentUserID(c)
	expenseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid expense id"})
		return
	}

	result, err := db.Exec(`DELETE FROM expenses WHERE id = $1 AND user_id = $2`, expenseID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error deleting expense"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
		return
	}

	invalidateUserCaches(context.Background(), userID)

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// getCategories retrieves the user's categories
func getCategories(c *gin.Context) {
	userID := currentUserID(c)

	rows, err := db.Query(
		`SELECT id, name, color, icon, created_at FROM categories WHERE user_id = $1 ORDER BY name`,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching categories"})
		return
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &cat.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching categories"})
			return
		}
		categories = append(categories, cat)
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type categoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// createCategory adds a category for the user
func createCategory(c *gin.Context) {
	userID := currentUserID(c)

	var in categoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Category name is required"})
		return
	}
	if len(in.Name) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Category name too long"})
		return
	}
	if in.Color == "" {
		in.Color = "#3B82F6"
	}
	if in.Icon == "" {
		in.Icon = "folder"
	}

	var cat Category
	err := db.QueryRow(
		`INSERT INTO categories (user_id, name, color, icon)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, color, icon, created_at`,
		userID, in.Name, in.Color, in.Icon,
	).Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &cat.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error creating category"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": cat,
	})
}

// updateCategory renames or restyles a category owned by the user
func updateCategory(c *gin.Context) {
	userID := currentUserID(c)
	categoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category id"})
		return
	}

	var in categoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Category name is required"})
		return
	}

	var cat Category
	err = db.QueryRow(
		`UPDATE categories SET name = $1, color = $2, icon = $3
		 WHERE id = $4 AND user_id = $5
		 RETURNING id, name, color, icon, created_at`,
		in.Name, in.Color, in.Icon, categoryID, userID,
	).Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &cat.CreatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Category updated successfully",
		"category": cat,
	})
}

// deleteCategory removes a category that has no expenses
func deleteCategory(c *gin.Context) {
	userID := currentUserID(c)
	categoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category id"})
		return
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM expenses WHERE category_id = $1`, categoryID).Scan(&count); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error deleting category"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot delete category with existing expenses"})
		return
	}

	result, err := db.Exec(`DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error deleting category"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// getAnalyticsOverview summarizes spending over the requested trailing
// period (days)
func getAnalyticsOverview(c *gin.Context) {
	userID := currentUserID(c)

	period, err := strconv.Atoi(c.DefaultQuery("period", "30"))
	if err != nil || period < 1 || period > 366 {
		period = 30
	}
	startDate := time.Now().AddDate(0, 0, -period).Format("2006-01-02")

	var total float64
	err = db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = $1 AND expense_date >= $2`,
		userID, startDate,
	).Scan(&total)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch analytics data"})
		return
	}

	rows, err := db.Query(
		`SELECT c.name, c.color, COALESCE(SUM(e.amount), 0) as amount
		 FROM categories c
		 LEFT JOIN expenses e ON c.id = e.category_id AND e.user_id = $1 AND e.expense_date >= $2
		 WHERE c.user_id = $1
		 GROUP BY c.id, c.name, c.color
		 ORDER BY amount DESC`,
		userID, startDate,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch analytics data"})
		return
	}
	defer rows.Close()

	categories := make([]AnalyticsCategory, 0)
	for rows.Next() {
		var cat AnalyticsCategory
		if err := rows.Scan(&cat.Name, &cat.Color, &cat.Amount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch analytics data"})
			return
		}
		categories = append(categories, cat)
	}

	dailyRows, err := db.Query(
		`SELECT expense_date, SUM(amount) as amount
		 FROM expenses
		 WHERE user_id = $1 AND expense_date >= $2
		 GROUP BY expense_date
		 ORDER BY expense_date`,
		userID, startDate,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch analytics data"})
		return
	}
	defer dailyRows.Close()

	daily := make([]DailyTotal, 0)
	for dailyRows.Next() {
		var d DailyTotal
		if err := dailyRows.Scan(&d.Date, &d.Amount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch analytics data"})
			return
		}
		daily = append(daily, d)
	}

	c.JSON(http.StatusOK, AnalyticsOverview{
		Total:      total,
		Categories: categories,
		Daily:      daily,
	})
}

// getAnalyticsInsights compares this month's spending with last month's
func getAnalyticsInsights(c *gin.Context) {
	userID := currentUserID(c)

	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	firstOfPrevious := firstOfMonth.AddDate(0, -1, 0)

	var currentTotal, previousTotal float64
	err := db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = $1 AND expense_date >= $2`,
		userID, firstOfMonth.Format("2006-01-02"),
	).Scan(&currentTotal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch insights data"})
		return
	}

	err = db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM expenses
		 WHERE user_id = $1 AND expense_date >= $2 AND expense_date < $3`,
		userID, firstOfPrevious.Format("2006-01-02"), firstOfMonth.Format("2006-01-02"),
	).Scan(&previousTotal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch insights data"})
		return
	}

	var top *TopCategory
	var name string
	var amount float64
	err = db.QueryRow(
		`SELECT c.name, SUM(e.amount) as amount
		 FROM expenses e
		 JOIN categories c ON e.category_id = c.id
		 WHERE e.user_id = $1 AND e.expense_date >= $2
		 GROUP BY c.id, c.name
		 ORDER BY amount DESC
		 LIMIT 1`,
		userID, firstOfMonth.Format("2006-01-02"),
	).Scan(&name, &amount)
	if err == nil {
		top = &TopCategory{Name: name, Amount: amount}
	}

	change := 0.0
	if previousTotal > 0 {
		change = round2((currentTotal - previousTotal) / previousTotal * 100)
	}

	c.JSON(http.StatusOK, AnalyticsInsights{
		CurrentMonth:     currentTotal,
		PreviousMonth:    previousTotal,
		ChangePercentage: change,
		TopCategory:      top,
	})
}
