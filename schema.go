package main

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		full_name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		preferred_currency VARCHAR(3) DEFAULT 'MKD',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		color VARCHAR(7) DEFAULT '#3B82F6',
		icon VARCHAR(16) DEFAULT 'folder',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category_id INTEGER REFERENCES categories(id),
		amount DECIMAL(12,2) NOT NULL CHECK (amount >= 0),
		currency VARCHAR(3) DEFAULT 'MKD',
		description VARCHAR(500) NOT NULL,
		expense_date DATE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		prediction_type VARCHAR(50) NOT NULL,
		predicted_amount DECIMAL(12,2) NOT NULL,
		predicted_date DATE NOT NULL,
		confidence_score DECIMAL(3,2) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS anomalies (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expense_id INTEGER NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		anomaly_type VARCHAR(50) NOT NULL,
		severity_score DECIMAL(3,2) NOT NULL,
		description TEXT,
		expected_value DECIMAL(12,2),
		actual_value DECIMAL(12,2),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS budgets (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category_id INTEGER REFERENCES categories(id),
		amount DECIMAL(12,2) NOT NULL,
		period VARCHAR(20) DEFAULT 'monthly',
		start_date DATE NOT NULL,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_ai_preferences (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		enable_predictions BOOLEAN DEFAULT TRUE,
		enable_anomaly_detection BOOLEAN DEFAULT TRUE,
		enable_smart_budgeting BOOLEAN DEFAULT TRUE,
		notification_frequency VARCHAR(20) DEFAULT 'daily',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS nlp_parse_history (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		raw_input TEXT NOT NULL,
		parsed_amount DECIMAL(12,2),
		parsed_category VARCHAR(100),
		parsed_description VARCHAR(500),
		confidence_score DECIMAL(3,2),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ai_insights (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		insight_type VARCHAR(50) NOT NULL,
		title VARCHAR(200) NOT NULL,
		description TEXT,
		importance_level VARCHAR(20) DEFAULT 'medium',
		is_read BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, expense_date);
	CREATE INDEX IF NOT EXISTS idx_anomalies_user_expense ON anomalies(user_id, expense_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_user_name ON categories(user_id, name);
`

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// defaultCategories are created for every new user at registration.
var defaultCategories = []struct {
	Name  string
	Color string
	Icon  string
}{
	{"Food & Dining", "#EF4444", "🍕"},
	{"Transportation", "#3B82F6", "🚗"},
	{"Shopping", "#8B5CF6", "🛒"},
	{"Entertainment", "#F59E0B", "🎬"},
	{"Bills & Utilities", "#10B981", "💡"},
	{"Healthcare", "#EC4899", "🏥"},
	{"Education", "#6366F1", "📚"},
	{"Other", "#6B7280", "📋"},
}

// createDefaultCategories seeds the standard category set for a user that
// has none yet.
func createDefaultCategories(db *sql.DB, userID int) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return fmt.Errorf("checking category count: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, cat := range defaultCategories {
		_, err := db.Exec(
			`INSERT INTO categories (user_id, name, color, icon) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			userID, cat.Name, cat.Color, cat.Icon,
		)
		if err != nil {
			return fmt.Errorf("seeding category %q: %w", cat.Name, err)
		}
	}
	return nil
}

// Seed a demo user with ~16 weeks of expenses for presentations.
// Idempotent: skipped when the demo user already exists.
func seedDemoData(db *sql.DB) error {
	var existing int
	err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = 'demo@fintrack.mk'`).Scan(&existing)
	if err != nil {
		return fmt.Errorf("checking demo user: %w", err)
	}
	if existing > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), 10)
	if err != nil {
		return err
	}

	var userID int
	err = db.QueryRow(
		`INSERT INTO users (full_name, email, password_hash, preferred_currency)
		 VALUES ('Demo Korisnik', 'demo@fintrack.mk', $1, 'MKD') RETURNING id`,
		string(hash),
	).Scan(&userID)
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}

	if err := createDefaultCategories(db, userID); err != nil {
		return err
	}

	categoryIDs := make(map[string]int)
	rows, err := db.Query(`SELECT id, name FROM categories WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		categoryIDs[name] = id
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Spread plausible expenses over the trailing 16 weeks so the AI
	// endpoints have enough history to work with.
	type demoExpense struct {
		category    string
		amount      float64
		description string
	}
	weeklyPattern := []demoExpense{
		{"Food & Dining", 850, "Пазар - Tinex"},
		{"Food & Dining", 420, "Lunch at Pelister"},
		{"Transportation", 150, "Bus pass top-up"},
		{"Entertainment", 350, "Cinema - Cineplexx"},
	}

	now := time.Now()
	for week := 0; week < 16; week++ {
		base := now.AddDate(0, 0, -7*week)
		for i, e := range weeklyPattern {
			// Mild drift so aggregates are not perfectly flat.
			amount := math.Round(e.amount * (1 + 0.02*float64(week%5)))
			date := base.AddDate(0, 0, -i)
			_, err := tx.Exec(
				`INSERT INTO expenses (user_id, category_id, amount, currency, description, expense_date)
				 VALUES ($1, $2, $3, 'MKD', $4, $5)`,
				userID, categoryIDs[e.category], amount, e.description, date.Format("2006-01-02"),
			)
			if err != nil {
				return fmt.Errorf("seeding demo expenses: %w", err)
			}
		}
	}

	// Monthly bills and one outlier for the anomaly detector to find.
	for month := 0; month < 4; month++ {
		date := now.AddDate(0, -month, 0)
		_, err := tx.Exec(
			`INSERT INTO expenses (user_id, category_id, amount, currency, description, expense_date)
			 VALUES ($1, $2, $3, 'MKD', $4, $5)`,
			userID, categoryIDs["Bills & Utilities"], 2400.0, "ЕВН струја", date.Format("2006-01-02"),
		)
		if err != nil {
			return fmt.Errorf("seeding demo bills: %w", err)
		}
	}
	_, err = tx.Exec(
		`INSERT INTO expenses (user_id, category_id, amount, currency, description, expense_date)
		 VALUES ($1, $2, 3200, 'MKD', 'Dinner for the whole team', $3)`,
		userID, categoryIDs["Food & Dining"], now.AddDate(0, 0, -3).Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("seeding demo outlier: %w", err)
	}

	const demoBudgets = `
	INSERT INTO budgets (user_id, category_id, amount, period, start_date) VALUES
	($1, $2, 6000.00, 'monthly', date_trunc('month', CURRENT_DATE)::date),
	($1, $3, 1500.00, 'monthly', date_trunc('month', CURRENT_DATE)::date)
	`
	if _, err := tx.Exec(demoBudgets, userID, categoryIDs["Food & Dining"], categoryIDs["Entertainment"]); err != nil {
		return fmt.Errorf("seeding demo budgets: %w", err)
	}

	return tx.Commit()
}
