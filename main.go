package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Check for migrate command
	migrateCmd := flag.Bool("migrate", false, "Run database migration")
	seedDemoCmd := flag.Bool("seed-demo", false, "Seed a demo user with expense history (idempotent)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if *migrateCmd {
		if err := setupDatabase(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed successfully")
		os.Exit(0)
	}
	if *seedDemoCmd {
		if err := initDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		if err := seedDemoData(db); err != nil {
			log.Fatalf("Seeding demo data failed: %v", err)
		}
		log.Println("Demo data seeded")
		os.Exit(0)
	}

	// Initialize database
	if err := initDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	if err := initRedis(); err != nil {
		log.Printf("Warning: Failed to initialize Redis: %v", err)
		log.Println("Continuing without Redis cache...")
		redisClient = nil
	}

	// Setup Gin router
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Routes
	r.GET("/api/health", healthCheck)

	auth := r.Group("/api/auth")
	auth.POST("/register", register)
	auth.POST("/login", login)
	auth.GET("/me", authRequired(), getMe)

	api := r.Group("/api", authRequired())
	api.GET("/expenses", getExpenses)
	api.POST("/expenses", createExpense)
	api.PUT("/expenses/:id", updateExpense)
	api.DELETE("/expenses/:id", deleteExpense)
	api.GET("/categories", getCategories)
	api.POST("/categories", createCategory)
	api.PUT("/categories/:id", updateCategory)
	api.DELETE("/categories/:id", deleteCategory)
	api.GET("/analytics/overview", getAnalyticsOverview)
	api.GET("/analytics/insights", getAnalyticsInsights)

	ai := api.Group("/ai")
	ai.GET("/predictions", getAIPredictions)
	ai.GET("/anomalies", getAIAnomalies)
	ai.GET("/budget-recommendations", getBudgetRecommendations)
	ai.POST("/parse-expense", parseExpense)
	ai.GET("/insights", getAIInsights)
	ai.PUT("/insights/:id/read", markInsightRead)
	ai.GET("/preferences", getAIPreferences)
	ai.PUT("/preferences", updateAIPreferences)
	ai.GET("/spending-breakdown", getSpendingBreakdown)
	ai.POST("/set-budget-goal", setBudgetGoal)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
