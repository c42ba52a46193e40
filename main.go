package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/0xcafe-io/iz"
	"github.com/rs/cors"

	"github.com/spendlens/spendlens/api"
	"github.com/spendlens/spendlens/internal/storage"
	"github.com/spendlens/spendlens/internal/tracker"
	"github.com/spendlens/spendlens/logging"
)

var ft tracker.FinanceTracker // Global

var corsConf = cors.New(cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	AllowedHeaders:   []string{"Authorization", "Content-Type"},
	AllowCredentials: true,
})

func main() {
	if err := logging.Init("debug"); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return
	}

	logging.Logger.Info("application starting...")

	var storageInstance tracker.Storage
	if os.Getenv("STORAGE_DRIVER") == "memory" {
		logging.Logger.Info("using in-memory storage, data will not survive a restart")
		storageInstance = storage.NewInMemoryStorage()
	} else {
		db, err := storage.Init()
		if err != nil {
			logging.Logger.Errorf("failed to initialize database: %v", err)
			return
		}
		storageInstance = storage.NewMySQLStorage(db)
	}

	ft = tracker.NewFinanceTracker(storageInstance)

	server := http.NewServeMux()
	api := api.NewApi(&ft)

	// USER ENDPOINTS.
	server.HandleFunc("POST /api/register", iz.Bind(api.SaveUserHandler)) // Create User
	server.HandleFunc("POST /api/login", iz.Bind(api.LoginUserHandler))   // Login User
	server.HandleFunc("GET /api/logout", iz.Bind(api.LogoutUserHandler))  // Logout User

	// RECORD ENDPOINTS.
	server.HandleFunc("POST /api/expense", iz.Bind(api.SaveExpenseHandler)) // Create Expense
	server.HandleFunc("GET /api/expense", iz.Bind(api.GetExpensesHandler))  // Get Expenses with optional date range
	server.HandleFunc("POST /api/income", iz.Bind(api.SaveIncomeHandler))   // Create Income
	server.HandleFunc("PUT /api/budget", iz.Bind(api.SaveBudgetHandler))    // Create or replace Budget
	server.HandleFunc("GET /api/budget", iz.Bind(api.GetBudgetsHandler))    // Get Budgets

	// INSIGHT ENDPOINTS.
	server.HandleFunc("GET /api/insights/score", iz.Bind(api.GetSpendingScoreHandler))                          // Spending health score
	server.HandleFunc("GET /api/insights/patterns", iz.Bind(api.GetPatternsHandler))                            // Behavioral patterns
	server.HandleFunc("GET /api/insights/predictions", iz.Bind(api.GetPredictionsHandler))                      // Expense forecast
	server.HandleFunc("GET /api/insights/heatmap", iz.Bind(api.GetHeatmapHandler))                              // Calendar heatmap
	server.HandleFunc("GET /api/insights/budget-recommendations", iz.Bind(api.GetBudgetRecommendationsHandler)) // Budget recommendations

	// QUERY ENDPOINTS.
	server.HandleFunc("POST /api/search", iz.Bind(api.SearchHandler)) // Natural-language expense search
	server.HandleFunc("POST /api/chat", iz.Bind(api.ChatHandler))     // Direct chat answers

	port := os.Getenv("APP_PORT")
	if port == "" {
		logging.Logger.Info("APP_PORT environment variable not set, using default port 8080")
		port = "8080"
	}
	fmt.Println("Starting server on port: ", port)
	handlerwithCors := corsConf.Handler(server)
	if err := http.ListenAndServe(":"+port, handlerwithCors); err != nil {
		logging.Logger.Errorf("failed to start server: %v", err)
		return
	}
}
