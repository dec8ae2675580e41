package app

import (
	"github.com/finote/finote/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Session lifecycle
	r.HandleFunc("/api/session", deps.SessionHandler.Login).Methods("POST")
	r.HandleFunc("/api/session", deps.SessionHandler.Logout).Methods("DELETE")

	// Expenses
	r.HandleFunc("/api/expense", deps.SessionHandler.ListExpenses).Methods("GET")
	r.HandleFunc("/api/expense", deps.SessionHandler.AddExpense).Methods("POST")
	r.HandleFunc("/api/expense/{id}", deps.SessionHandler.UpdateExpense).Methods("PUT")
	r.HandleFunc("/api/expense/{id}", deps.SessionHandler.DeleteExpense).Methods("DELETE")

	// Budgets
	r.HandleFunc("/api/budget", deps.SessionHandler.GetBudgets).Methods("GET")
	r.HandleFunc("/api/budget", deps.SessionHandler.UpdateBudgets).Methods("PUT")

	// Profile (settings, planning lists, gamification state)
	r.HandleFunc("/api/profile", deps.SessionHandler.GetProfile).Methods("GET")
	r.HandleFunc("/api/profile/settings", deps.SessionHandler.UpdateSettings).Methods("PUT")
	r.HandleFunc("/api/profile/goals", deps.SessionHandler.UpdateGoals).Methods("PUT")
	r.HandleFunc("/api/profile/regrets", deps.SessionHandler.UpdateRegrets).Methods("PUT")
	r.HandleFunc("/api/profile/future", deps.SessionHandler.UpdateFuturePurchases).Methods("PUT")
	r.HandleFunc("/api/profile/subscriptions", deps.SessionHandler.UpdateSubscriptions).Methods("PUT")

	// Receipt scanner hand-off
	r.HandleFunc("/api/receipt", deps.SessionHandler.ScanReceipt).Methods("POST")

	// Operational
	r.HandleFunc("/api/health", deps.SessionHandler.Health).Methods("GET")
}
