package routes

import (
	"github.com/gin-gonic/gin"

	"budget-tracker/handlers"
	"budget-tracker/services"
	"budget-tracker/store"
)

// SetupAuthRoutes sets up the public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, st *store.FileStore) {
	authHandler := &handlers.AuthHandler{Store: st}

	rg.POST("/register", authHandler.Register)
	rg.POST("/login", authHandler.Login)
}

// SetupDataRoutes sets up the protected snapshot, ledger and rate routes.
func SetupDataRoutes(rg *gin.RouterGroup, st *store.FileStore, ws *handlers.WSHandler, updater *services.RateUpdater) {
	dataHandler := &handlers.DataHandler{Store: st, WS: ws}

	rg.GET("/data", dataHandler.GetData)
	rg.POST("/data", dataHandler.SaveData)

	ledgerHandler := &handlers.LedgerHandler{Store: st, WS: ws, Updater: updater}

	rg.GET("/expenses", ledgerHandler.ListExpenses)
	rg.POST("/expenses", ledgerHandler.AddExpense)
	rg.DELETE("/expenses/:index", ledgerHandler.DeleteExpense)

	rg.GET("/savings", ledgerHandler.ListSavings)
	rg.POST("/savings", ledgerHandler.AddSavingsGoal)
	rg.DELETE("/savings/:index", ledgerHandler.DeleteSavingsGoal)

	rg.POST("/wishlist", ledgerHandler.AddWishlistItem)
	rg.DELETE("/wishlist/:index", ledgerHandler.DeleteWishlistItem)

	rg.PUT("/budget", ledgerHandler.SetBudget)
	rg.PUT("/settings", ledgerHandler.UpdateSettings)
	rg.GET("/totals", ledgerHandler.GetTotals)

	rateHandler := &handlers.RateHandler{Store: st, Updater: updater}

	rg.GET("/rate", rateHandler.GetRate)
	rg.POST("/rate/refresh", rateHandler.Refresh)

	rg.GET("/ws", ws.HandleWS)
}
