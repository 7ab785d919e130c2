package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"budget-tracker/currency"
	"budget-tracker/ledger"
	"budget-tracker/middleware"
	"budget-tracker/models"
	"budget-tracker/services"
	"budget-tracker/store"
)

// LedgerHandler exposes the budget operations as endpoints. Each mutation
// loads the caller's snapshot, applies one ledger operation, saves the result
// and notifies the user's other sessions.
type LedgerHandler struct {
	Store   UserStore
	WS      *WSHandler
	Updater *services.RateUpdater
}

// mutate runs one ledger operation against the caller's snapshot and writes
// it back, reporting whether the new state was persisted. Validation failures
// are 400 and leave the stored state untouched.
func (h *LedgerHandler) mutate(c *gin.Context, op func(l *ledger.Ledger) error) bool {
	userID := middleware.GetUserID(c)

	snap, err := h.Store.GetSnapshot(userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data"})
		return false
	}

	if err := op(ledger.New(snap)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	if err := h.Store.SaveSnapshot(userID, *snap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save data"})
		return false
	}

	h.WS.NotifyUser(userID, "data_updated")
	c.JSON(http.StatusOK, snap)
	return true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return 0, false
	}
	return index, true
}

func (h *LedgerHandler) AddExpense(c *gin.Context) {
	var req models.AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, func(l *ledger.Ledger) error {
		return l.AddExpense(req.Name, req.Amount, req.Currency)
	})
}

func (h *LedgerHandler) DeleteExpense(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(l *ledger.Ledger) error {
		return l.DeleteExpense(index)
	})
}

// ListExpenses returns the expenses with display strings. Rate-stamped
// records show the secondary amount frozen at entry time; legacy records are
// converted with the live rate.
func (h *LedgerHandler) ListExpenses(c *gin.Context) {
	userID := middleware.GetUserID(c)

	snap, err := h.Store.GetSnapshot(userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data"})
		return
	}

	l := ledger.New(snap)
	items := make([]gin.H, 0, len(snap.Expenses))
	for _, e := range snap.Expenses {
		secondary := l.SecondaryAmount(e)
		items = append(items, gin.H{
			"name":             e.Name,
			"amount":           e.Amount,
			"display":          currency.Format(currency.Round2(e.Amount), snap.PrimaryCurrency),
			"displaySecondary": currency.Format(currency.Round2(secondary), snap.SecondaryCurrency),
			"legacy":           e.Legacy(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"expenses": items})
}

func (h *LedgerHandler) AddSavingsGoal(c *gin.Context) {
	var req models.AddSavingsGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, func(l *ledger.Ledger) error {
		return l.AddSavingsGoal(req.Name, req.Target, req.Current, req.Currency)
	})
}

func (h *LedgerHandler) DeleteSavingsGoal(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(l *ledger.Ledger) error {
		return l.DeleteSavingsGoal(index)
	})
}

// ListSavings returns the savings goals with display strings and a progress
// percentage clamped to [0,100] for the progress bar.
func (h *LedgerHandler) ListSavings(c *gin.Context) {
	userID := middleware.GetUserID(c)

	snap, err := h.Store.GetSnapshot(userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data"})
		return
	}

	items := make([]gin.H, 0, len(snap.Savings))
	for _, g := range snap.Savings {
		items = append(items, gin.H{
			"name":     g.Name,
			"target":   g.Target,
			"current":  g.Current,
			"display":  currency.Format(currency.Round2(g.Current), snap.PrimaryCurrency) + " / " + currency.Format(currency.Round2(g.Target), snap.PrimaryCurrency),
			"progress": currency.Round2(ledger.ClampedProgress(g)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"savings": items})
}

func (h *LedgerHandler) AddWishlistItem(c *gin.Context) {
	var req models.AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	preTax := req.TaxTiming != "post-tax"
	h.mutate(c, func(l *ledger.Ledger) error {
		return l.AddWishlistItem(req.Name, req.Price, req.Currency, req.ApplyTax, preTax)
	})
}

func (h *LedgerHandler) DeleteWishlistItem(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(l *ledger.Ledger) error {
		return l.DeleteWishlistItem(index)
	})
}

func (h *LedgerHandler) SetBudget(c *gin.Context) {
	var req models.SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, func(l *ledger.Ledger) error {
		return l.SetBudget(req.Amount)
	})
}

// UpdateSettings changes the currency pair, tax rate or manually edited
// exchange rate. A currency change invalidates the rate stamp and kicks off
// a forced refresh in the background, matching the client behavior of
// refetching on pair change.
func (h *LedgerHandler) UpdateSettings(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currencyChanged := false
	saved := h.mutate(c, func(l *ledger.Ledger) error {
		if req.PrimaryCurrency != "" || req.SecondaryCurrency != "" {
			if err := l.SetCurrencies(req.PrimaryCurrency, req.SecondaryCurrency); err != nil {
				return err
			}
			currencyChanged = true
		}
		if req.TaxRate != nil {
			if err := l.SetTaxRate(*req.TaxRate); err != nil {
				return err
			}
		}
		if req.ExchangeRate != nil {
			if err := l.SetExchangeRate(*req.ExchangeRate); err != nil {
				return err
			}
		}
		return nil
	})

	if saved && currencyChanged && h.Updater != nil {
		go func() {
			if err := h.Updater.RefreshUser(context.Background(), userID, true); err != nil {
				log.Printf("⚠️ Rate refresh after currency change failed: %v", err)
			}
		}()
	}
}

// GetTotals returns the budget summary with formatted strings for both
// currencies, converted at the live rate.
func (h *LedgerHandler) GetTotals(c *gin.Context) {
	userID := middleware.GetUserID(c)

	snap, err := h.Store.GetSnapshot(userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data"})
		return
	}

	t := ledger.New(snap).Totals()
	rate := snap.ExchangeRate

	display := func(amount float64) gin.H {
		return gin.H{
			"primary":   currency.Format(currency.Round2(amount), snap.PrimaryCurrency),
			"secondary": currency.Format(currency.Round2(currency.Convert(amount, rate)), snap.SecondaryCurrency),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totals": t,
		"display": gin.H{
			"budget":        display(snap.MonthlyBudget),
			"spent":         display(t.Spent),
			"remaining":     display(t.Remaining),
			"wishlistTotal": display(t.WishlistTotal),
			"afterWishlist": display(t.AfterWishlist),
		},
	})
}
