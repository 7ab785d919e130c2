package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budget-tracker/middleware"
	"budget-tracker/services"
	"budget-tracker/store"
)

// RateHandler exposes the exchange rate state and the manual refresh trigger.
type RateHandler struct {
	Store   UserStore
	Updater *services.RateUpdater
}

func (h *RateHandler) GetRate(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"primaryCurrency":   snap.PrimaryCurrency,
		"secondaryCurrency": snap.SecondaryCurrency,
		"rate":              snap.ExchangeRate,
		"lastRateUpdate":    snap.LastRateUpdate,
		"updated":           services.FreshnessLabel(snap.LastRateUpdate, time.Now()),
		"state":             h.Updater.State().String(),
	})
}

// Refresh forces a fetch regardless of freshness. A failure keeps the prior
// rate and reports the rate source as unavailable.
func (h *RateHandler) Refresh(c *gin.Context) {
	userID := middleware.GetUserID(c)

	err := h.Updater.RefreshUser(c.Request.Context(), userID, true)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if errors.Is(err, services.ErrPersistFailed) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save data"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Rate source unavailable"})
		return
	}

	h.GetRate(c)
}
