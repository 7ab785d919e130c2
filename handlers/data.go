package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"budget-tracker/middleware"
	"budget-tracker/models"
	"budget-tracker/store"
)

// DataHandler serves the whole-snapshot sync endpoints the browser client
// uses: GET pulls the user's ledger, POST overwrites it.
type DataHandler struct {
	Store UserStore
	WS    *WSHandler
}

func (h *DataHandler) GetData(c *gin.Context) {
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

	c.JSON(http.StatusOK, snap)
}

func (h *DataHandler) SaveData(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var snap models.LedgerSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot"})
		return
	}

	err := h.Store.SaveSnapshot(userID, snap)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save data"})
		return
	}

	h.WS.NotifyUser(userID, "data_updated")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
