package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/status"
)

// StockHandler handles the stock media registry endpoints. Clients register
// id-to-URL mappings ahead of video generation and reference the ids in
// STOCK mode requests.
type StockHandler struct {
	registry status.StockRegistry
}

// NewStockHandler creates a new stock registry handler.
func NewStockHandler(registry status.StockRegistry) *StockHandler {
	return &StockHandler{registry: registry}
}

type registerStockRequest struct {
	Items []domain.StockItem `json:"items" binding:"required"`
}

// RegisterStockMedia handles POST /api/v1/stock-media/register.
func (h *StockHandler) RegisterStockMedia(c *gin.Context) {
	var req registerStockRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, "items is required"))
		return
	}

	for _, item := range req.Items {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.URL) == "" {
			c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, "items require both id and url"))
			return
		}
	}

	for _, item := range req.Items {
		if err := h.registry.RegisterStockMedia(c.Request.Context(), item.ID, item.URL); err != nil {
			c.JSON(http.StatusInternalServerError, errorBody(domain.ErrInternal, "failed to register stock media"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"registered": len(req.Items)})
}

// GetStockMedia handles GET /api/v1/stock-media/:id.
func (h *StockHandler) GetStockMedia(c *gin.Context) {
	id := c.Param("id")

	url, err := h.registry.LookupStockMedia(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "stock media not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(domain.ErrInternal, "stock media lookup failed"))
		return
	}

	c.JSON(http.StatusOK, domain.StockItem{ID: id, URL: url})
}
