package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stockbox/backend/internal/domain"
)

// ListInventoryLists returns every inventory list.
func (h *Handler) ListInventoryLists(c *gin.Context) {
	if !h.inventoryReady(c) {
		return
	}
	lists, err := h.inventory.ListLists(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory_lists": lists})
}

// CreateInventoryList creates a list with its initial items.
func (h *Handler) CreateInventoryList(c *gin.Context) {
	if !h.inventoryReady(c) {
		return
	}
	var list domain.InventoryList
	if err := c.ShouldBindJSON(&list); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	created, err := h.inventory.CreateList(c.Request.Context(), &list)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetInventoryList returns one list with its items.
func (h *Handler) GetInventoryList(c *gin.Context) {
	if !h.inventoryReady(c) {
		return
	}
	id, ok := listIDParam(c)
	if !ok {
		return
	}
	list, err := h.inventory.GetList(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type addItemsRequest struct {
	Items []domain.InventoryItem `json:"items" binding:"required"`
}

// AddInventoryItems appends items to a list.
func (h *Handler) AddInventoryItems(c *gin.Context) {
	if !h.inventoryReady(c) {
		return
	}
	id, ok := listIDParam(c)
	if !ok {
		return
	}
	var req addItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	items, err := h.inventory.AddItems(c.Request.Context(), id, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inventory_items": items})
}

// GetShoppingEntries returns the shopping entries saved against a list.
func (h *Handler) GetShoppingEntries(c *gin.Context) {
	if !h.inventoryReady(c) {
		return
	}
	id, ok := listIDParam(c)
	if !ok {
		return
	}
	entries, err := h.inventory.ShoppingEntries(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shopping_list": entries})
}
