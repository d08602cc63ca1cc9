package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/usecase"
)

// RunRestock handles the image to restock pipeline.
// Form fields: image (required), target, fallback, list_id.
func (h *Handler) RunRestock(c *gin.Context) {
	if !h.pipelineReady(c) {
		return
	}

	image, name, err := formImage(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	if image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	req := usecase.RestockRequest{Image: image, ImageName: name}
	if req.Target, err = formList(c, "target"); err != nil {
		respondError(c, err)
		return
	}
	if req.Fallback, err = formList(c, "fallback"); err != nil {
		respondError(c, err)
		return
	}
	if req.ListID, err = formListID(c); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.pipeline.RunImageToRestock(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createPlanRequest struct {
	Text string `json:"text"`
}

// CreatePlan builds a monthly shopping plan from text, an image, or both.
// Accepts JSON {"text": ...} or a multipart form with text and image.
func (h *Handler) CreatePlan(c *gin.Context) {
	if !h.pipelineReady(c) {
		return
	}

	var (
		text  string
		image *domain.Image
	)
	if isJSON(c) {
		var req createPlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
			return
		}
		text = req.Text
	} else {
		var err error
		if image, _, err = formImage(c, "image"); err != nil {
			respondError(c, err)
			return
		}
		text = c.PostForm("text")
	}

	plan, err := h.pipeline.CreatePlan(c.Request.Context(), text, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// MatchStock compares a stock photo against an inventory list.
// Form fields: image (optional), list_id (required).
func (h *Handler) MatchStock(c *gin.Context) {
	if !h.pipelineReady(c) {
		return
	}

	image, _, err := formImage(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	listID, err := formListID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if listID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "list_id is required"})
		return
	}

	match, err := h.pipeline.MatchStock(c.Request.Context(), image, listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

type partyPlanRequest struct {
	ListID      int64  `json:"list_id" binding:"required"`
	PartyPrompt string `json:"party_prompt" binding:"required"`
}

// PlanParty plans party shopping against an inventory list.
func (h *Handler) PlanParty(c *gin.Context) {
	if !h.pipelineReady(c) {
		return
	}

	var req partyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	plan, err := h.pipeline.PlanParty(c.Request.Context(), req.ListID, req.PartyPrompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Stores lists the stores prices are compared across.
func (h *Handler) Stores(c *gin.Context) {
	if !h.pipelineReady(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": h.pipeline.Stores()})
}
