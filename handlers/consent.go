package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/models"
	"potbuddy-backend/utils"
)

// POST /api/pairs/:pairId/requests
func (h *Handler) CreateConsentRequest(c *gin.Context) {
	pairID, err := utils.ParseUUID(c.Param("pairId"))
	if err != nil {
		utils.BadRequest(c, "Invalid pair ID")
		return
	}

	var req models.CreateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Type is required")
		return
	}

	created, err := h.Consent.Request(c.Request.Context(), utils.GetCurrentUserID(c), pairID, req.Type)
	if err != nil {
		utils.RespondError(c, err, "Failed to create request")
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Request sent", created)
}

// GET /api/requests/pending
func (h *Handler) GetPendingRequests(c *gin.Context) {
	reqs, err := h.Consent.Pending(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch requests")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", reqs)
}

// POST /api/requests/:id/accept
func (h *Handler) AcceptRequest(c *gin.Context) {
	h.respondToRequest(c, true)
}

// POST /api/requests/:id/deny
func (h *Handler) DenyRequest(c *gin.Context) {
	h.respondToRequest(c, false)
}

func (h *Handler) respondToRequest(c *gin.Context, accept bool) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid request ID")
		return
	}

	resolved, err := h.Consent.Respond(c.Request.Context(), utils.GetCurrentUserID(c), id, accept)
	if err != nil {
		utils.RespondError(c, err, "Failed to answer request")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Request "+string(resolved.Status), resolved)
}
