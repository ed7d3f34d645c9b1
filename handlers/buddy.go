package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/models"
	"potbuddy-backend/utils"
)

// GET /api/buddies
func (h *Handler) ListBuddies(c *gin.Context) {
	buddies, err := h.Pairing.ListBuddies(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch buddies")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", buddies)
}

// POST /api/buddies
// Pairs with an existing user, or invites the email when nobody has it yet.
func (h *Handler) AddBuddy(c *gin.Context) {
	var req models.AddBuddyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Email is required")
		return
	}

	res, err := h.Pairing.AddBuddy(c.Request.Context(), utils.GetCurrentUserID(c), req.Email, req.Name)
	if err != nil {
		utils.RespondError(c, err, "Failed to add buddy")
		return
	}

	if res.Invitation != nil {
		msg := fmt.Sprintf("Invitation sent to %s! They can sign up and accept to become your buddy.", res.Invitation.InviteeEmail)
		utils.SuccessResponse(c, http.StatusCreated, msg, models.InvitationResponse{
			Type:       "invitation",
			Message:    msg,
			Invitation: *res.Invitation,
		})
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Buddy added", res.Buddy)
}

// DELETE /api/buddies/:pairId
func (h *Handler) RemoveBuddy(c *gin.Context) {
	pairID, err := utils.ParseUUID(c.Param("pairId"))
	if err != nil {
		utils.BadRequest(c, "Invalid pair ID")
		return
	}

	if err := h.Pairing.RemoveBuddy(c.Request.Context(), utils.GetCurrentUserID(c), pairID); err != nil {
		utils.RespondError(c, err, "Failed to remove buddy")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Buddy removed", nil)
}

// GET /api/pairs/:pairId
func (h *Handler) GetPairDetails(c *gin.Context) {
	pairID, err := utils.ParseUUID(c.Param("pairId"))
	if err != nil {
		utils.BadRequest(c, "Invalid pair ID")
		return
	}

	details, err := h.Pairing.GetPairDetails(c.Request.Context(), utils.GetCurrentUserID(c), pairID)
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch pair details")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", details)
}
