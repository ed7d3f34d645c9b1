package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/utils"
)

// GET /api/invitations/pending: invitations I sent
func (h *Handler) GetPendingInvitations(c *gin.Context) {
	invs, err := h.Pairing.PendingInvitations(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch invitations")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", invs)
}

// GET /api/invitations/received: invitations addressed to my email
func (h *Handler) GetReceivedInvitations(c *gin.Context) {
	invs, err := h.Pairing.ReceivedInvitations(c.Request.Context(), utils.GetCurrentUserEmail(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch invitations")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", invs)
}

// POST /api/invitations/:id/accept
func (h *Handler) AcceptInvitation(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid invitation ID")
		return
	}

	res, err := h.Pairing.AcceptInvitation(c.Request.Context(), id, utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to accept invitation")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Invitation accepted!", res)
}

// POST /api/invitations/:id/decline
func (h *Handler) DeclineInvitation(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid invitation ID")
		return
	}

	if err := h.Pairing.DeclineInvitation(c.Request.Context(), id, utils.GetCurrentUserID(c)); err != nil {
		utils.RespondError(c, err, "Failed to decline invitation")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Invitation declined", nil)
}

// DELETE /api/invitations/:id
func (h *Handler) DeleteInvitation(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid invitation ID")
		return
	}

	if err := h.Pairing.DeleteInvitation(c.Request.Context(), id, utils.GetCurrentUserID(c)); err != nil {
		utils.RespondError(c, err, "Failed to delete invitation")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Invitation deleted", nil)
}
