package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/utils"
)

type UpdateFCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// PUT /api/users/me/fcm-token
func (h *Handler) UpdateFCMToken(c *gin.Context) {
	var req UpdateFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.Store.UpdateFCMToken(c.Request.Context(), utils.GetCurrentUserID(c), req.Token); err != nil {
		utils.RespondError(c, err, "Failed to update FCM token")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "FCM token updated", nil)
}

// GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.Pairing.Stats(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch stats")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", stats)
}
