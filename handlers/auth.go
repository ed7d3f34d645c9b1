package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/utils"
)

// GET /api/auth/user
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.Store.GetUser(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch user")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", user.ToResponse())
}
