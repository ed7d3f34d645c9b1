package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/utils"
)

// GET /api/activity: feed across all of my pairs
func (h *Handler) GetActivity(c *gin.Context) {
	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)
	if pagination.Limit < 1 || pagination.Limit > 100 {
		pagination.Limit = 20
	}

	activities, err := h.Activity.Feed(c.Request.Context(), utils.GetCurrentUserID(c), pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch activity")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
