package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/models"
	"potbuddy-backend/utils"
)

// POST /api/evaluate-weeks
// Called by the client on load. Settles finished weeks for all my pairs.
func (h *Handler) EvaluateWeeks(c *gin.Context) {
	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	if !h.Gate.Allow(ctx, userID) {
		utils.SuccessResponse(c, http.StatusOK, "Recently evaluated", models.EvaluateResponse{
			Settlements: []models.Settlement{},
			Skipped:     true,
		})
		return
	}

	res, err := h.Evaluator.Evaluate(ctx, userID)
	if err != nil {
		h.Gate.Reset(ctx, userID)
		utils.RespondError(c, err, "Failed to evaluate weeks")
		return
	}
	if len(res.Failures) > 0 {
		h.Gate.Reset(ctx, userID)
	}

	utils.SuccessResponse(c, http.StatusOK, "", models.EvaluateResponse{
		SettlementsCreated: len(res.Settlements),
		Settlements:        res.Settlements,
		Failures:           len(res.Failures),
	})
}
