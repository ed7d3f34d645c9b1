package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/models"
	"potbuddy-backend/utils"
)

// POST /api/pots/recalculate
// Rebuilds pots from workout history. Body {"pair_id": "..."} limits it to
// one pair; an empty body recalculates all of my pairs.
func (h *Handler) RecalculatePots(c *gin.Context) {
	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	var req models.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.PairID != "" {
		pairID, err := utils.ParseUUID(req.PairID)
		if err != nil {
			utils.BadRequest(c, "Invalid pair ID")
			return
		}
		// membership check
		if _, err := h.Pairing.GetPairDetails(ctx, userID, pairID); err != nil {
			utils.RespondError(c, err, "Failed to recalculate pot")
			return
		}
		balance, err := h.Recalculator.Recalculate(ctx, pairID)
		if err != nil {
			utils.RespondError(c, err, "Failed to recalculate pot")
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "", models.RecalculateResponse{
			Message: "Pot recalculated based on actual workout history",
			Results: []models.PotBalance{{PairID: pairID, Balance: balance}},
		})
		return
	}

	results, err := h.Recalculator.RecalculateForUser(ctx, userID)
	if err != nil && len(results) == 0 {
		utils.RespondError(c, err, "Failed to recalculate pots")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", models.RecalculateResponse{
		Message: "Pots recalculated based on actual workout history",
		Results: results,
	})
}
