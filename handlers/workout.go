package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"potbuddy-backend/models"
	"potbuddy-backend/utils"
)

// GET /api/workouts/today
func (h *Handler) GetTodayWorkout(c *gin.Context) {
	w, err := h.Recorder.Today(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch workout")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", w)
}

// GET /api/workouts/history?weeks=4
func (h *Handler) GetWorkoutHistory(c *gin.Context) {
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", "4"))
	if err != nil || weeks < 1 {
		weeks = 4
	}

	history, err := h.Recorder.History(c.Request.Context(), utils.GetCurrentUserID(c), weeks)
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch workout history")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", history)
}

// POST /api/workouts
func (h *Handler) LogWorkout(c *gin.Context) {
	var req models.LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Status is required")
		return
	}

	res, err := h.Recorder.Record(c.Request.Context(), utils.GetCurrentUserID(c), req.Date, req.Status)
	if err != nil {
		utils.RespondError(c, err, "Failed to log workout")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Workout logged", models.WorkoutResponse{
		Workout:  res.Workout,
		Previous: res.Previous,
		Delta:    res.Delta,
	})
}
