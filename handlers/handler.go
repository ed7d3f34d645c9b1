package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"potbuddy-backend/services"
	"potbuddy-backend/store"
)

// Handler serves the HTTP API on top of the ledger services.
type Handler struct {
	Store        store.Store
	Recorder     *services.Recorder
	Evaluator    *services.Evaluator
	Recalculator *services.Recalculator
	Pairing      *services.Pairing
	Consent      *services.Consent
	Activity     *services.ActivityService
	Gate         *services.EvaluationGate
	AppName      string
	Log          *zap.SugaredLogger
}

// Register mounts every route. auth guards the /api group.
func (h *Handler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(auth)
	{
		// User
		api.GET("/auth/user", h.GetCurrentUser)
		api.PUT("/users/me/fcm-token", h.UpdateFCMToken)
		api.GET("/stats", h.GetStats)

		// Buddies
		api.GET("/buddies", h.ListBuddies)
		api.POST("/buddies", h.AddBuddy)
		api.DELETE("/buddies/:pairId", h.RemoveBuddy)
		api.GET("/pairs/:pairId", h.GetPairDetails)

		// Invitations
		api.GET("/invitations/pending", h.GetPendingInvitations)
		api.GET("/invitations/received", h.GetReceivedInvitations)
		api.POST("/invitations/:id/accept", h.AcceptInvitation)
		api.POST("/invitations/:id/decline", h.DeclineInvitation)
		api.DELETE("/invitations/:id", h.DeleteInvitation)

		// Workouts
		api.GET("/workouts/today", h.GetTodayWorkout)
		api.GET("/workouts/history", h.GetWorkoutHistory)
		api.POST("/workouts", h.LogWorkout)

		// Settlement
		api.POST("/evaluate-weeks", h.EvaluateWeeks)
		api.POST("/pots/recalculate", h.RecalculatePots)

		// Consent requests
		api.POST("/pairs/:pairId/requests", h.CreateConsentRequest)
		api.GET("/requests/pending", h.GetPendingRequests)
		api.POST("/requests/:id/accept", h.AcceptRequest)
		api.POST("/requests/:id/deny", h.DenyRequest)

		// Activity
		api.GET("/activity", h.GetActivity)
	}
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.AppName,
	})
}
