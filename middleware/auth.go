package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"potbuddy-backend/config"
	"potbuddy-backend/models"
	"potbuddy-backend/utils"
)

// UserStore is what the auth middleware needs to provision users.
type UserStore interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
}

// subjectNamespace maps non-UUID subjects from the identity provider onto
// stable user ids.
var subjectNamespace = uuid.MustParse("6f1c3a52-7d0e-4b8f-9a51-2c4be1d0f7a3")

// UserIDForSubject returns the user id for a token subject.
func UserIDForSubject(sub string) uuid.UUID {
	if id, err := uuid.Parse(sub); err == nil {
		return id
	}
	return uuid.NewSHA1(subjectNamespace, []byte(sub))
}

// AuthRequired verifies the bearer token and makes sure the user exists,
// creating it on first sight. With AUTH_DEV_USER_EMAIL set, requests without
// a token run as that user.
func AuthRequired(cfg *config.Config, users UserStore, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var identity models.User

		authHeader := c.GetHeader("Authorization")
		switch {
		case strings.HasPrefix(authHeader, "Bearer ") && cfg.JWTSecret == "":
			utils.Unauthorized(c, "Token authentication is not configured")
			c.Abort()
			return
		case strings.HasPrefix(authHeader, "Bearer "):
			claims, err := utils.ParseToken(cfg.JWTSecret, cfg.JWTIssuer, strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Debugw("token rejected", "error", err)
				utils.Unauthorized(c, "Invalid token")
				c.Abort()
				return
			}
			identity = models.NewUser(UserIDForSubject(claims.Subject), claims.Email, claims.Name)
		case authHeader == "" && cfg.DevUserEmail != "":
			identity = models.NewUser(UserIDForSubject("dev:"+cfg.DevUserEmail), cfg.DevUserEmail, "Dev User")
		default:
			utils.Unauthorized(c, "Missing or invalid Authorization header")
			c.Abort()
			return
		}

		if identity.Email == "" {
			utils.Unauthorized(c, "Token has no email claim")
			c.Abort()
			return
		}

		user, err := ensureUser(c.Request.Context(), users, identity)
		if err != nil {
			log.Errorw("user provisioning failed", "user_id", identity.ID, "error", err)
			if errors.Is(err, models.ErrConflict) {
				utils.Unauthorized(c, "Email is already linked to another account")
			} else {
				utils.RespondError(c, err, "Failed to load user")
			}
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

// ensureUser creates the user on first authentication and refreshes the
// profile when the provider's claims changed.
func ensureUser(ctx context.Context, users UserStore, identity models.User) (*models.User, error) {
	existing, err := users.GetUser(ctx, identity.ID)
	switch {
	case err == nil:
		if existing.Email == identity.Email && (identity.Name == "" || existing.Name == identity.Name) {
			return existing, nil
		}
		if identity.Name == "" {
			identity.Name = existing.Name
		}
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}
	return users.UpsertUser(ctx, &identity)
}
