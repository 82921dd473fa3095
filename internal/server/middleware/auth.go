// Package middleware adapts the auth collaborator to gin. The core never
// validates credentials itself; it trusts the Identity resolved here.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

const identityKey = "identity"

// Authenticator resolves a bearer credential into a request identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

// SessionAuthenticator treats the bearer token as the opaque session id
// issued at login and resolves it through the store. Non-admin sessions are
// rejected once their expiry passes; admins are not session-bound.
type SessionAuthenticator struct {
	store repository.Store
	now   func() time.Time
}

// NewSessionAuthenticator builds a store-backed authenticator.
func NewSessionAuthenticator(store repository.Store) *SessionAuthenticator {
	return &SessionAuthenticator{store: store, now: time.Now}
}

// Authenticate implements Authenticator.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	user, err := a.store.GetUserBySession(ctx, token)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: unknown session", models.ErrSessionExpired)
	}
	if !user.IsActive {
		return models.Identity{}, fmt.Errorf("%w: user deactivated", models.ErrNotFound)
	}
	if user.Role != models.RoleAdmin && !user.SessionExpiry.IsZero() && a.now().After(user.SessionExpiry) {
		return models.Identity{}, fmt.Errorf("%w: session window elapsed", models.ErrSessionExpired)
	}
	return models.Identity{
		UserID:        user.ID,
		Role:          user.Role,
		SessionID:     user.SessionID,
		SessionExpiry: user.SessionExpiry,
	}, nil
}

// RequireAuth extracts the bearer token, resolves the identity and stores it
// on the gin context. Browser-opened links may pass the token as a query
// parameter instead of a header.
func RequireAuth(auth Authenticator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Access denied. No token provided.",
			})
			return
		}

		id, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("authentication failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":        false,
				"message":        "Session expired. Please login again.",
				"sessionExpired": true,
			})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireAdmin rejects non-admin identities. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || !id.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied. Admin role required.",
			})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the authenticated identity stored on the context.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
