package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey         = "user_id"
	sessionCookieName = "cart_session"
	sessionCookieAge  = 30 * 24 * 60 * 60
)

// RequireAuth rejects requests without a valid access token
func RequireAuth(tokens *service.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerUserID(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   models.ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth attaches the user id when a valid access token is present and
// lets anonymous requests through untouched.
func OptionalAuth(tokens *service.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := bearerUserID(c, tokens); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

func bearerUserID(c *gin.Context, tokens *service.TokenIssuer) (int64, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	userID, err := tokens.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return 0, false
	}
	return userID, true
}

// requesterIdentity resolves the cart identity for a request. Authenticated
// requests use the user id. Anonymous requests use the session cookie; the
// cookie is generated lazily here, on first cart access, not for every
// request passing through the middleware.
func requesterIdentity(c *gin.Context) models.Identity {
	if userID, exists := c.Get(userIDKey); exists {
		return models.Identity{UserID: userID.(int64)}
	}

	key, err := c.Cookie(sessionCookieName)
	if err != nil || key == "" {
		key = strings.ReplaceAll(uuid.New().String(), "-", "")
		c.SetCookie(sessionCookieName, key, sessionCookieAge, "/", "", false, true)
	}
	return models.Identity{SessionKey: key}
}

// authedUserID returns the user id set by RequireAuth
func authedUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
