package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ActorHeader carries the identity of the user acting on the ledger.
// Authentication happens upstream; this service only records who acted.
const ActorHeader = "X-User-ID"

// ActorMiddleware reads the acting user from ActorHeader and stores it in the
// request context. Mutating requests without an actor are rejected.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		userID := strings.TrimSpace(c.GetHeader(ActorHeader))
		if userID == "" {
			if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
				c.Next()
				return
			}
			logger.Warn("Actor header missing on mutating request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ActorHeader + " header required"})
			return
		}

		ctx := WithUserID(c.Request.Context(), userID)
		ctx = WithLogger(ctx, logger.With(slog.String("user_id", userID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
