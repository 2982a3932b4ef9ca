package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/safereport/backend/internal/models"
)

const (
	ActorRoleHeader  = "X-Actor-Role"
	ActorIDHeader    = "X-Actor-Id"
	GatewayKeyHeader = "X-Gateway-Key"

	actorKey = "actor"
)

// Actor resolves the caller from headers set by the auth gateway. When
// gatewayKey is configured, identity headers are only accepted alongside
// a matching X-Gateway-Key. Requests without identity headers are anonymous.
func Actor(gatewayKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.TrimSpace(c.GetHeader(ActorRoleHeader))
		userID := strings.TrimSpace(c.GetHeader(ActorIDHeader))
		if role == "" && userID == "" {
			c.Set(actorKey, models.Actor{})
			c.Next()
			return
		}
		if gatewayKey != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(GatewayKeyHeader)), []byte(gatewayKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid gateway key",
				},
			})
			return
		}
		c.Set(actorKey, models.Actor{Role: models.Role(strings.ToLower(role)), UserID: userID})
		c.Next()
	}
}

// CurrentActor returns the resolved caller, anonymous if none was set.
func CurrentActor(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(models.Actor); ok {
			return a
		}
	}
	return models.Actor{}
}
