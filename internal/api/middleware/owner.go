package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stitts-dev/fight-edge/pkg/utils"
)

// OwnerHeader carries the caller identity set by the upstream gateway.
const OwnerHeader = "X-User-ID"

// RequireOwner rejects requests without an owner and stores it as "user_id".
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
		if owner == "" {
			utils.SendUnauthorized(c, OwnerHeader+" header is required")
			return
		}
		c.Set("user_id", owner)
		c.Next()
	}
}
