package middleware

import (
	"net/http"

	"pointshop/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the token carries the ADMIN role and that the
// admin is still on the allow-list.
func AdminRequired(allowed map[int64]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		r, _ := role.(string)
		if r != domain.RoleAdmin || !allowed[GetAdminID(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "reason": "forbidden", "message": "admin access required"})
			return
		}
		c.Next()
	}
}
