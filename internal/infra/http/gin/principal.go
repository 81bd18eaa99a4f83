package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/reqctx"
)

// Identity headers set by the gateway after it authenticated the caller.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
	HeaderUserRoles = "X-User-Roles"

	principalContextKey = "resortbook.principal"
)

// GatewayPrincipal trusts the identity headers forwarded by the gateway and puts the
// principal on both the gin and the request context. Requests without X-User-ID
// continue anonymously.
func GatewayPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if id == "" {
			c.Next()
			return
		}
		p := reqctx.Principal{
			ID:    id,
			Email: strings.TrimSpace(c.GetHeader(HeaderUserEmail)),
			Name:  strings.TrimSpace(c.GetHeader(HeaderUserName)),
			Roles: splitCSV(c.GetHeader(HeaderUserRoles)),
		}
		c.Set(principalContextKey, p)
		c.Request = c.Request.WithContext(reqctx.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) (reqctx.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return reqctx.Principal{}, false
	}
	p, ok := val.(reqctx.Principal)
	return p, ok
}

func requireRole(c *gin.Context, role string) (reqctx.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required", "code": "unauthenticated"})
		return reqctx.Principal{}, false
	}
	if role != "" && !p.HasRole(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions", "code": "forbidden"})
		return reqctx.Principal{}, false
	}
	return p, true
}

// RequireRole guards a route group.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireRole(c, role); !ok {
			c.Abort()
			return
		}
		c.Next()
	}
}
