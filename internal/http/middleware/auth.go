package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/http/resp"
	"clinic_notify/internal/permissions"
)

const userKey = "auth.user"

// RequireUser rejects requests made while nobody is signed in.
func RequireUser(session *auth.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := session.Current()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Code: resp.CodeUnauthorized, Message: "sign in required"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequirePermission lets the request through only if the signed-in user holds
// every one of perms.
func RequirePermission(resolver *permissions.Resolver, logger *zap.Logger, perms ...permissions.Permission) gin.HandlerFunc {
	return requirePermissions(resolver, logger, "all", perms, permissions.Set.HasAll)
}

// RequireAnyPermission lets the request through if the signed-in user holds at
// least one of perms.
func RequireAnyPermission(resolver *permissions.Resolver, logger *zap.Logger, perms ...permissions.Permission) gin.HandlerFunc {
	return requirePermissions(resolver, logger, "any", perms, permissions.Set.HasAny)
}

func requirePermissions(
	resolver *permissions.Resolver,
	logger *zap.Logger,
	mode string,
	perms []permissions.Permission,
	check func(permissions.Set, ...permissions.Permission) bool,
) gin.HandlerFunc {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p))
	}
	missing := "missing permission (" + mode + " of): " + strings.Join(names, ", ")

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !check(resolver.Resolve(user.ID, user.Role), perms...) {
			logger.Warn("permission denied",
				zap.String("user_id", user.ID),
				zap.Strings("permissions", names),
				zap.String("mode", mode),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Code: resp.CodeForbidden, Message: missing})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (auth.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return auth.User{}, false
	}
	user, ok := v.(auth.User)
	return user, ok
}
