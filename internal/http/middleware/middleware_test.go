package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/domain"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/http/resp"
	"clinic_notify/internal/permissions"
)

func newEngine(t *testing.T, session *auth.Session, logger *zap.Logger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	resolver := permissions.NewResolverWithPolicy(nil, logger)

	r := gin.New()
	r.Use(ZapLogger(logger, "/health"), ZapRecovery(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	authed := r.Group("/", RequireUser(session))
	authed.GET("/me", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, user)
	})
	authed.GET("/users", RequirePermission(resolver, logger, permissions.ManageUsers), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	authed.GET("/settings", RequirePermission(resolver, logger, permissions.ManageSettings, permissions.ManageUsers), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	authed.GET("/reports", RequireAnyPermission(resolver, logger, permissions.ViewReports, permissions.ManageDentists), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRequireUser(t *testing.T) {
	session := auth.NewSession(zap.NewNop())
	r := newEngine(t, session, zap.NewNop())

	rec := serve(r, "/me")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, resp.CodeUnauthorized, decodeError(t, rec).Code)

	require.NoError(t, session.SignIn(auth.User{ID: "u1", Name: "Ana", Role: domain.RoleDentist}))
	rec = serve(r, "/me")
	require.Equal(t, http.StatusOK, rec.Code)
	var user auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "u1", user.ID)
}

func TestRequirePermission(t *testing.T) {
	session := auth.NewSession(zap.NewNop())
	core, logs := observer.New(zapcore.WarnLevel)
	r := newEngine(t, session, zap.New(core))

	require.NoError(t, session.SignIn(auth.User{ID: "u1", Role: domain.RoleDentist}))
	rec := serve(r, "/users")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, resp.CodeForbidden, decodeError(t, rec).Code)
	require.Equal(t, 1, logs.FilterMessage("permission denied").Len())

	require.NoError(t, session.SignIn(auth.User{ID: "u2", Role: domain.RoleAdmin}))
	rec = serve(r, "/users")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionCombinations(t *testing.T) {
	session := auth.NewSession(zap.NewNop())
	r := newEngine(t, session, zap.NewNop())

	// Dentists can view reports but hold neither settings nor user management.
	require.NoError(t, session.SignIn(auth.User{ID: "d1", Role: domain.RoleDentist}))
	require.Equal(t, http.StatusOK, serve(r, "/reports").Code)
	rec := serve(r, "/settings")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, decodeError(t, rec).Message, "all of")

	// Assistants hold none of the report permissions.
	require.NoError(t, session.SignIn(auth.User{ID: "a1", Role: domain.RoleAssistant}))
	rec = serve(r, "/reports")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, decodeError(t, rec).Message, "any of")

	require.NoError(t, session.SignIn(auth.User{ID: "x1", Role: domain.RoleAdmin}))
	require.Equal(t, http.StatusOK, serve(r, "/settings").Code)
}

func TestZapRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newEngine(t, auth.NewSession(zap.NewNop()), zap.New(core))

	rec := serve(r, "/panic")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, resp.CodeInternalError, decodeError(t, rec).Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestZapLoggerSkipsQuietPaths(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	session := auth.NewSession(zap.NewNop())
	r := newEngine(t, session, zap.New(core))

	serve(r, "/health")
	require.Zero(t, logs.FilterMessage("request completed").Len())

	require.NoError(t, session.SignIn(auth.User{ID: "u7", Role: domain.RoleAssistant}))
	serve(r, "/me")
	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "u7", entries[0].ContextMap()["user_id"])
	require.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
}
