package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAdminService struct {
	isAdmin    bool
	err        error
	lastUserID int
}

func (m *mockAdminService) IsAdmin(_ context.Context, userID int) (bool, error) {
	m.lastUserID = userID
	return m.isAdmin, m.err
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router
}

func setSessionCookie(t *testing.T, router *gin.Engine, values map[string]interface{}) *http.Cookie {
	setupPath := "/setup-session-" + t.Name()
	router.GET(setupPath, func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", setupPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestRequireAuth_AuthenticatedSession(t *testing.T) {
	router := newTestRouter()

	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, 99, c.GetInt(UserIDKey))
		assert.Equal(t, "session-user", c.GetString(UsernameKey))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   99,
		UsernameKey: "session-user",
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_NoSession(t *testing.T) {
	router := newTestRouter()

	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestRequireAuth_MissingUsername(t *testing.T) {
	router := newTestRouter()

	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey: 99,
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_Float64UserID(t *testing.T) {
	router := newTestRouter()

	// JSON-backed session stores hand back numbers as float64
	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, 42, c.GetInt(UserIDKey))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   float64(42),
		UsernameKey: "float-user",
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_AllowsAdminUsers(t *testing.T) {
	router := newTestRouter()

	mockAdmin := &mockAdminService{isAdmin: true}

	router.GET("/admin", RequireAdmin(mockAdmin), func(c *gin.Context) {
		assert.Equal(t, 123, c.GetInt(UserIDKey))
		assert.Equal(t, "admin-user", c.GetString(UsernameKey))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   123,
		UsernameKey: "admin-user",
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 123, mockAdmin.lastUserID)
}

func TestRequireAdmin_ForbiddenForNonAdmin(t *testing.T) {
	router := newTestRouter()

	mockAdmin := &mockAdminService{isAdmin: false}

	router.GET("/admin", RequireAdmin(mockAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   9,
		UsernameKey: "user",
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Admin access required")
	assert.Equal(t, 9, mockAdmin.lastUserID)
}

func TestRequireAdmin_InternalError(t *testing.T) {
	router := newTestRouter()

	mockAdmin := &mockAdminService{
		err: errors.New("lookup failure"),
	}

	router.GET("/admin", RequireAdmin(mockAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   55,
		UsernameKey: "user55",
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to check admin status")
	assert.Equal(t, 55, mockAdmin.lastUserID)
}

func TestRequireAdmin_Unauthenticated(t *testing.T) {
	router := newTestRouter()

	mockAdmin := &mockAdminService{isAdmin: true}

	router.GET("/admin", RequireAdmin(mockAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, mockAdmin.lastUserID)
}
