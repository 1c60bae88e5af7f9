package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"project-tracker/backend/internal/handlers"
	"project-tracker/backend/internal/middleware"
	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testCookie = handlers.CookieConfig{Name: "session_token"}

func newTestUser() *models.User {
	return &models.User{ID: uuid.Must(uuid.NewV4()), Name: "Ada", Email: "ada@example.com"}
}

func setupAuthRouter(auth *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewAuthHandler(auth, testCookie, zap.NewNop())

	router := gin.New()
	router.POST("/login", handler.Login)
	router.POST("/logout", handler.Logout)
	router.POST("/session/refresh", handler.Refresh)
	return router
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	auth := &MockAuthService{user: newTestUser()}
	router := setupAuthRouter(auth)

	w := doJSON(router, "POST", "/login", map[string]string{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	var response handlers.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "session-token", response.Token)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, "Ada", response.User.Name)

	cookie := findCookie(w, "session_token")
	require.NotNil(t, cookie)
	assert.Equal(t, "session-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginInvalidCredentials(t *testing.T) {
	router := setupAuthRouter(&MockAuthService{loginErr: services.ErrInvalidCredentials})

	w := doJSON(router, "POST", "/login", map[string]string{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, findCookie(w, "session_token"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestLoginMissingFields(t *testing.T) {
	router := setupAuthRouter(&MockAuthService{user: newTestUser()})

	w := doJSON(router, "POST", "/login", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	auth := &MockAuthService{user: newTestUser()}
	router := setupAuthRouter(auth)

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "abc"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"abc"}, auth.loggedOut)

	cookie := findCookie(w, "session_token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestLogoutWithoutSession(t *testing.T) {
	auth := &MockAuthService{}
	router := setupAuthRouter(auth)

	w := doJSON(router, "POST", "/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, auth.loggedOut)
}

func TestRefresh(t *testing.T) {
	auth := &MockAuthService{user: newTestUser()}
	router := setupAuthRouter(auth)

	req := httptest.NewRequest("POST", "/session/refresh", nil)
	req.Header.Set("Authorization", "Bearer old-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "old-token", auth.refreshedOld)
	assert.Contains(t, w.Body.String(), "rotated-token")
	assert.Equal(t, "rotated-token", findCookie(w, "session_token").Value)
}

func TestRefreshInvalidSession(t *testing.T) {
	router := setupAuthRouter(&MockAuthService{resolveErr: services.ErrUnauthenticated})

	req := httptest.NewRequest("POST", "/session/refresh", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, "POST", "/session/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	register := &MockRegisterService{}
	router := gin.New()
	router.POST("/signup", handlers.NewRegisterHandler(register, zap.NewNop()).Registration)

	w := doJSON(router, "POST", "/signup", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	var response handlers.RegistrationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ada@example.com", response.User.Email)
	assert.NotContains(t, w.Body.String(), "password123")

	register.err = services.ErrDuplicateEmail
	w = doJSON(router, "POST", "/signup", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	register.err = services.ErrValidation
	w = doJSON(router, "POST", "/signup", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserProfileAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := newTestUser()
	users := &MockUserService{user: user}
	auth := &MockAuthService{user: user}
	userCache := &MockUserCache{}
	handler := handlers.NewUserHandler(users, auth, userCache, testCookie, zap.NewNop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, user.ID)
		c.Next()
	})
	router.GET("/me", handler.GetUserProfile)
	router.DELETE("/me", handler.DeleteUser)

	w := doJSON(router, "GET", "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")

	w = doJSON(router, "DELETE", "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{user.ID}, users.deleted)
	assert.Equal(t, []uuid.UUID{user.ID}, auth.revoked)
	assert.Equal(t, []uuid.UUID{user.ID}, userCache.forgotten)

	users.err = services.ErrNotFound
	w = doJSON(router, "DELETE", "/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
