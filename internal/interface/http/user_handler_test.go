package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/promptguard/promptguard/internal/application"
	"github.com/promptguard/promptguard/internal/interface/middleware"
	"github.com/promptguard/promptguard/pkg/helpers"
)

func newSignOutRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	svc := userapp.NewService(nil, jwt, nil, nil)
	h := NewUserHandler(svc, nil, "localhost", false)

	r := gin.New()
	r.POST("/api/signout", middleware.AuthOptional(nil, jwt), h.SignOut)
	return r
}

func clearedCookies(res *http.Response) map[string]string {
	out := make(map[string]string)
	for _, ck := range res.Cookies() {
		out[ck.Name] = ck.Value
	}
	return out
}

func TestSignOutWithoutSession(t *testing.T) {
	r := newSignOutRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/signout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "signout must succeed with no session at all")

	cookies := clearedCookies(w.Result())
	val, ok := cookies["access_token"]
	assert.True(t, ok, "access cookie must be cleared")
	assert.Empty(t, val)
	val, ok = cookies["refresh_token"]
	assert.True(t, ok, "refresh cookie must be cleared")
	assert.Empty(t, val)
}

func TestSignOutWithBadCookie(t *testing.T) {
	r := newSignOutRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/signout", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "garbage-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "an unparseable session cookie still signs out")
	cookies := clearedCookies(w.Result())
	assert.Empty(t, cookies["access_token"])
	assert.Empty(t, cookies["refresh_token"])
}
