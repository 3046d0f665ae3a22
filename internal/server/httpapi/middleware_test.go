package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ADRPUR/event-driven-marketplace/internal/common"
	"github.com/ADRPUR/event-driven-marketplace/internal/logging"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/auth"
)

var testSecret = []byte("test-secret")

func newAuthedRouter(t *testing.T, requiredRole string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	group := r.Group("/", BearerAuth(testSecret))
	if requiredRole != "" {
		group = group.Group("", RequireRole(requiredRole))
	}
	group.GET("/whoami", func(c *gin.Context) {
		claims := extractClaims(c)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UserID, "role": claims.Role})
	})
	return r
}

func doWhoami(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorField(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestBearerAuth_MissingOrMalformedHeader(t *testing.T) {
	r := newAuthedRouter(t, "")

	tests := []struct {
		name          string
		authorization string
	}{
		{name: "no header", authorization: ""},
		{name: "not bearer", authorization: "Basic abc"},
		{name: "bearer without token", authorization: "Bearer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doWhoami(r, tt.authorization)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	r := newAuthedRouter(t, "")

	w := doWhoami(r, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, common.ErrInvalidToken.Error(), errorField(t, w))
}

func TestBearerAuth_ExpiredTokenMessageContract(t *testing.T) {
	r := newAuthedRouter(t, "")

	token, err := auth.GenerateToken("u1", "user", testSecret, -time.Minute)
	require.NoError(t, err)

	w := doWhoami(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// Clients match this exact message to trigger their one-shot refresh.
	assert.Equal(t, common.ErrTokenExpired.Error(), errorField(t, w))
}

func TestBearerAuth_ValidTokenExposesClaims(t *testing.T) {
	r := newAuthedRouter(t, "")

	token, err := auth.GenerateToken("u1", "admin", testSecret, time.Minute)
	require.NoError(t, err)

	w := doWhoami(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		UID  string `json:"uid"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.UID)
	assert.Equal(t, "admin", body.Role)
}

func TestBearerAuth_CaseInsensitiveScheme(t *testing.T) {
	r := newAuthedRouter(t, "")

	token, err := auth.GenerateToken("u1", "user", testSecret, time.Minute)
	require.NoError(t, err)

	w := doWhoami(r, "bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := newAuthedRouter(t, "admin")

	userToken, err := auth.GenerateToken("u1", "user", testSecret, time.Minute)
	require.NoError(t, err)
	adminToken, err := auth.GenerateToken("u2", "admin", testSecret, time.Minute)
	require.NoError(t, err)

	w := doWhoami(r, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doWhoami(r, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFail_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	h := NewHandler(nil, nil, logger)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: common.ErrorValidation, want: http.StatusBadRequest},
		{name: "invalid credentials", err: common.ErrorInvalidCredentials, want: http.StatusUnauthorized},
		{name: "refresh token expired", err: common.ErrRefreshTokenExpired, want: http.StatusUnauthorized},
		{name: "forbidden", err: common.ErrorForbidden, want: http.StatusForbidden},
		{name: "not found", err: common.ErrorNotFound, want: http.StatusNotFound},
		{name: "unclassified", err: assert.AnError, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { h.fail(c, tt.err) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, errorField(t, w))
		})
	}
}
