package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/pkg/config"
)

func signedToken(t *testing.T, secret string, claims *models.ActorClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func authRouter(cfg config.JWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Auth(cfg), func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID})
	})
	return r
}

func TestAuthAcceptsValidBearer(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret"}
	raw := signedToken(t, cfg.Secret, &models.ActorClaims{
		UserID: "u1",
		Roles:  []models.Role{models.RoleStudent},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	r := authRouter(cfg)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	raw := signedToken(t, "other-secret", &models.ActorClaims{UserID: "u1"})

	r := authRouter(config.JWTConfig{Secret: "test-secret"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	r := authRouter(config.JWTConfig{Secret: "test-secret"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret"}
	raw := signedToken(t, cfg.Secret, &models.ActorClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	r := authRouter(cfg)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
