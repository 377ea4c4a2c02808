package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/pkg/config"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// ContextActorKey is the gin context key storing the resolved actor.
const ContextActorKey = "currentActor"

// Auth validates bearer tokens issued by the institutional SSO and attaches
// the resolved actor to the request context. The engine never issues tokens.
func Auth(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := parseClaims(parts[1], cfg)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextActorKey, models.NewActor(claims))
		c.Next()
	}
}

func parseClaims(raw string, cfg config.JWTConfig) (*models.ActorClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &models.ActorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// CurrentActor returns the actor attached by Auth, or nil.
func CurrentActor(c *gin.Context) *models.Actor {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil
	}
	actor, ok := value.(*models.Actor)
	if !ok {
		return nil
	}
	return actor
}
