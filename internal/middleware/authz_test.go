package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

func authzRouter(actor *models.Actor, permissions ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", func(c *gin.Context) {
		if actor != nil {
			c.Set(ContextActorKey, actor)
		}
	}, Require(permissions...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAllowsGrantedPermission(t *testing.T) {
	actor := models.NewActor(&models.ActorClaims{UserID: "u1", Roles: []models.Role{models.RoleStaff}})
	r := authzRouter(actor, models.PermProjectWrite)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRejectsMissingPermission(t *testing.T) {
	actor := models.NewActor(&models.ActorClaims{UserID: "u1", Roles: []models.Role{models.RoleStudent}})
	r := authzRouter(actor, models.PermProjectWrite)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRejectsMissingActor(t *testing.T) {
	r := authzRouter(nil, models.PermProjectRead)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAnyOfListedPermissions(t *testing.T) {
	actor := models.NewActor(&models.ActorClaims{UserID: "u1", Roles: []models.Role{models.RoleCoordinator}})
	r := authzRouter(actor, models.PermProjectWrite, models.PermProjectRead)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
