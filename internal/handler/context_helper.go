package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/middleware"
	"github.com/upeu-dev/vinculacion-api/internal/models"
)

func actorFromContext(c *gin.Context) *models.Actor {
	return middleware.CurrentActor(c)
}
