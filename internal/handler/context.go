package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitemaster/internal/model"
	"sitemaster/internal/service/project"
	"sitemaster/internal/taskimport"
)

const actorKey = "actor"

// SetActor stores the authenticated user for the rest of the request.
func SetActor(c *gin.Context, a model.Actor) {
	c.Set(actorKey, a)
}

// getActor 统一读取当前用户，缺失时直接写 401
func getActor(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return model.Actor{}, false
	}
	a, ok := v.(model.Actor)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid actor"})
		return model.Actor{}, false
	}
	return a, true
}

// ActorFrom returns the authenticated user if the auth middleware ran.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	a, ok := v.(model.Actor)
	return a, ok
}

// respondError maps service errors to status codes. Unknown errors are logged and hidden.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrTaskNotFound),
		errors.Is(err, project.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidEnum),
		errors.Is(err, model.ErrInvalidDate),
		errors.Is(err, model.ErrInvalidProgress),
		errors.Is(err, model.ErrInvalidWeight),
		errors.Is(err, model.ErrInvalidBudget),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, taskimport.ErrTooManyRows):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
