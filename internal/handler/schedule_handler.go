package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitemaster/internal/model"
	"sitemaster/internal/schedule"
)

type ScheduleService interface {
	View(ctx context.Context, mode schedule.ViewMode, projectID string) (*schedule.View, error)
}

type EarnedValueService interface {
	History(ctx context.Context, projectID string, limit int) ([]model.EarnedValueSnapshot, error)
}

type ScheduleHandler struct {
	schedule ScheduleService
	earned   EarnedValueService
	logger   *zap.Logger
}

func NewScheduleHandler(s ScheduleService, e EarnedValueService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedule: s, earned: e, logger: logger}
}

// View handles GET /schedule?mode=single|all&project_id=
func (h *ScheduleHandler) View(c *gin.Context) {
	mode, err := schedule.ParseViewMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.schedule.View(c.Request.Context(), mode, c.Query("project_id"))
	if err != nil {
		respondError(c, h.logger, "Schedule view", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// EarnedValue handles GET /projects/:id/earned-value?limit=
func (h *ScheduleHandler) EarnedValue(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	snaps, err := h.earned.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, h.logger, "Earned value history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}
