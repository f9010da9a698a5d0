package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/activity"
)

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	svc    *activity.Service
	logger *zap.Logger
}

// NewActivityHandler constructs the HTTP handler adapter.
func NewActivityHandler(svc *activity.Service, logger *zap.Logger) *ActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityHandler{svc: svc, logger: logger}
}

// List returns audit entries filtered by search, role and date range.
func (h *ActivityHandler) List(c *gin.Context) {
	filter, err := activityFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	logs, err := h.svc.List(c.Request.Context(), middleware.MustActor(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// Prune drops entries older than the retention window.
func (h *ActivityHandler) Prune(c *gin.Context) {
	removed, err := h.svc.Prune(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
