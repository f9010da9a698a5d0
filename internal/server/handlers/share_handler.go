package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/sharing"
)

// ShareHandler serves share link creation and anonymous access.
type ShareHandler struct {
	svc    *sharing.Service
	logger *zap.Logger
}

// NewShareHandler constructs the HTTP handler adapter.
func NewShareHandler(svc *sharing.Service, logger *zap.Logger) *ShareHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareHandler{svc: svc, logger: logger}
}

type shareRequest struct {
	Duration string `json:"duration" binding:"required"`
}

type shareStatus struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (h *ShareHandler) Create(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	link, err := h.svc.Create(c.Request.Context(), middleware.MustActor(c), req.Duration)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// Validate reports whether a token is usable.
func (h *ShareHandler) Validate(c *gin.Context) {
	link, err := h.svc.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.invalid(c, err)
		return
	}
	c.JSON(http.StatusOK, shareStatus{Valid: true, ExpiresAt: link.ExpiresAt})
}

// Bills lists bills for a valid token.
func (h *ShareHandler) Bills(c *gin.Context) {
	filter, err := billFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	bills, err := h.svc.SharedBills(c.Request.Context(), c.Param("token"), filter)
	if err != nil {
		h.invalid(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (h *ShareHandler) invalid(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, shareStatus{Error: "Link not found"})
	case errors.Is(err, models.ErrShareLinkExpired):
		c.AbortWithStatusJSON(http.StatusBadRequest, shareStatus{Error: "Link expired"})
	default:
		respondError(c, h.logger, err)
	}
}
