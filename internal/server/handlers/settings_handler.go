package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/pricing"
	"github.com/mamadbah2/canebill/internal/service/settings"
)

// SettingsHandler serves the settings page.
type SettingsHandler struct {
	svc    *settings.Service
	logger *zap.Logger
}

// NewSettingsHandler constructs the HTTP handler adapter.
func NewSettingsHandler(svc *settings.Service, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{svc: svc, logger: logger}
}

type settingsRequest struct {
	Quotas       *[]string `json:"quotas"`
	FreshPrice   *float64  `json:"freshPrice" binding:"omitempty,gte=0"`
	BurntPrice   *float64  `json:"burntPrice" binding:"omitempty,gte=0"`
	LongTopPrice *float64  `json:"longTopPrice" binding:"omitempty,gte=0"`
}

func (h *SettingsHandler) Get(c *gin.Context) {
	setting, err := h.svc.Get(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Update(c.Request.Context(), middleware.MustActor(c), settings.UpdateInput{
		Quotas: req.Quotas,
		Prices: pricing.PartialInput{
			FreshPrice:   req.FreshPrice,
			BurntPrice:   req.BurntPrice,
			LongTopPrice: req.LongTopPrice,
		},
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
