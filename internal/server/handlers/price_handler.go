package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/pricing"
)

// PriceHandler serves the price table and price checks.
type PriceHandler struct {
	svc    *pricing.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewPriceHandler constructs the HTTP handler adapter.
func NewPriceHandler(svc *pricing.Service, logger *zap.Logger) *PriceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceHandler{svc: svc, logger: logger, now: time.Now}
}

type priceRequest struct {
	EffectiveDate string  `json:"effectiveDate" binding:"required"`
	FreshPrice    float64 `json:"freshPrice" binding:"gte=0"`
	BurntPrice    float64 `json:"burntPrice" binding:"gte=0"`
	LongTopPrice  float64 `json:"longTopPrice" binding:"gte=0"`
}

func (h *PriceHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Upsert writes the entry for an effective date. 201 when a new date was
// added, 200 when an existing one was replaced.
func (h *PriceHandler) Upsert(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	effective, err := models.ParseDate(req.EffectiveDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	entry, created, err := h.svc.Upsert(c.Request.Context(), middleware.MustActor(c), pricing.UpsertInput{
		EffectiveDate: effective,
		FreshPrice:    req.FreshPrice,
		BurntPrice:    req.BurntPrice,
		LongTopPrice:  req.LongTopPrice,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, entry)
}

func (h *PriceHandler) Delete(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.MustActor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Price entry deleted successfully"})
}

// Check resolves the entry in force on ?date=, defaulting to now.
func (h *PriceHandler) Check(c *gin.Context) {
	at := h.now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		at = parsed
	}
	res, err := h.svc.Check(c.Request.Context(), middleware.MustActor(c), at)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
