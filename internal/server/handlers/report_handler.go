package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/reporting"
)

const (
	contentTypeCSV = "text/csv; charset=utf-8"
	contentTypePDF = "application/pdf"
)

// ReportHandler serves dashboard stats and bill exports.
type ReportHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger, now: time.Now}
}

func (h *ReportHandler) Stats(c *gin.Context) {
	filter, err := billFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), middleware.MustActor(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReportHandler) ExportCSV(c *gin.Context) {
	filter, err := billFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	data, err := h.svc.ExportCSV(c.Request.Context(), middleware.MustActor(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.attachment(c, "csv")
	c.Data(http.StatusOK, contentTypeCSV, data)
}

func (h *ReportHandler) ExportPDF(c *gin.Context) {
	filter, err := billFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	data, err := h.svc.ExportPDF(c.Request.Context(), middleware.MustActor(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.attachment(c, "pdf")
	c.Data(http.StatusOK, contentTypePDF, data)
}

func (h *ReportHandler) attachment(c *gin.Context, ext string) {
	name := fmt.Sprintf("bills-%s.%s", h.now().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}
