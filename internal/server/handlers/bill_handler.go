package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/billing"
)

// BillHandler serves bill recording.
type BillHandler struct {
	svc    *billing.Service
	logger *zap.Logger
}

// NewBillHandler constructs the HTTP handler adapter.
func NewBillHandler(svc *billing.Service, logger *zap.Logger) *BillHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillHandler{svc: svc, logger: logger}
}

type createBillRequest struct {
	BillNumber    string               `json:"billNumber" binding:"required"`
	OwnerName     string               `json:"ownerName" binding:"required"`
	QuotaNumber   string               `json:"quotaNumber"`
	LicensePlate  string               `json:"licensePlate"`
	Date          string               `json:"date" binding:"required"`
	SugarcaneType models.SugarcaneType `json:"sugarcaneType" binding:"required,canetype"`
	Weight        *float64             `json:"weight" binding:"required,gte=0"`
	FuelCost      float64              `json:"fuelCost" binding:"gte=0"`
	ManualPrice   *float64             `json:"manualPrice" binding:"omitempty,gte=0"`
}

type updateBillRequest struct {
	BillNumber    *string               `json:"billNumber"`
	OwnerName     *string               `json:"ownerName"`
	QuotaNumber   *string               `json:"quotaNumber"`
	LicensePlate  *string               `json:"licensePlate"`
	Date          *string               `json:"date"`
	SugarcaneType *models.SugarcaneType `json:"sugarcaneType" binding:"omitempty,canetype"`
	Weight        *float64              `json:"weight" binding:"omitempty,gte=0"`
	FuelCost      *float64              `json:"fuelCost" binding:"omitempty,gte=0"`
	ManualPrice   *float64              `json:"manualPrice" binding:"omitempty,gte=0"`
}

// List returns bills, optionally filtered by owner and date range.
func (h *BillHandler) List(c *gin.Context) {
	filter, err := billFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	bills, err := h.svc.List(c.Request.Context(), middleware.MustActor(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

// Create records a bill.
func (h *BillHandler) Create(c *gin.Context) {
	var req createBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		badRequest(c, err)
		return
	}

	bill, err := h.svc.Create(c.Request.Context(), middleware.MustActor(c), billing.CreateInput{
		BillNumber:   req.BillNumber,
		OwnerName:    req.OwnerName,
		QuotaNumber:  req.QuotaNumber,
		LicensePlate: req.LicensePlate,
		Date:         date,
		Type:         req.SugarcaneType,
		Weight:       *req.Weight,
		FuelCost:     req.FuelCost,
		ManualPrice:  req.ManualPrice,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// Update patches a bill.
func (h *BillHandler) Update(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	var req updateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := billing.UpdateInput{
		BillNumber:   req.BillNumber,
		OwnerName:    req.OwnerName,
		QuotaNumber:  req.QuotaNumber,
		LicensePlate: req.LicensePlate,
		Type:         req.SugarcaneType,
		Weight:       req.Weight,
		FuelCost:     req.FuelCost,
		ManualPrice:  req.ManualPrice,
	}
	if req.Date != nil {
		date, err := models.ParseDate(*req.Date)
		if err != nil {
			badRequest(c, err)
			return
		}
		in.Date = &date
	}

	bill, err := h.svc.Update(c.Request.Context(), middleware.MustActor(c), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// Delete removes a bill.
func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.MustActor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted successfully"})
}

// CheckDuplicate reports whether a bill number is taken.
func (h *BillHandler) CheckDuplicate(c *gin.Context) {
	exists, err := h.svc.CheckDuplicate(c.Request.Context(), middleware.MustActor(c), c.Param("billNumber"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

