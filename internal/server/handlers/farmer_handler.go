package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/farmers"
)

// FarmerHandler serves the farmer directory.
type FarmerHandler struct {
	svc    *farmers.Service
	logger *zap.Logger
}

// NewFarmerHandler constructs the HTTP handler adapter.
func NewFarmerHandler(svc *farmers.Service, logger *zap.Logger) *FarmerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmerHandler{svc: svc, logger: logger}
}

type farmerRequest struct {
	Name          string   `json:"name" binding:"required"`
	LicensePlates []string `json:"licensePlates"`
}

func (r farmerRequest) input() farmers.Input {
	return farmers.Input{Name: r.Name, LicensePlates: r.LicensePlates}
}

func (h *FarmerHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FarmerHandler) Create(c *gin.Context) {
	var req farmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	farmer, err := h.svc.Create(c.Request.Context(), middleware.MustActor(c), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, farmer)
}

func (h *FarmerHandler) Update(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	var req farmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	farmer, err := h.svc.Update(c.Request.Context(), middleware.MustActor(c), id, req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, farmer)
}

func (h *FarmerHandler) Delete(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.MustActor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Farmer deleted successfully"})
}
