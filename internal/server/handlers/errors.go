package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps a domain error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "ERR_VALIDATION"
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusBadRequest, "ERR_INVALID_CREDENTIALS"
	case errors.Is(err, models.ErrShareLinkExpired):
		return http.StatusBadRequest, "ERR_LINK_EXPIRED"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "ERR_CONFLICT"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "ERR_FORBIDDEN"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "ERR_NOT_FOUND"
	default:
		return http.StatusInternalServerError, "ERR_INTERNAL"
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusForbidden:
		msg = models.ErrForbidden.Error()
	case http.StatusInternalServerError:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Code: code})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "ERR_VALIDATION"})
}

func objectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		badRequest(c, models.Validationf("invalid %s", param))
		return primitive.NilObjectID, false
	}
	return id, true
}
