package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

// writeError maps the domain error taxonomy to HTTP responses. Business-rule
// failures go back structured; anything unexpected is logged in full and
// surfaced as a generic internal error.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	if ise, ok := models.IsInsufficientStock(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":        false,
			"message":        "Insufficient stock available",
			"availableStock": ise.Available,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"success":        false,
			"message":        "Session expired. Please login again.",
			"sessionExpired": true,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Not found or not accessible",
		})
	case errors.Is(err, models.ErrDuplicateDraft), errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrProductInactive):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
	}
}
