package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verr   *models.ValidationError
		fetch  *models.DataFetchError
		cfgErr *models.ConfigurationError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "problems": verr.Problems})
	case errors.Is(err, models.ErrUnknownSite), errors.Is(err, models.ErrNoSites):
		badRequest(c, err.Error())
	case errors.Is(err, models.ErrReportNotFound), errors.Is(err, models.ErrRecipientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &fetch):
		logger.Error("store unavailable", zap.String("op", fetch.Op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "data store unavailable"})
	case errors.As(err, &cfgErr):
		logger.Error("delivery not configured", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
