package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/pkg/logger"
	"github.com/prohmpiriya/venue-calendar/pkg/middleware"
	"github.com/prohmpiriya/venue-calendar/pkg/response"
)

// respondError maps the domain error families to HTTP statuses. Anything
// unclassified is logged and reported with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var vErr *domain.ValidationError
	var nfErr *domain.NotFoundError
	var depErr *domain.DependencyUnavailableError

	switch {
	case errors.As(err, &vErr):
		msg := vErr.Message
		if vErr.Field != "" {
			msg = vErr.Field + ": " + msg
		}
		c.JSON(http.StatusBadRequest, response.ValidationError(msg))
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, response.NotFound(capitalize(nfErr.Entity)+" not found"))
	case errors.As(err, &depErr):
		logger.Get().ErrorContext(c.Request.Context(), fallback,
			zap.String("dependency", depErr.Dependency),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(depErr.Err),
		)
		c.JSON(http.StatusServiceUnavailable, response.ServiceUnavailable(fallback))
	default:
		logger.Get().ErrorContext(c.Request.Context(), fallback,
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, response.InternalError(fallback))
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Resource"
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
