// Package http exposes the REST surface of the auth service.
package http

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the uniform informational body.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError maps domain sentinels to HTTP status codes. Unrecognized
// errors become opaque 500s; the cause is logged, never returned.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := errors.ErrInternal.Error()

	switch {
	case stderrors.Is(err, errors.ErrInvalidRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case stderrors.Is(err, errors.ErrEmailNotVerified):
		status = http.StatusForbidden
		message = errors.ErrEmailNotVerified.Error()
	case stderrors.Is(err, errors.ErrUserBlocked):
		status = http.StatusForbidden
		message = errors.ErrUserBlocked.Error()
	case stderrors.Is(err, errors.ErrForbidden):
		status = http.StatusForbidden
		message = errors.ErrForbidden.Error()
	case errors.IsUnauthorized(err):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.IsConflict(err):
		status = http.StatusConflict
		message = err.Error()
	case stderrors.Is(err, errors.ErrUserNotFound), stderrors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case stderrors.Is(err, errors.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
		message = errors.ErrRateLimitExceeded.Error()
	default:
		log.Error("request failed", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

func respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
