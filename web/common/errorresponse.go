package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"presensi.app/presensi/presensi/model"
)

const (
	// KindInvalidRequest labels malformed input that never reached the core.
	KindInvalidRequest model.ErrorKind = "InvalidRequest"
	KindNotFound       model.ErrorKind = "NotFound"
)

type ErrorResponse struct {
	Kind    model.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

func NewErrorResponse(kind model.ErrorKind, message string) *ErrorResponse {
	return &ErrorResponse{
		Kind:    kind,
		Message: message,
	}
}

func StatusOf(kind model.ErrorKind) int {
	switch kind {
	case model.KindInvalidLocation, model.KindMissingEvidence, model.KindInvalidDateRange, KindInvalidRequest:
		return http.StatusBadRequest
	case model.KindNotAuthenticated:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case model.KindSessionAlreadyOpen, model.KindNoOpenSession:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes err as an ErrorResponse. Internal failures are logged
// and their details withheld from the client.
func AbortWithError(c *gin.Context, err error) {
	kind := model.KindOf(err)
	message := err.Error()

	var e *model.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	if kind == model.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		message = "internal error"
	}
	c.AbortWithStatusJSON(StatusOf(kind), NewErrorResponse(kind, message))
}

// AbortWithBindingError reports a request that failed to bind or validate.
func AbortWithBindingError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(KindInvalidRequest, FormatBindingError(err)))
}
