// Package httperr renders failures as the service-wide JSON error envelope.
package httperr

import (
	"errors"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MsgNotAuthenticated   = "User is not authenticated"
	MsgInvalidCredentials = "Invalid username or password"
	MsgInvalidToken       = "Invalid or expired token"
	MsgAccessDenied       = "Access denied"
	MsgMalformedRequest   = "Malformed JSON request"
	MsgInternal           = "An unexpected error occurred"
)

// Abort writes the envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   "uri=" + c.Request.URL.Path,
	})
}

// Handle maps a service error to its HTTP status. Internal details are logged, never returned.
func Handle(c *gin.Context, err error, log *zap.Logger) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	Abort(c, status, message)
}

func classify(err error) (int, string) {
	switch {
	case customErrors.IsInvalidArgument(err):
		return http.StatusBadRequest, customErrors.Message(err, "Validation failed")
	case customErrors.IsInvalidCredentials(err):
		return http.StatusUnauthorized, MsgInvalidCredentials
	case customErrors.IsInvalidToken(err):
		return http.StatusUnauthorized, MsgInvalidToken
	case errors.Is(err, customErrors.ErrNoRoles):
		return http.StatusForbidden, customErrors.Message(err, "User has no roles assigned")
	case customErrors.IsForbidden(err):
		return http.StatusForbidden, customErrors.Message(err, MsgAccessDenied)
	case customErrors.IsNotFound(err):
		return http.StatusNotFound, customErrors.Message(err, "Resource not found")
	case customErrors.IsAlreadyExists(err):
		return http.StatusConflict, customErrors.Message(err, "Resource already exists")
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}
