package utils

import (
	"errors"
	"net/http"

	"reservo/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	Kind      apperr.Kind    `json:"kind,omitempty"`
	Message   string         `json:"message"`
	Refresh   string         `json:"refresh,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					ErrorCode: "internal",
					Message:   "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response for failures outside the service layer.
func JSONError(c *gin.Context, status int, code string, message string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("code", code), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(status, ErrorResponse{ErrorCode: code, Message: message})
}

// WriteError maps a service error onto its HTTP status and body. Unexpected errors are logged
// and reported as 500 without their text.
func WriteError(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindConflict || ae.Kind == apperr.KindState {
			GetLogger().Info("Request conflict",
				zap.String("code", ae.Code),
				zap.String("path", c.Request.URL.Path),
				zap.String("message", ae.Message))
		}
		c.AbortWithStatusJSON(ae.Status(), ErrorResponse{
			ErrorCode: ae.Code,
			Kind:      ae.Kind,
			Message:   ae.Message,
			Refresh:   ae.Refresh,
			Details:   ae.Details,
		})
		return
	}
	GetLogger().Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: "internal",
		Message:   "Internal Server Error",
	})
}
