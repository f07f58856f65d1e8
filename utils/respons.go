package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tablehub/errs"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrNotOccupied),
		errors.Is(err, errs.ErrDestinationUnavailable),
		errors.Is(err, errs.ErrLightNotSupported),
		errors.Is(err, errs.ErrStorageConflict),
		errors.Is(err, errs.ErrDuplicateRequest):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondDomainError writes err with the status StatusFor picks. Internal
// errors are logged and hidden from the client.
func RespondDomainError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		if ErrorLogger != nil {
			ErrorLogger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		}
		RespondError(c, code, errors.New("internal server error"))
		return
	}
	RespondError(c, code, err)
}
