package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmotors/backoffice/internal/app"
)

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeUnauthorized       = 40100
	CodeForbidden          = 40300
	CodeNotFound           = 40400
	CodeConflict           = 40900
	CodeInvalidState       = 42200
	CodeInternalServer     = 50000
	CodeIngestionFailed    = 50010
	CodeBackendUnavailable = 50200
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// FromError maps service errors to HTTP responses. Unrecognized errors get
// the fallback message so internals never leak to clients.
func FromError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		Error(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		Error(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, app.ErrForbidden):
		Error(c, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, app.ErrConflict):
		Error(c, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, app.ErrInvalidTransition):
		Error(c, http.StatusUnprocessableEntity, CodeInvalidState, err.Error())
	case errors.Is(err, app.ErrIngestionFailed):
		Error(c, http.StatusInternalServerError, CodeIngestionFailed, err.Error())
	case errors.Is(err, app.ErrBackendUnavailable):
		Error(c, http.StatusBadGateway, CodeBackendUnavailable, err.Error())
	default:
		Error(c, http.StatusInternalServerError, CodeInternalServer, fallback)
	}
}
