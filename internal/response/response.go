// Package response renders the uniform {status, code, message, data} envelope.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status tags
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// New builds an envelope without writing it.
func New(status string, code int, message string, data any) Envelope {
	return Envelope{
		Status:  status,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// Render writes the envelope with code as the HTTP status.
func Render(c *gin.Context, status string, code int, message string, data any) {
	c.JSON(code, New(status, code, message, data))
}

// Success sends a success envelope, 200 unless code is given.
func Success(c *gin.Context, message string, data any, code ...int) {
	Render(c, StatusSuccess, pick(code, http.StatusOK), message, data)
}

// Fail sends a fail envelope, 400 unless code is given.
func Fail(c *gin.Context, message string, data any, code ...int) {
	Render(c, StatusFail, pick(code, http.StatusBadRequest), message, data)
}

// Error sends an error envelope, 500 unless code is given.
func Error(c *gin.Context, message string, data any, code ...int) {
	Render(c, StatusError, pick(code, http.StatusInternalServerError), message, data)
}

// StatusFor returns the status tag matching an HTTP code.
func StatusFor(code int) string {
	switch {
	case code >= 500:
		return StatusError
	case code >= 400:
		return StatusFail
	default:
		return StatusSuccess
	}
}

func pick(code []int, def int) int {
	if len(code) > 0 && code[0] != 0 {
		return code[0]
	}
	return def
}
