package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope for all JSON responses
type APIResponse struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse sends a 200 response with a result payload
func SuccessResponse(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Result: result})
}

// CreatedResponse sends a 201 response with a result payload
func CreatedResponse(c *gin.Context, result interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Result: result})
}

// ErrorResponse sends an error response with the given status code
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{Success: false, Error: message})
}

// AbortWithError maps an application error to its HTTP response
func AbortWithError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		ErrorResponse(c, appErr.Code, appErr.Message)
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}
