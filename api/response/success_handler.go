package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func HandleSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      http.StatusOK,
		RequestID: getRequestID(c),
	})
}

func HandleCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      http.StatusCreated,
		RequestID: getRequestID(c),
	})
}

// Abort writes an error envelope from middleware and stops the chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Success:   false,
		Error:     code,
		Message:   message,
		Code:      status,
		RequestID: getRequestID(c),
	})
}
