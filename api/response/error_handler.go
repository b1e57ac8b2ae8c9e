package response

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"runtime"
	"strings"

	"storefront/domain/shared"
	"storefront/pkg/errors"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// GetRequestID request id set by the RequestID middleware, or ""
func GetRequestID(c *gin.Context) string {
	return getRequestID(c)
}

func getRequestID(c *gin.Context) string {
	id, _ := c.Get(RequestIDKey)
	s, _ := id.(string)
	return s
}

// HandleBindError 参数绑定失败：400 BAD_REQUEST，details 列出被拒绝的字段
func HandleBindError(c *gin.Context, err error) {
	HandleAppError(c, bindError(err))
}

func bindError(err error) *errors.AppError {
	appErr := errors.Wrap(err, errors.CodeBadRequest, "invalid request parameters")

	var invalid validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case stdErrors.As(err, &invalid):
		for _, fe := range invalid {
			reason := fe.Tag()
			if fe.Param() != "" {
				reason += "=" + fe.Param()
			}
			appErr = appErr.WithField(fieldPath(fe), reason)
		}
	case stdErrors.As(err, &typeErr):
		appErr = appErr.WithField(typeErr.Field, "must be "+typeErr.Type.String())
	case stdErrors.As(err, &syntaxErr):
		appErr.Message = "malformed JSON body"
	}
	return appErr
}

// fieldPath "CreateOrderRequest.items[0].quantity" -> "items[0].quantity"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// HandleAppError 按应用错误码映射 HTTP 状态码。
// 5xx 记 error 并带堆栈，4xx 记 warn；内部错误对外只返回固定文案。
func HandleAppError(c *gin.Context, err error) {
	appErr := errors.FromDomainError(err)
	status := appErr.HTTPStatusCode()

	fields := []zap.Field{
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("error_code", string(appErr.Code)),
		zap.Int("http_status", status),
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}

	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error(appErr.Message, append(fields, zap.Strings("stack", stackOf(err)))...)
	} else {
		log.Warn(appErr.Message, fields...)
	}

	message := appErr.Message
	if appErr.Code == errors.CodeInternal {
		message = "internal server error"
	}
	c.JSON(status, &Response{
		Success:   false,
		Error:     string(appErr.Code),
		Message:   message,
		Details:   appErr.Fields,
		Code:      status,
		RequestID: getRequestID(c),
	})
}

func stackOf(err error) []string {
	var stacker shared.Stacker
	if stdErrors.As(err, &stacker) {
		if stack := stacker.Stack(); len(stack) > 0 {
			return stack
		}
	}

	var pcs [8]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			stack = append(stack, frame.Function)
		}
		if !more {
			break
		}
	}
	return stack
}
