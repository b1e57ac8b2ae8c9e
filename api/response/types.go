/*
Package response - API 层统一响应处理

HTTP 状态码映射放在 API 层；内部错误统一返回 "internal server error"，真实错误只记录日志。

	成功: { success: true, data: {...}, message: "...", code: 200, request_id: "..." }
	失败: { success: false, error: "ERROR_CODE", message: "用户可见消息", details: [{field, reason}], code: 4xx/5xx, request_id: "..." }
*/
package response

import "storefront/pkg/errors"

// RequestIDKey 是 gin context 中保存请求 ID 的键。
const RequestIDKey = "request_id"

// Response 是统一响应结构。
type Response struct {
	Success   bool                `json:"success"`
	Data      interface{}         `json:"data,omitempty"`
	Error     string              `json:"error,omitempty"`
	Details   []errors.FieldError `json:"details,omitempty"`
	Code      int                 `json:"code"`
	Message   string              `json:"message"`
	RequestID string              `json:"request_id,omitempty"`
}
