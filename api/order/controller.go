/*
Package order - 订单 API 控制器

职责:
1. 接收 HTTP 请求，解析参数
2. 从认证中间件取出调用者 (user.Principal)
3. 调用应用服务处理业务逻辑，使用 response 包统一处理响应和错误

错误处理原则:
1. 参数绑定错误: response.HandleBindError 返回 400 并列出字段
2. 业务错误: 使用 response.HandleAppError 自动映射状态码
*/
package order

import (
	"storefront/api/middleware"
	"storefront/api/response"
	orderapp "storefront/application/order"
	"storefront/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Controller 订单控制器
type Controller struct {
	orderService *orderapp.ApplicationService
}

// NewController 创建订单控制器
func NewController(orderService *orderapp.ApplicationService) *Controller {
	return &Controller{
		orderService: orderService,
	}
}

// RegisterRoutes 注册订单路由，router 需已挂载认证中间件
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	orderGroup := router.Group("/orders")
	{
		orderGroup.POST("", c.CreateOrder)
		orderGroup.GET("", c.ListOrders)
		orderGroup.GET("/user", c.ListUserOrders)
		orderGroup.GET("/:orderId/tracking", c.GetTracking)
		orderGroup.GET("/:orderId/history", c.GetHistory)
		orderGroup.PUT("/:orderId/status", c.UpdateOrderStatus)
		orderGroup.POST("/:orderId/cancel", c.CancelOrder)
		orderGroup.POST("/:orderId/return", c.RequestReturn)
		orderGroup.PUT("/:orderId/refund", c.ProcessRefund)
	}
}

// CreateOrder 创建订单
// POST /api/v1/orders
func (c *Controller) CreateOrder(ctx *gin.Context) {
	var req orderapp.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleBindError(ctx, err)
		return
	}

	order, err := c.orderService.CreateOrder(ctx.Request.Context(), middleware.PrincipalFrom(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, order, "Order created successfully")
}

// ListOrders 管理员订单列表
// GET /api/v1/orders?status=&page=&limit=
func (c *Controller) ListOrders(ctx *gin.Context) {
	var query orderapp.ListOrdersQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.HandleBindError(ctx, err)
		return
	}

	orders, err := c.orderService.ListOrders(ctx.Request.Context(), middleware.PrincipalFrom(ctx), query)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, orders, "orders retrieved successfully")
}

// ListUserOrders 用户订单列表，userId 缺省为当前用户
// GET /api/v1/orders/user?userId=
func (c *Controller) ListUserOrders(ctx *gin.Context) {
	orders, err := c.orderService.ListOrdersForUser(ctx.Request.Context(), middleware.PrincipalFrom(ctx), ctx.Query("userId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, orders, "user orders retrieved successfully")
}

// GetTracking
// GET /api/v1/orders/:orderId/tracking
func (c *Controller) GetTracking(ctx *gin.Context) {
	orderID, ok := orderIDParam(ctx)
	if !ok {
		return
	}

	tracking, err := c.orderService.GetTracking(ctx.Request.Context(), middleware.PrincipalFrom(ctx), orderID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, tracking, "tracking retrieved successfully")
}

// GetHistory
// GET /api/v1/orders/:orderId/history
func (c *Controller) GetHistory(ctx *gin.Context) {
	orderID, ok := orderIDParam(ctx)
	if !ok {
		return
	}

	history, err := c.orderService.GetHistory(ctx.Request.Context(), middleware.PrincipalFrom(ctx), orderID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, history, "order history retrieved successfully")
}

// UpdateOrderStatus 更新订单状态（管理员）
// PUT /api/v1/orders/:orderId/status
func (c *Controller) UpdateOrderStatus(ctx *gin.Context) {
	orderID, ok := orderIDParam(ctx)
	if !ok {
		return
	}

	var req orderapp.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleBindError(ctx, err)
		return
	}

	order, err := c.orderService.UpdateStatus(ctx.Request.Context(), middleware.PrincipalFrom(ctx), orderID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "Order status updated successfully")
}

// CancelOrder 取消订单
// POST /api/v1/orders/:orderId/cancel
func (c *Controller) CancelOrder(ctx *gin.Context) {
	orderID, ok := orderIDParam(ctx)
	if !ok {
		return
	}

	var req orderapp.CancelOrderRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	order, err := c.orderService.CancelOrder(ctx.Request.Context(), middleware.PrincipalFrom(ctx), orderID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "Order cancelled successfully")
}

// RequestReturn 申请退货
// POST /api/v1/orders/:orderId/return
func (c *Controller) RequestReturn(ctx *gin.Context) {
	orderID, ok := orderIDParam(ctx)
	if !ok {
		return
	}

	var req orderapp.ReturnOrderRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	order, err := c.orderService.RequestReturn(ctx.Request.Context(), middleware.PrincipalFrom(ctx), orderID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "Return request submitted successfully")
}

// ProcessRefund 退款（管理员）
// PUT /api/v1/orders/:orderId/refund
func (c *Controller) ProcessRefund(ctx *gin.Context) {
	orderID, ok := orderIDParam(ctx)
	if !ok {
		return
	}

	var req orderapp.RefundRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	order, err := c.orderService.ProcessRefund(ctx.Request.Context(), middleware.PrincipalFrom(ctx), orderID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "Refund processed successfully")
}

func orderIDParam(ctx *gin.Context) (string, bool) {
	orderID := ctx.Param("orderId")
	if orderID == "" {
		response.HandleAppError(ctx, errors.BadRequest("order ID is required").WithField("orderId", "required"))
		return "", false
	}
	return orderID, true
}

// bindOptionalJSON 空 body 视为零值请求
func bindOptionalJSON(ctx *gin.Context, req interface{}) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.HandleBindError(ctx, err)
		return false
	}
	return true
}
