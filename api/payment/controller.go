package payment

import (
	"storefront/api/response"
	paymentapp "storefront/application/payment"

	"github.com/gin-gonic/gin"
)

// Controller Razorpay checkout endpoints
type Controller struct {
	paymentService *paymentapp.ApplicationService
}

func NewController(paymentService *paymentapp.ApplicationService) *Controller {
	return &Controller{paymentService: paymentService}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	paymentGroup := router.Group("/payment")
	{
		paymentGroup.POST("/create-order", c.CreatePaymentOrder)
		paymentGroup.POST("/verify-signature", c.VerifySignature)
	}
}

// CreatePaymentOrder POST /api/v1/payment/create-order
func (c *Controller) CreatePaymentOrder(ctx *gin.Context) {
	var req paymentapp.CreatePaymentOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleBindError(ctx, err)
		return
	}

	result, err := c.paymentService.CreatePaymentOrder(ctx.Request.Context(), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, result, "payment order created")
}

// VerifySignature POST /api/v1/payment/verify-signature
func (c *Controller) VerifySignature(ctx *gin.Context) {
	var req paymentapp.VerifySignatureRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleBindError(ctx, err)
		return
	}

	result, err := c.paymentService.VerifyPaymentSignature(ctx.Request.Context(), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, result, result.Message)
}
