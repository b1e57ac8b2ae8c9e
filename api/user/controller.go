package user

import (
	"storefront/api/middleware"
	"storefront/api/response"
	userapp "storefront/application/user"

	"github.com/gin-gonic/gin"
)

// Controller 用户资料控制器
type Controller struct {
	userService *userapp.ApplicationService
}

func NewController(userService *userapp.ApplicationService) *Controller {
	return &Controller{userService: userService}
}

// RegisterRoutes router 需已挂载认证中间件
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	userGroup := router.Group("/users")
	{
		userGroup.GET("/me", c.GetProfile)
		userGroup.PUT("/me", c.SaveProfile)
		userGroup.PUT("/:userId/admin", c.PromoteUser)
		userGroup.PUT("/:userId/status", c.UpdateUserStatus)
	}
}

// GetProfile GET /api/v1/users/me
func (c *Controller) GetProfile(ctx *gin.Context) {
	profile, err := c.userService.GetProfile(ctx.Request.Context(), middleware.PrincipalFrom(ctx))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, profile, "profile retrieved successfully")
}

// SaveProfile PUT /api/v1/users/me
func (c *Controller) SaveProfile(ctx *gin.Context) {
	var req userapp.SaveProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleBindError(ctx, err)
		return
	}

	profile, err := c.userService.SaveProfile(ctx.Request.Context(), middleware.PrincipalFrom(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, profile, "profile saved successfully")
}

// PromoteUser 授予管理员（管理员）
// PUT /api/v1/users/:userId/admin
func (c *Controller) PromoteUser(ctx *gin.Context) {
	profile, err := c.userService.PromoteUser(ctx.Request.Context(), middleware.PrincipalFrom(ctx), ctx.Param("userId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, profile, "user promoted successfully")
}

// UpdateUserStatus 启用/停用用户（管理员）
// PUT /api/v1/users/:userId/status
func (c *Controller) UpdateUserStatus(ctx *gin.Context) {
	var req userapp.UpdateUserStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleBindError(ctx, err)
		return
	}

	profile, err := c.userService.UpdateUserStatus(ctx.Request.Context(), middleware.PrincipalFrom(ctx), ctx.Param("userId"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, profile, "user status updated successfully")
}
