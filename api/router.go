package api

import (
	"net/http"

	"storefront/api/health"
	"storefront/api/middleware"
	"storefront/api/response"
	"storefront/config"
	"storefront/pkg/errors"

	"github.com/gin-gonic/gin"
)

const basePath = "/api/v1"

// Registrar 控制器在 /api/v1 下挂载自己的路由
type Registrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// Router health endpoints are public; every other controller sits behind
// bearer-token auth.
type Router struct {
	engine    *gin.Engine
	config    *config.Config
	health    *health.Controller
	protected []Registrar
}

func NewRouter(cfg *config.Config, healthController *health.Controller, protected ...Registrar) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	// request id first so recovery and access logs can carry it
	engine.Use(
		middleware.RequestIDMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.CORSMiddleware(&cfg.CORS),
		middleware.RateLimitMiddleware(&cfg.Server.RateLimit),
	)

	return &Router{engine: engine, config: cfg, health: healthController, protected: protected}
}

func (r *Router) SetupRoutes() {
	v1 := r.engine.Group(basePath)
	r.health.RegisterRoutes(v1)

	authed := v1.Group("", middleware.AuthMiddleware(r.config.Auth.JWTSecret))
	for _, reg := range r.protected {
		reg.RegisterRoutes(authed)
	}

	r.engine.GET("/", r.index)
	r.engine.NoRoute(func(c *gin.Context) {
		response.Abort(c, http.StatusNotFound, string(errors.CodeNotFound), "Route not found")
	})
	r.engine.NoMethod(func(c *gin.Context) {
		response.Abort(c, http.StatusMethodNotAllowed, string(errors.CodeBadRequest), "Method not allowed")
	})
}

func (r *Router) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    r.config.App.Name,
		"version": r.config.App.Version,
		"env":     r.config.App.Env,
		"health":  basePath + "/health",
	})
}

func (r *Router) GetEngine() *gin.Engine { return r.engine }
