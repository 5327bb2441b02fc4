package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/xiebiao/compactstock/internal/interface/http/handler"
	"github.com/xiebiao/compactstock/internal/interface/http/middleware"
	"github.com/xiebiao/compactstock/pkg/jwt"
	"github.com/xiebiao/compactstock/pkg/response"
)

// Options 路由依赖
type Options struct {
	Mode        string // debug | release | test
	ServiceName string // otelgin的服务名
	Swagger     bool   // 是否暴露 /swagger/*any

	Logger         *zap.Logger
	HookHandler    *handler.HookHandler
	AuthHandler    *handler.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// New 创建Gin引擎并注册路由
//
// 中间件顺序：Recovery → 链路追踪 → 请求日志 → 指标 → 认证（仅钩子和吊销接口）
func New(opts Options) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		hooks := v1.Group("/hooks")
		hooks.Use(opts.AuthMiddleware.RequireScope(jwt.ScopeHookWrite))
		{
			hooks.POST("/order-status", opts.HookHandler.OrderStatusUpdate)
		}

		if opts.AuthHandler != nil {
			auth := v1.Group("/auth")
			auth.Use(opts.AuthMiddleware.RequireScope(""))
			{
				auth.POST("/revoke", opts.AuthHandler.Revoke)
			}
		}
	}

	return r
}
