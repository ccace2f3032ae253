package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/slot-payout/internal/config"
	"github.com/wfunc/slot-payout/internal/database"
	"github.com/wfunc/slot-payout/internal/middleware"
	"github.com/wfunc/slot-payout/internal/service"
	ws "github.com/wfunc/slot-payout/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine      *gin.Engine
	db          *gorm.DB
	services    *service.Services
	spinHandler *SpinHandler
	wsHandler   *WebSocketHandler
	wsPath      string
	log         *zap.Logger
}

// NewRouter 创建路由器，db 和 hub 可以为nil
func NewRouter(services *service.Services, hub *ws.Hub, db *gorm.DB, cfg *config.Config, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog())
	engine.Use(middleware.Recovery())

	router := &Router{
		engine:      engine,
		db:          db,
		services:    services,
		spinHandler: NewSpinHandler(services.Spin, log),
		wsPath:      cfg.WebSocket.Path,
		log:         log,
	}
	if hub != nil {
		router.wsHandler = NewWebSocketHandler(hub, cfg.WebSocket, log)
	}
	if router.wsPath == "" {
		router.wsPath = "/ws/spins"
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		v1.POST("/spin", r.spinHandler.Spin)
		v1.GET("/paytable", r.spinHandler.GetPaytable)
		v1.GET("/stats", r.spinHandler.GetStats)

		spins := v1.Group("/spins")
		{
			spins.GET("", r.spinHandler.ListSpins)
			spins.GET("/:id", r.spinHandler.GetSpin)
		}
	}

	if r.wsHandler != nil {
		r.engine.GET(r.wsPath, r.wsHandler.SpinFeed)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	if _, err := r.services.Spin.Paytable(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "引擎未就绪",
		})
		return
	}

	if r.db != nil {
		if err := database.Ping(r.db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "数据库ping失败",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Handler 返回HTTP处理器，供 http.Server 使用
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
