package api

import (
	refundHandlers "backend/api/handlers/refund"
	walletHandlers "backend/api/handlers/wallet"

	"backend/internal/aftersales"
	"backend/internal/auth"
	"backend/internal/config"
	"backend/internal/infra"
	"backend/internal/logger"
	"backend/internal/metrics"
	middlewarepkg "backend/internal/middleware"
	"backend/internal/notification"
	"backend/internal/order"
	"backend/internal/refund"
	"backend/internal/stock"
	"backend/internal/wallet"
	"backend/internal/worker"

	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter 设置并返回 Gin 路由和 Worker 服务器
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *worker.Server) {
	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middlewarepkg.RequestIDMiddleware())
	router.Use(RequestLogger())
	router.Use(CORS())
	router.Use(metrics.GinMiddleware())
	router.Use(middlewarepkg.RateLimitMiddleware(middlewarepkg.NewRateLimiter(nil)))

	// 公开端点（不需要认证）
	router.GET("/health", HealthCheck(db))
	router.GET("/ready", ReadinessCheck(db))

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 初始化认证服务
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		// 生产模式必须显式配置密钥，防止使用弱默认值
		if strings.EqualFold(cfg.Server.Mode, "release") {
			logger.Fatal("auth.jwt_secret 未配置，生产环境禁止使用默认密钥")
		}
		jwtSecret = "default_jwt_secret_key_change_in_production"
		logger.Warn("auth.jwt_secret 未配置，已回退为开发默认值，请在生产环境设置强随机密钥")
	}
	jwtService := auth.NewJWTService(jwtSecret, cfg.Auth.Issuer)

	// 初始化 Redis（通知去重），不可用时降级继续
	rdb, err := infra.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis 不可用，退款完成通知将不做去重", zap.Error(err))
		rdb = nil
	}

	// 初始化异步任务客户端（退款完成通知入队）
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	notifier := notification.NewAsynqNotifier(asynqClient)

	// 初始化 Services
	orderService := order.NewService(db)
	aftersalesService := aftersales.NewService(db)
	walletService := wallet.NewService(db)
	stockService := stock.NewService(db)

	ledger := refund.NewLedger(db, orderService, aftersalesService)
	coordinator := refund.NewCoordinator(db, ledger, walletService, stockService, notifier)

	// 初始化 Handlers
	refundHandler := refundHandlers.NewHandler(ledger, coordinator)
	walletHandler := walletHandlers.NewHandler(walletService)

	// 管理端 API（需要管理员认证）
	api := router.Group("/api")
	api.Use(auth.AdminAuthMiddleware(jwtService))
	{
		refunds := api.Group("/refunds")
		{
			refunds.GET("/:id/detail", refundHandler.Detail)
			refunds.GET("/:id/logs", refundHandler.Logs)
			refunds.POST("/:id/audit", refundHandler.Audit)
			refunds.POST("/:id/confirm-offline", refundHandler.ConfirmOffline)
		}

		wallets := api.Group("/wallets")
		{
			wallets.GET("/:userId/balance", walletHandler.GetBalance)
			wallets.GET("/:userId/transactions", walletHandler.ListTransactions)
		}
	}

	// 初始化 Worker 服务器（消费通知任务）
	webhookSender := notification.NewWebhookSender(&cfg.Notify)
	workerServer := worker.NewServer(cfg.Redis, webhookSender, rdb, logger.Get())

	return router, workerServer
}

// HealthCheck 健康检查
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "mall-refund",
		})
	}
}

// ReadinessCheck 就绪检查（含数据库连通性）
func ReadinessCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(503, gin.H{
				"status": "not_ready",
				"reason": "database connection error",
			})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(503, gin.H{
				"status": "not_ready",
				"reason": "database ping failed",
			})
			return
		}

		c.JSON(200, gin.H{
			"status":   "ready",
			"database": "connected",
		})
	}
}
