package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/compactstock/internal/application/mirror"
	"github.com/xiebiao/compactstock/internal/infrastructure/config"
	"github.com/xiebiao/compactstock/internal/infrastructure/messaging"
	"github.com/xiebiao/compactstock/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/compactstock/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/compactstock/internal/interface/consumer"
	"github.com/xiebiao/compactstock/internal/interface/http/handler"
	"github.com/xiebiao/compactstock/internal/interface/http/middleware"
	"github.com/xiebiao/compactstock/internal/interface/http/router"
	"github.com/xiebiao/compactstock/pkg/circuitbreaker"
	"github.com/xiebiao/compactstock/pkg/jwt"
	"github.com/xiebiao/compactstock/pkg/mq"
)

// server 组装完成的服务
type server struct {
	cfg      *config.Config
	logger   *zap.Logger
	http     *http.Server
	consumer *mq.Consumer // rabbitmq.enabled=false时为nil
	listener *consumer.OrderStatusListener
}

func provideDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedis(cfg *config.Config, logger *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpire)
}

// provideAdjustmentPublisher 未开启发布时返回nil
func provideAdjustmentPublisher(cfg *config.Config, logger *zap.Logger) (*messaging.AdjustmentPublisher, func(), error) {
	noop := func() {}
	if !cfg.RabbitMQ.Enabled || !cfg.RabbitMQ.PublishAdjustments {
		return nil, noop, nil
	}

	publisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.ExchangeType, logger)
	if err != nil {
		return nil, noop, err
	}

	breaker := circuitbreaker.NewCircuitBreaker("adjustment-publisher", circuitbreaker.Config{})
	adjPublisher := messaging.NewAdjustmentPublisher(publisher, breaker, cfg.RabbitMQ.PublishRoutingKey, logger)
	return adjPublisher, func() { _ = publisher.Close() }, nil
}

// provideConsumer 未开启RabbitMQ时返回nil
func provideConsumer(cfg *config.Config, logger *zap.Logger) (*mq.Consumer, func(), error) {
	noop := func() {}
	if !cfg.RabbitMQ.Enabled {
		return nil, noop, nil
	}

	c, err := mq.NewConsumer(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.ExchangeType,
		cfg.RabbitMQ.Queue,
		[]string{cfg.RabbitMQ.RoutingKey},
		logger,
	)
	if err != nil {
		return nil, noop, err
	}
	return c, func() { _ = c.Close() }, nil
}

// provideMirrorHandler 组装库存同步处理器
func provideMirrorHandler(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *goredis.Client,
	publisher *messaging.AdjustmentPublisher,
	logger *zap.Logger,
) *mirror.Handler {
	opts := []mirror.Option{mirror.WithDiagnostics(cfg.Mirror.Diagnostics)}
	if cfg.Mirror.OrderLock {
		opts = append(opts, mirror.WithOrderLocker(redis.NewOrderLock(redisClient, cfg.Mirror.LockTTL)))
	}
	if publisher != nil {
		opts = append(opts, mirror.WithNotifier(publisher))
	}

	return mirror.NewHandler(
		mysql.NewHistoryRepository(db),
		mysql.NewOrderRepository(db),
		mysql.NewCatalogRepository(db),
		mysql.NewTxManager(db),
		logger,
		opts...,
	)
}

func provideAuthMiddleware(cfg *config.Config, jwtManager *jwt.Manager, blacklist *redis.TokenBlacklist) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtManager, blacklist, cfg.Auth.APIKeyHash)
}

func provideHookHandler(h *mirror.Handler) *handler.HookHandler {
	return handler.NewHookHandler(h)
}

func provideAuthHandler(blacklist *redis.TokenBlacklist) *handler.AuthHandler {
	return handler.NewAuthHandler(blacklist)
}

func provideListener(h *mirror.Handler, logger *zap.Logger) *consumer.OrderStatusListener {
	return consumer.NewOrderStatusListener(h, logger)
}

func provideEngine(
	cfg *config.Config,
	logger *zap.Logger,
	hookHandler *handler.HookHandler,
	authHandler *handler.AuthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	serviceName := ""
	if cfg.Tracing.Enabled {
		serviceName = cfg.Tracing.ServiceName
	}
	return router.New(router.Options{
		Mode:           cfg.Server.Mode,
		ServiceName:    serviceName,
		Swagger:        cfg.Server.Mode != gin.ReleaseMode,
		Logger:         logger,
		HookHandler:    hookHandler,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
	})
}

func provideServer(
	cfg *config.Config,
	logger *zap.Logger,
	engine *gin.Engine,
	c *mq.Consumer,
	listener *consumer.OrderStatusListener,
) *server {
	return &server{
		cfg:    cfg,
		logger: logger,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		consumer: c,
		listener: listener,
	}
}

// buildServer 手动组装依赖，与wire.go中initializeServer的依赖图一致
func buildServer(cfg *config.Config, logger *zap.Logger) (*server, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, dbCleanup, err := provideDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, dbCleanup)

	redisClient, redisCleanup, err := provideRedis(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, redisCleanup)

	publisher, pubCleanup, err := provideAdjustmentPublisher(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, pubCleanup)

	mqConsumer, consumerCleanup, err := provideConsumer(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, consumerCleanup)

	blacklist := redis.NewTokenBlacklist(redisClient)
	jwtManager := provideJWTManager(cfg)

	mirrorHandler := provideMirrorHandler(cfg, db, redisClient, publisher, logger)

	engine := provideEngine(cfg, logger,
		provideHookHandler(mirrorHandler),
		provideAuthHandler(blacklist),
		provideAuthMiddleware(cfg, jwtManager, blacklist),
	)

	return provideServer(cfg, logger, engine, mqConsumer, provideListener(mirrorHandler, logger)), cleanup, nil
}

// run 启动HTTP服务和消费者，ctx取消后优雅退出
func (s *server) run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("HTTP服务启动", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	consumerDone := make(chan struct{})
	if s.consumer == nil {
		close(consumerDone)
	} else {
		go func() {
			defer close(consumerDone)
			if err := s.listener.Run(consumerCtx, s.consumer); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("收到退出信号，开始优雅关闭")
	case runErr = <-errCh:
		s.logger.Error("服务异常退出", zap.Error(runErr))
	}

	stopConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP服务关闭失败", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}

	// 等正在处理的消息提交并确认后再关闭数据库和RabbitMQ连接
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		s.logger.Warn("等待消费者退出超时")
	}
	return runErr
}
