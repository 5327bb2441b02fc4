package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/xiebiao/compactstock/docs"
	"github.com/xiebiao/compactstock/internal/infrastructure/config"
	"github.com/xiebiao/compactstock/pkg/jwt"
	"github.com/xiebiao/compactstock/pkg/logger"
	"github.com/xiebiao/compactstock/pkg/metrics"
	"github.com/xiebiao/compactstock/pkg/tracing"
)

// @title                       compactstock API
// @version                     1.0
// @description                 带盒/不带盒组合库存同步服务
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-Api-Key
func main() {
	issueToken := flag.String("issue-token", "", "为指定调用方签发带hooks:write权限的Token后退出")
	hashAPIKey := flag.String("hash-api-key", "", "输出API Key的bcrypt哈希（填入auth.api_key_hash）后退出")
	flag.Parse()

	if *hashAPIKey != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*hashAPIKey), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("生成哈希失败: %v", err)
		}
		fmt.Println(string(hash))
		return
	}

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if *issueToken != "" {
		token, err := provideJWTManager(cfg).GenerateToken(*issueToken, []string{jwt.ScopeHookWrite})
		if err != nil {
			log.Fatalf("签发Token失败: %v", err)
		}
		fmt.Println(token)
		return
	}

	os.Exit(serve(cfg))
}

// serve 运行服务并返回退出码
// 所有退出路径都经过defer，保证链路追踪和日志缓冲被刷新
func serve(cfg *config.Config) int {
	// 2. 日志
	zl, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Printf("初始化日志失败: %v", err)
		return 1
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("配置加载成功",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("db", fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("table_prefix", cfg.Database.TablePrefix),
		zap.String("redis", cfg.Redis.Addr()),
		zap.Bool("rabbitmq", cfg.RabbitMQ.Enabled),
		zap.Bool("diagnostics", cfg.Mirror.Diagnostics),
		zap.Bool("order_lock", cfg.Mirror.OrderLock),
	)

	// 3. 链路追踪
	shutdownTracer, err := tracing.InitTracer(tracing.Options{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Enabled:     cfg.Tracing.Enabled,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		zl.Error("初始化链路追踪失败", zap.Error(err))
		return 1
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			zl.Warn("关闭链路追踪失败", zap.Error(err))
		}
	}()

	// 4. 指标
	metrics.InitMetrics()

	// 5. 组装依赖
	srv, cleanup, err := buildServer(cfg, zl)
	if err != nil {
		zl.Error("初始化服务失败", zap.Error(err))
		return 1
	}
	defer cleanup()

	// 6. 运行直到收到SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.run(ctx); err != nil {
		zl.Error("服务退出", zap.Error(err))
		return 1
	}
	zl.Info("服务已停止")
	return 0
}
