//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 与providers.go中的buildServer描述同一张依赖图，运行 `wire gen ./cmd/compactstock`
// 生成wire_gen.go后可替换手动组装。

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/xiebiao/compactstock/internal/infrastructure/config"
	"github.com/xiebiao/compactstock/internal/infrastructure/persistence/redis"
)

// infrastructureSet 数据库、Redis、RabbitMQ
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	provideAdjustmentPublisher,
	provideConsumer,
	redis.NewTokenBlacklist,
)

// applicationSet 库存同步处理器
var applicationSet = wire.NewSet(
	provideMirrorHandler,
	provideListener,
)

// httpSet 认证、Handler、路由
var httpSet = wire.NewSet(
	provideJWTManager,
	provideAuthMiddleware,
	provideHookHandler,
	provideAuthHandler,
	provideEngine,
)

// initializeServer 组装服务
func initializeServer(cfg *config.Config, logger *zap.Logger) (*server, func(), error) {
	wire.Build(
		infrastructureSet,
		applicationSet,
		httpSet,
		provideServer,
	)
	return nil, nil, nil
}
