package svc

import (
	"context"
	"os"
	"time"

	"fedinbox/config"
	"fedinbox/internal/gateway"
	"fedinbox/internal/inbox"
	"fedinbox/internal/infra/cache"
	"fedinbox/internal/infra/db"
	"fedinbox/internal/infra/storage"
	"fedinbox/internal/lock"
	"fedinbox/internal/middleware"
	"fedinbox/internal/mq"
	"fedinbox/internal/resolver"

	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceContext struct {
	Config    *config.Config
	DB        *gorm.DB
	Cache     *cache.RedisCache
	Rabbit    *mq.RabbitMQ
	Icons     *storage.IconStore
	Gateways  gateway.Gateways
	Locks     lock.Manager
	Processor *inbox.Processor
	Publisher *mq.Publisher
	Consumer  *mq.Consumer

	tracerProvider *trace.TracerProvider
}

// NewServiceContext 这里是所有初始化的总入口
func NewServiceContext(cfg *config.Config) *ServiceContext {
	dbConn := db.InitMySQL(cfg)

	rdb, err := cache.New(cfg)
	if err != nil {
		zap.L().Warn("Redis connection failed, continuing without Redis", zap.Error(err))
	} else {
		zap.L().Info("Redis connected successfully")
	}

	rabbit, err := mq.New(cfg)
	if err != nil {
		// 活动全走队列，MQ 起不来服务没法干活
		zap.L().Fatal("RabbitMQ connection failed", zap.Error(err))
	}
	zap.L().Info("RabbitMQ connected successfully")

	icons, err := storage.NewIconStore(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioBucket,
	)
	if err != nil {
		zap.L().Warn("MinIO connection failed, emoji icons will not be mirrored", zap.Error(err))
		icons = nil
	}

	// 有 Redis 用集群范围的分布式锁，没有就退化成进程内锁
	var locks lock.Manager
	if rdb != nil {
		locks = lock.NewRedisManager(rdb.Client())
	} else {
		locks = lock.NewMemoryManager()
	}

	gateways := gateway.NewStore(dbConn, rdb)
	res := resolver.New(gateways.Statuses, gateways.Accounts, nil)
	publisher := mq.NewPublisher(rabbit)

	var iconMirror inbox.IconMirror
	if icons != nil {
		iconMirror = icons
	}

	processor := inbox.NewProcessor(
		gateways,
		res,
		locks,
		publisher,
		publisher,
		publisher,
		iconMirror,
		cfg.LockTTL,
	)

	consumer := mq.NewConsumer(rabbit, processor, cfg.InboxWorkers)

	jaegerURL := os.Getenv("JAEGER_ENDPOINT")
	if jaegerURL == "" {
		jaegerURL = "http://localhost:14268/api/traces"
	}

	// 初始化 Tracer
	tp, err := middleware.InitTracer("fedinbox", jaegerURL)
	if err != nil {
		zap.L().Fatal("failed to init tracer", zap.Error(err))
	}

	return &ServiceContext{
		Config:         cfg,
		DB:             dbConn,
		Cache:          rdb,
		Rabbit:         rabbit,
		Icons:          icons,
		Gateways:       gateways,
		Locks:          locks,
		Processor:      processor,
		Publisher:      publisher,
		Consumer:       consumer,
		tracerProvider: tp,
	}
}

func (s *ServiceContext) Close() {
	// 关闭 Tracer，把剩下的数据发出去
	if s.tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.tracerProvider.Shutdown(ctx); err != nil {
			zap.L().Error("Tracer shutdown error", zap.Error(err))
		}
	}

	if s.Rabbit != nil {
		s.Rabbit.Close()
		zap.L().Info("RabbitMQ closed")
	}
}
