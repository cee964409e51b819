package svc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tickalert/internal/application/port"
	"tickalert/internal/application/service"
	"tickalert/internal/application/usecase/monitor"
	"tickalert/internal/domain/model"
	domainservice "tickalert/internal/domain/service"
	"tickalert/internal/infrastructure/config"
	"tickalert/internal/infrastructure/exchange/polygon"
	"tickalert/internal/infrastructure/messaging/kafka"
	"tickalert/internal/infrastructure/metrics"
	"tickalert/internal/infrastructure/storage/composite"
	"tickalert/internal/infrastructure/storage/memory"
	pgrepo "tickalert/internal/infrastructure/storage/postgres"
	redisrepo "tickalert/internal/infrastructure/storage/redis"
	sqliterepo "tickalert/internal/infrastructure/storage/sqlite"
	"tickalert/internal/infrastructure/websocket"
	"tickalert/internal/interfaces/console"
	"tickalert/internal/interfaces/httpapi"
	"tickalert/internal/interfaces/telegram"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	redisClient   *redisclient.Client
	redisRepo     *redisrepo.Repo
	sqliteRepo    *sqliterepo.Repo
	pgRepo        *pgrepo.Repo
	kafkaProducer *kafka.Producer

	// 端口实现
	Store      port.SubscriberStore
	Deliverer  port.Deliverer
	Publishers []port.AlertPublisher
	Source     port.SymbolSource
	News       port.NewsFetcher

	// 应用业务组件（依赖基础设施）
	Symbols    []model.Symbol
	Monitor    *monitor.Service
	Stream     *polygon.StreamClient
	Supervisor *websocket.Supervisor
	bot        *telegram.Bot
	httpServer *http.Server

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成；股票池加载失败即返回错误
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}

	// 初始化所有组件，按依赖顺序
	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 初始化所有应用组件
// 按照依赖关系有序初始化：存储 -> 消息 -> 推送 -> 股票池 -> 检测 -> 流
func (sc *ServiceContext) initializeComponents() error {
	// 0. 初始化存储层 (最基础，最后被其他依赖使用)
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
	}
	sc.initializeMessaging()
	if err := sc.initializeDelivery(); err != nil {
		return err
	}

	cfg := sc.Config
	sc.Source = polygon.NewReferenceClient(cfg.Polygon.RestURL, cfg.Polygon.APIKey, cfg.Polygon.PageLimit, cfg.RequestTimeout())
	sc.News = polygon.NewNewsClient(cfg.Polygon.RestURL, cfg.Polygon.APIKey, cfg.Polygon.NewsLimit, cfg.NewsTimeout())

	if err := sc.loadUniverse(); err != nil {
		return err
	}

	dispatcher := service.NewAlertDispatcher(service.DispatcherDeps{
		Store:      sc.Store,
		Deliverer:  sc.Deliverer,
		Publishers: sc.Publishers,
		Formatter:  service.NewAlertFormatter(cfg.Dispatch.NewsInAlert),
	})
	sc.Monitor = monitor.NewService(monitor.ServiceDeps{
		Rule: domainservice.SpikeRule{
			ConditionFlag: cfg.Detector.ConditionFlag,
			MinVolume:     cfg.Detector.MinVolume,
		},
		Cooldown:   domainservice.NewCooldown(cfg.Cooldown()),
		News:       sc.News,
		Dispatcher: dispatcher,
		Pool:       monitor.NewPool(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize),
	})

	sc.Stream = polygon.NewStreamClient(polygon.StreamConfig{
		URL:          cfg.Polygon.WsURL,
		APIKey:       cfg.Polygon.APIKey,
		ChunkSize:    cfg.Polygon.SubscribeChunk,
		PingInterval: time.Duration(cfg.Polygon.PingIntervalSec) * time.Second,
		ReadTimeout:  time.Duration(cfg.Polygon.ReadTimeoutSec) * time.Second,
	}, sc.Symbols, sc.Monitor)

	sc.Supervisor = websocket.NewSupervisor(sc.Stream, websocket.SupervisorConfig{
		Policy:    websocket.Policy(cfg.Lifecycle.Mode),
		ExitDelay: time.Duration(cfg.Lifecycle.ExitDelayMs) * time.Millisecond,
		Retry: websocket.RetryConfig{
			MaxRetries: cfg.Lifecycle.MaxRetries,
			InitialDel: time.Duration(cfg.Lifecycle.InitialDelayMs) * time.Millisecond,
			MaxDelay:   time.Duration(cfg.Lifecycle.MaxDelayMs) * time.Millisecond,
		},
	})

	if cfg.HTTP.Enabled {
		sc.httpServer = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.SetupRoutes(httpapi.NewHandler(sc.Stream, len(sc.Symbols))),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	log.Info().
		Int("symbols", len(sc.Symbols)).
		Int("topics", len(sc.Stream.Topics())).
		Str("deliverer", sc.Deliverer.Name()).
		Int("publishers", len(sc.Publishers)).
		Str("lifecycle", cfg.Lifecycle.Mode).
		Msg("✓ All components initialized")
	return nil
}

// initializeStorage 初始化订阅者存储 (SQLite / Postgres / Redis)，都未启用时使用内存存储
// 只有 Redis 额外作为告警旁路发布者（有长度上限的 stream + pub/sub），不保存检测历史
func (sc *ServiceContext) initializeStorage() error {
	var stores []port.SubscriberStore

	// Postgres 初始化（DATABASE_URL）
	if sc.Config.Postgres.Enabled {
		if err := sc.initPostgres(); err != nil {
			return fmt.Errorf("postgres initialization failed: %w", err)
		}
		stores = append(stores, sc.pgRepo)
	}

	// SQLite 初始化
	if sc.Config.SQLite.Enabled {
		if err := sc.initSQLite(); err != nil {
			return fmt.Errorf("sqlite initialization failed: %w", err)
		}
		stores = append(stores, sc.sqliteRepo)
	}

	// Redis 初始化
	if sc.Config.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		stores = append(stores, sc.redisRepo)
		sc.Publishers = append(sc.Publishers, sc.redisRepo)
	}

	switch len(stores) {
	case 0:
		log.Warn().Msg("no subscriber database configured, registrations are kept in memory")
		sc.Store = memory.New()
	case 1:
		sc.Store = stores[0]
	default:
		// 各存储的关闭由 closerChain 负责，这里不注册 composite 的 Close
		sc.Store = composite.New(stores...)
	}
	return nil
}

// initPostgres 初始化 Postgres 订阅者表
func (sc *ServiceContext) initPostgres() error {
	repo, err := pgrepo.New(sc.Config.Postgres.DSN)
	if err != nil {
		return err
	}
	sc.pgRepo = repo

	// 注册关闭回调
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})
	log.Info().Msg("✓ Postgres initialized")
	return nil
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis() error {
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     sc.Config.Redis.Addr,
		Password: sc.Config.Redis.Password,
		DB:       sc.Config.Redis.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	sc.redisClient = rdb
	sc.redisRepo = redisrepo.New(
		rdb,
		sc.Config.Redis.Prefix,
		sc.Config.Redis.AlertStream,
		sc.Config.Redis.AlertChannel,
		sc.Config.Redis.StreamMaxLen,
	)

	// 注册关闭回调
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", sc.Config.Redis.Addr).
		Int("db", sc.Config.Redis.DB).
		Msg("✓ Redis initialized")
	return nil
}

// initSQLite 初始化 SQLite 数据库
func (sc *ServiceContext) initSQLite() error {
	repo, err := sqliterepo.New(sc.Config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("sqlite repo creation failed: %w", err)
	}
	sc.sqliteRepo = repo

	// 注册关闭回调
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", sc.Config.SQLite.Path).
		Msg("✓ SQLite initialized")
	return nil
}

// initializeMessaging 初始化 Kafka 告警事件发布
func (sc *ServiceContext) initializeMessaging() {
	if !sc.Config.Kafka.Enabled {
		return
	}
	p := kafka.NewProducer(sc.Config.Kafka.Brokers, sc.Config.Kafka.Topic)
	sc.kafkaProducer = p
	sc.Publishers = append(sc.Publishers, p)
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing kafka producer")
		return p.Close()
	})
	log.Info().
		Strs("brokers", sc.Config.Kafka.Brokers).
		Str("topic", sc.Config.Kafka.Topic).
		Msg("✓ Kafka producer initialized")
}

// initializeDelivery 选择推送通道：Telegram，未配置时退回终端输出
func (sc *ServiceContext) initializeDelivery() error {
	if !sc.Config.Telegram.Enabled {
		log.Warn().Msg("telegram disabled, alerts are printed to the console")
		sc.Deliverer = console.NewSink(nil)
		return nil
	}

	bot, err := telegram.New(sc.Config.Telegram.Token, sc.Store, telegram.Options{
		Welcome:     sc.Config.Telegram.Welcome,
		PollTimeout: sc.Config.Telegram.PollTimeoutSec,
	})
	if err != nil {
		return err
	}
	sc.bot = bot
	sc.Deliverer = bot
	if sc.Config.Dev() {
		sc.Publishers = append(sc.Publishers, console.NewSink(nil))
	}
	return nil
}

// loadUniverse 加载一次股票池；失败或为空都视为启动失败
func (sc *ServiceContext) loadUniverse() error {
	start := time.Now()
	symbols, err := sc.Source.LoadSymbols(sc.Ctx, sc.Config.Polygon.Exchanges)
	if err != nil {
		return fmt.Errorf("load symbol universe: %w", err)
	}
	if len(symbols) == 0 {
		return ErrNoSymbols
	}
	sc.Symbols = symbols
	metrics.UniverseSize.Set(float64(len(symbols)))
	log.Info().
		Int("symbols", len(symbols)).
		Strs("exchanges", sc.Config.Polygon.Exchanges).
		Dur("took", time.Since(start)).
		Msg("✓ Symbol universe loaded")
	return nil
}

// Run 并发运行流监督器、Telegram 注册机器人和 HTTP 状态服务。
// 任一致命错误（如 ErrTransportFatal）都会取消其余任务；退出前在宽限期内排空检测任务。
func (sc *ServiceContext) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sc.Supervisor.Run(gctx)
	})

	if sc.bot != nil {
		g.Go(func() error {
			return sc.bot.Run(gctx)
		})
	}

	if sc.httpServer != nil {
		srv := sc.httpServer
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("http status server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	sc.Monitor.Shutdown(sc.Config.Grace())
	return err
}

// Close 关闭 ServiceContext 中的所有资源
// 包括存储连接、消息生产者等，应该在应用退出时调用
func (sc *ServiceContext) Close() error {
	// 按照相反的顺序关闭所有资源
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
