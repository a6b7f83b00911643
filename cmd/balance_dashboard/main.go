package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/utrading/utrading-balance-dashboard/config"
	"github.com/utrading/utrading-balance-dashboard/internal/cache"
	"github.com/utrading/utrading-balance-dashboard/internal/cleaner"
	"github.com/utrading/utrading-balance-dashboard/internal/collector"
	"github.com/utrading/utrading-balance-dashboard/internal/dal"
	"github.com/utrading/utrading-balance-dashboard/internal/dao"
	"github.com/utrading/utrading-balance-dashboard/internal/exchange"
	"github.com/utrading/utrading-balance-dashboard/internal/monitor"
	"github.com/utrading/utrading-balance-dashboard/internal/nats"
	"github.com/utrading/utrading-balance-dashboard/internal/web"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
	"github.com/utrading/utrading-balance-dashboard/pkg/sigproc"
)

// dbPinger 数据库连通性适配器（健康检查用）
type dbPinger struct{}

func (dbPinger) Ping() error {
	return dal.Ping()
}

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "cfg.toml", "config file path")
	flag.Parse()

	// 加载配置
	if err := config.Init(configFile); err != nil {
		panic(err)
	}
	cfg := config.Get()

	// 初始化日志
	if err := initLogger(cfg); err != nil {
		panic("init logger failed: " + err.Error())
	}
	defer logger.Close()

	logger.Info().Msg("balance_dashboard service starting...")

	// 初始化指标
	monitor.InitMetrics()

	// 初始化数据库
	dal.InitDB(cfg.Database)

	// 自动迁移表结构
	dal.AutoMigrate()

	// 初始化 DAO
	dao.InitDAO(dal.DB())

	// 创建数据清理器
	dataCleaner := cleaner.NewCleaner()
	dataCleaner.Start()

	// 初始化 NATS（endpoint 为空则禁用事件发布）
	var publisher *nats.Publisher
	if cfg.NATS.Endpoint != "" {
		var err error
		publisher, err = nats.NewPublisher(cfg.NATS.Endpoint)
		if err != nil {
			logger.Fatal().Err(err).Msg("init nats publisher failed")
		}
		defer publisher.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 创建交易所客户端
	client := exchange.NewClient(cfg.Binance, cfg.Dashboard.QuoteAsset)

	// 创建结果缓存（保留 2 个轮询周期）
	resultCache := cache.NewResultCache(2 * cfg.Dashboard.PollInterval)

	// 创建采集器
	var eventPublisher collector.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	balanceCollector := collector.NewCollector(
		client,
		dao.Balance(),
		eventPublisher,
		resultCache,
		cfg.Dashboard.PollInterval,
		cfg.Dashboard.QuoteAsset,
		cfg.Dashboard.FetchPoolSize,
	)
	balanceCollector.Start()

	// 创建仪表盘服务
	dashboardServer := web.NewServer(
		cfg.Dashboard.ListenAddr,
		dao.Balance(),
		balanceCollector,
		cfg.Dashboard.ChartFloor(),
	)
	if err := dashboardServer.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start dashboard server failed")
	}

	// 初始化健康检查服务器
	var publisherRef monitor.PublisherRef
	if publisher != nil {
		publisherRef = publisher
	}
	healthServer := monitor.NewHealthServer(
		cfg.Dashboard.HealthServerAddr,
		dbPinger{},
		client,
		publisherRef,
	)
	if err := healthServer.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start health server failed")
	}

	logger.Info().
		Str("listen_addr", cfg.Dashboard.ListenAddr).
		Str("health_addr", cfg.Dashboard.HealthServerAddr).
		Dur("poll_interval", cfg.Dashboard.PollInterval).
		Msg("balance_dashboard service started successfully")

	// 优雅关闭
	sigproc.GracefulShutdown(func(sig os.Signal) {
		logger.Info().Str("signal", sig.String()).Msg("shutting down...")

		// 停止数据清理器
		dataCleaner.Stop()

		// 停止采集器
		balanceCollector.Stop()

		cancel()

		// 关闭对外服务
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		dashboardServer.Stop(shutdownCtx)
		healthServer.Stop(shutdownCtx)

		// 关闭配置重载
		config.Stop()

		// 关闭数据库
		dal.CloseDB()

		logger.Info().Msg("balance_dashboard service stopped")
	})

	<-ctx.Done()
}

func initLogger(cfg *config.Config) error {
	return logger.NewBuilder().
		SetFilePath(cfg.Logger.FilePath).
		SetMaxSize(cfg.Logger.MaxSize).
		SetMaxBackups(cfg.Logger.MaxBackups).
		SetMaxAge(cfg.Logger.MaxAge).
		SetLevel(cfg.Logger.Level).
		EnableCompression(cfg.Logger.Compress).
		EnableConsoleOutput(cfg.Logger.Console).
		Build()
}
