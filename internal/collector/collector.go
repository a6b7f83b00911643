package collector

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/utrading/utrading-balance-dashboard/internal/cache"
	"github.com/utrading/utrading-balance-dashboard/internal/exchange"
	"github.com/utrading/utrading-balance-dashboard/internal/monitor"
	natsx "github.com/utrading/utrading-balance-dashboard/internal/nats"
	"github.com/utrading/utrading-balance-dashboard/pkg/goplus"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

// BalanceSource 交易所数据源接口
type BalanceSource interface {
	SpotBalances(ctx context.Context) []exchange.SpotBalance
	FuturesBalance(ctx context.Context) []exchange.FuturesBalance
	FuturesPositions(ctx context.Context) []exchange.PositionView
}

// SnapshotSaver 快照存储接口
type SnapshotSaver interface {
	Save(spotTotal, futuresTotal float64) error
}

// EventPublisher 快照事件发布接口
type EventPublisher interface {
	PublishBalanceSnapshot(event *natsx.BalanceSnapshotEvent) error
}

// Collector 轮询采集器：按固定间隔拉取余额与持仓，落库并缓存结果
// 单次失败只产生零值结果，下一个周期自然重试，不做退避重试
type Collector struct {
	source     BalanceSource
	saver      SnapshotSaver
	publisher  EventPublisher // 可为 nil（未配置 NATS）
	cache      *cache.ResultCache
	pool       *ants.Pool
	interval   time.Duration
	quoteAsset string

	collectMu sync.Mutex
	done      chan struct{}
	stopOnce  sync.Once
}

// NewCollector 创建采集器
func NewCollector(source BalanceSource, saver SnapshotSaver, publisher EventPublisher,
	resultCache *cache.ResultCache, interval time.Duration, quoteAsset string, poolSize int) *Collector {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, _ := ants.NewPool(poolSize)

	return &Collector{
		source:     source,
		saver:      saver,
		publisher:  publisher,
		cache:      resultCache,
		pool:       pool,
		interval:   interval,
		quoteAsset: quoteAsset,
		done:       make(chan struct{}),
	}
}

// Start 启动轮询，启动时立即执行一次
func (c *Collector) Start() {
	goplus.Go(func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		logger.Info().Dur("interval", c.interval).Msg("collector started")

		c.Collect(context.Background())

		for {
			select {
			case <-ticker.C:
				c.Collect(context.Background())
			case <-c.done:
				logger.Info().Msg("collector stopped")
				return
			}
		}
	})
}

// Stop 停止采集器
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.pool != nil {
			c.pool.Release()
		}
	})
}

// Latest 返回最近一次轮询结果，缓存过期时同步执行一次采集
func (c *Collector) Latest(ctx context.Context) *cache.PollResult {
	if result, ok := c.cache.Get(); ok {
		return result
	}
	return c.Collect(ctx)
}

// Collect 执行一个采集周期：并发拉取三类数据，落库、发布事件、更新缓存与指标
func (c *Collector) Collect(ctx context.Context) *cache.PollResult {
	// 串行化采集周期，页面请求与定时器撞车时只跑一次
	c.collectMu.Lock()
	defer c.collectMu.Unlock()

	if result, ok := c.cache.Get(); ok && time.Since(result.Timestamp) < c.interval {
		return result
	}

	start := time.Now()

	var (
		spotBalances    []exchange.SpotBalance
		futuresBalances []exchange.FuturesBalance
		positions       []exchange.PositionView
	)

	var wg sync.WaitGroup
	c.submit(&wg, func() { spotBalances = c.source.SpotBalances(ctx) })
	c.submit(&wg, func() { futuresBalances = c.source.FuturesBalance(ctx) })
	c.submit(&wg, func() { positions = c.source.FuturesPositions(ctx) })
	wg.Wait()

	spotTotal := 0.0
	for _, b := range spotBalances {
		// 只统计计价资产，其它资产需要行情折算，不在余额快照范围内
		if b.Asset == c.quoteAsset {
			spotTotal += b.Total
		}
	}

	futuresTotal := 0.0
	for _, b := range futuresBalances {
		// 与现货同一口径：不信任数据源已过滤，只累加计价资产
		if b.Asset != c.quoteAsset {
			continue
		}
		futuresTotal += b.Balance
	}

	metrics := monitor.GetMetrics()

	if err := c.saver.Save(spotTotal, futuresTotal); err != nil {
		metrics.IncSnapshotSaveErrors()
	} else {
		metrics.IncSnapshotsSaved()
	}

	if c.publisher != nil {
		event := &natsx.BalanceSnapshotEvent{
			SpotBalance:    spotTotal,
			FuturesBalance: futuresTotal,
			TotalBalance:   spotTotal + futuresTotal,
			Timestamp:      time.Now().Unix(),
		}
		if err := c.publisher.PublishBalanceSnapshot(event); err != nil {
			logger.Error().Err(err).Msg("publish balance snapshot event failed")
		}
	}

	result := &cache.PollResult{
		SpotTotal:    spotTotal,
		FuturesTotal: futuresTotal,
		Positions:    positions,
		Timestamp:    time.Now(),
	}
	c.cache.Set(result)

	metrics.IncPollCycles()
	metrics.ObservePollDuration(time.Since(start).Seconds())
	metrics.SetSpotBalance(spotTotal)
	metrics.SetFuturesBalance(futuresTotal)
	metrics.SetOpenPositions(len(positions))

	logger.Info().
		Float64("spot", spotTotal).
		Float64("futures", futuresTotal).
		Int("positions", len(positions)).
		Dur("elapsed", time.Since(start)).
		Msg("poll cycle completed")

	return result
}

// submit 提交任务到协程池，池满时降级为同步执行
func (c *Collector) submit(wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	task := func() {
		defer goplus.Recover()
		defer wg.Done()
		fn()
	}

	if err := c.pool.Submit(task); err != nil {
		logger.Warn().Err(err).Msg("fetch pool full, executing synchronously")
		task()
	}
}
