package cleaner

import (
	"time"

	"github.com/utrading/utrading-balance-dashboard/config"
	"github.com/utrading/utrading-balance-dashboard/internal/dao"
	"github.com/utrading/utrading-balance-dashboard/pkg/goplus"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

// Cleaner 数据清理器，按保留策略定时清理余额快照
type Cleaner struct {
	interval time.Duration // 清理间隔
	done     chan struct{} // 停止信号
}

// NewCleaner 创建清理器
func NewCleaner() *Cleaner {
	return &Cleaner{
		interval: 1 * time.Hour, // 固定 1 小时
		done:     make(chan struct{}),
	}
}

// Start 启动清理任务
func (c *Cleaner) Start() {
	goplus.Go(func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		logger.Info().Msg("cleaner started")

		// 启动时立即执行一次
		c.clean()

		for {
			select {
			case <-ticker.C:
				c.clean()
			case <-c.done:
				logger.Info().Msg("cleaner stopped")
				return
			}
		}
	})
}

// Stop 停止清理器
func (c *Cleaner) Stop() {
	close(c.done)
}

// clean 执行清理任务
// 策略：时间优先（retention.days），数量兜底（retention.max_rows）；两者为 0 时不清理
func (c *Cleaner) clean() {
	retention := config.Get().Retention

	if retention.Days <= 0 && retention.MaxRows <= 0 {
		return
	}

	logger.Debug().Msg("running cleanup task")

	if retention.Days > 0 {
		if err := c.cleanByAge(retention.Days); err != nil {
			logger.Error().Err(err).Msg("clean snapshots by age failed")
		}
	}

	if retention.MaxRows > 0 {
		if err := c.cleanByCount(retention.MaxRows); err != nil {
			logger.Error().Err(err).Msg("clean snapshots by count failed")
		}
	}
}

// cleanByAge 删除保留期之前的快照
func (c *Cleaner) cleanByAge(days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := dao.Balance().DeleteOld(cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("cleaned old balance snapshots by age")
	}

	return nil
}

// cleanByCount 超过行数上限时删除最旧的快照
func (c *Cleaner) cleanByCount(maxRows int64) error {
	count, err := dao.Balance().Count()
	if err != nil {
		return err
	}

	if count <= maxRows {
		return nil
	}

	deleted, err := dao.Balance().DeleteOldest(count - maxRows)
	if err != nil {
		return err
	}

	if deleted > 0 {
		logger.Info().
			Int64("deleted", deleted).
			Int64("total", count).
			Int64("limit", maxRows).
			Msg("cleaned excess balance snapshots by count")
	}

	return nil
}
