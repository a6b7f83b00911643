package dao

import (
	"math"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/utrading/utrading-balance-dashboard/internal/models"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

// AllHistoryDays 查询全部历史的哨兵值
const AllHistoryDays = 9999

// BalanceDAO 余额快照存储，追加写入
// 进程内写操作由互斥锁串行化，跨进程竞争由 sqlite busy_timeout 限定等待时间
type BalanceDAO struct {
	db      *gorm.DB
	writeMu sync.Mutex
}

var (
	_balance     *BalanceDAO
	_balanceOnce sync.Once
)

// InitBalanceDAO 初始化 BalanceDAO
func InitBalanceDAO(db *gorm.DB) {
	_balanceOnce.Do(func() {
		_balance = &BalanceDAO{db: db}
	})
}

// Balance 获取 BalanceDAO 单例
func Balance() *BalanceDAO {
	return _balance
}

// NewBalanceDAO 创建独立实例（测试用）
func NewBalanceDAO(db *gorm.DB) *BalanceDAO {
	return &BalanceDAO{db: db}
}

// Save 追加一条余额快照，timestamp 取当前时钟
// 非有限值（NaN/Inf）跳过写入只告警；负值照常写入，上游数值异常不应中断轮询
func (d *BalanceDAO) Save(spotTotal, futuresTotal float64) error {
	if !isFinite(spotTotal) || !isFinite(futuresTotal) {
		logger.Warn().
			Float64("spot", spotTotal).
			Float64("futures", futuresTotal).
			Msg("non-finite balance, skipping save")
		return nil
	}

	if spotTotal < 0 || futuresTotal < 0 {
		logger.Warn().
			Float64("spot", spotTotal).
			Float64("futures", futuresTotal).
			Msg("negative balance received")
	}

	return d.insert(time.Now(), spotTotal, futuresTotal)
}

// SaveAt 以指定时间写入快照（仅供历史数据回填工具使用）
func (d *BalanceDAO) SaveAt(ts time.Time, spotTotal, futuresTotal float64) error {
	return d.insert(ts, spotTotal, futuresTotal)
}

func (d *BalanceDAO) insert(ts time.Time, spotTotal, futuresTotal float64) error {
	snap := &models.BalanceSnapshot{
		Timestamp:      ts,
		SpotBalance:    spotTotal,
		FuturesBalance: futuresTotal,
		TotalBalance:   spotTotal + futuresTotal,
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if err := d.db.Create(snap).Error; err != nil {
		logger.Error().Err(err).
			Time("timestamp", ts).
			Float64("spot", spotTotal).
			Float64("futures", futuresTotal).
			Msg("save balance snapshot failed")
		return err
	}

	logger.Info().
		Float64("spot", spotTotal).
		Float64("futures", futuresTotal).
		Msg("balance snapshot saved")

	return nil
}

// QuerySince 返回最近 lookbackDays 天内的快照，按 timestamp 升序（同一时刻按写入顺序）
// 无匹配行返回空切片而非错误
func (d *BalanceDAO) QuerySince(lookbackDays float64) ([]models.BalanceSnapshot, error) {
	cutoff := time.Now().Add(-time.Duration(lookbackDays * 24 * float64(time.Hour)))

	snaps := make([]models.BalanceSnapshot, 0)
	err := d.db.
		Where("timestamp >= ?", cutoff).
		Order("timestamp ASC, id ASC").
		Find(&snaps).Error
	if err != nil {
		logger.Error().Err(err).
			Float64("lookback_days", lookbackDays).
			Time("cutoff", cutoff).
			Msg("query balance history failed")
		return nil, err
	}

	return snaps, nil
}

// HasDate 检查指定日历日是否已有快照（回填工具用）
func (d *BalanceDAO) HasDate(day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	err := d.db.Model(&models.BalanceSnapshot{}).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count 快照总行数
func (d *BalanceDAO) Count() (int64, error) {
	var count int64
	err := d.db.Model(&models.BalanceSnapshot{}).Count(&count).Error
	return count, err
}

// DeleteOld 删除早于指定时间的快照（保留策略用）
func (d *BalanceDAO) DeleteOld(before time.Time) (int64, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	result := d.db.Where("timestamp < ?", before).Delete(&models.BalanceSnapshot{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteOldest 删除最旧的 n 条快照（行数兜底用）
func (d *BalanceDAO) DeleteOldest(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	result := d.db.Where(
		"id IN (?)",
		d.db.Model(&models.BalanceSnapshot{}).
			Select("id").
			Order("timestamp ASC, id ASC").
			Limit(int(n)),
	).Delete(&models.BalanceSnapshot{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
