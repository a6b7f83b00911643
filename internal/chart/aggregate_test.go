package chart

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utrading/utrading-balance-dashboard/internal/models"
)

func snap(ts time.Time, futures float64) models.BalanceSnapshot {
	return models.BalanceSnapshot{
		Timestamp:      ts,
		SpotBalance:    0,
		FuturesBalance: futures,
		TotalBalance:   futures,
	}
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.Local)
}

func TestAggregate_SingleDay(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 9), 100),
		snap(day(2026, 8, 15, 12), 150),
		snap(day(2026, 8, 15, 18), 120),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.Equal(t, 100.0, points[0].Min)
	assert.Equal(t, 150.0, points[0].Max)
	assert.Equal(t, 100.0, points[0].Open)
	assert.Equal(t, 120.0, points[0].Close)
	assert.Equal(t, day(2026, 8, 15, 0), points[0].Date)
}

func TestAggregate_MultipleDays(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 14, 10), 90),
		snap(day(2026, 8, 15, 10), 110),
		snap(day(2026, 8, 13, 10), 80),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// 日期升序
	assert.Equal(t, day(2026, 8, 13, 0), points[0].Date)
	assert.Equal(t, day(2026, 8, 14, 0), points[1].Date)
	assert.Equal(t, day(2026, 8, 15, 0), points[2].Date)
	assert.Equal(t, 80.0, points[0].Close)
	assert.Equal(t, 110.0, points[2].Close)
}

func TestAggregate_ZeroBalancesFiltered(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 9), 0), // 零值不参与聚合
		snap(day(2026, 8, 15, 12), 100),
		snap(day(2026, 8, 15, 18), 120),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// 零值被过滤后 open 取第一个正值
	assert.Equal(t, 100.0, points[0].Min)
	assert.Equal(t, 100.0, points[0].Open)
	assert.Equal(t, 120.0, points[0].Close)
}

func TestAggregate_AllZeroDayKept(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 9), 0),
		snap(day(2026, 8, 15, 18), 0),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// 全零的一天保留原始组，不能变成空洞
	assert.Equal(t, 0.0, points[0].Min)
	assert.Equal(t, 0.0, points[0].Max)
	assert.Equal(t, 0.0, points[0].Close)
}

func TestAggregate_Empty(t *testing.T) {
	now := day(2026, 8, 15, 12)

	points, err := Aggregate(nil, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// 空输入返回单个全零点
	assert.Equal(t, now, points[0].Date)
	assert.Equal(t, 0.0, points[0].Min)
	assert.Equal(t, 0.0, points[0].Max)
	assert.Equal(t, 0.0, points[0].Open)
	assert.Equal(t, 0.0, points[0].Close)
}

func TestAggregate_PeriodFilter(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(now.AddDate(0, 0, -40), 50), // 超出 30 天窗口
		snap(now.AddDate(0, 0, -5), 100),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 100.0, points[0].Close)

	// periodDays <= 0 表示全部历史
	points, err = Aggregate(snaps, 0, time.Time{}, now)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestAggregate_FloorDate(t *testing.T) {
	now := day(2026, 8, 15, 12)
	floor := day(2026, 8, 10, 0)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 9, 10), 50), // 下限日期之前
		snap(day(2026, 8, 12, 10), 100),
	}

	points, err := Aggregate(snaps, 0, floor, now)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, day(2026, 8, 12, 0), points[0].Date)

	// 下限过滤对 all 周期同样生效，全被过滤时返回合成零点
	points, err = Aggregate(snaps[:1], 0, floor, now)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, now, points[0].Date)
	assert.Equal(t, 0.0, points[0].Close)
}

func TestAggregate_UnsortedInput(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 18), 120),
		snap(day(2026, 8, 15, 9), 100),
		snap(day(2026, 8, 15, 12), 150),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// 排序后 open/close 按时间顺序取值
	assert.Equal(t, 100.0, points[0].Open)
	assert.Equal(t, 120.0, points[0].Close)
}

func TestAggregate_SingleSnapshot(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 9), 100),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// 单条快照四个值收敛到同一个数
	assert.Equal(t, 100.0, points[0].Min)
	assert.Equal(t, 100.0, points[0].Max)
	assert.Equal(t, 100.0, points[0].Open)
	assert.Equal(t, 100.0, points[0].Close)
}

func TestAggregate_NegativePassthrough(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 9), -50),
		snap(day(2026, 8, 15, 12), -30),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// 负值全组被零值过滤兜底保留，原样透传
	assert.Equal(t, -50.0, points[0].Min)
	assert.Equal(t, -30.0, points[0].Max)
	assert.Equal(t, -30.0, points[0].Close)
}

func TestAggregate_NaNPassthrough(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 9), 100),
		snap(day(2026, 8, 15, 12), math.NaN()),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// NaN 不触发错误，close 为最后一条
	assert.True(t, math.IsNaN(points[0].Close))
}

func TestAggregate_NaNSurvivesZeroFilter(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		snap(day(2026, 8, 15, 9), 0), // 零值被过滤
		snap(day(2026, 8, 15, 12), math.NaN()),
		snap(day(2026, 8, 15, 18), 100),
	}

	points, err := Aggregate(snaps, 30, time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// 零值过滤只丢弃 <= 0 的快照，NaN 不满足该条件必须保留
	assert.True(t, math.IsNaN(points[0].Open))
	assert.Equal(t, 100.0, points[0].Close)
}

func TestAggregate_ZeroTimestamp(t *testing.T) {
	now := day(2026, 8, 15, 12)
	snaps := []models.BalanceSnapshot{
		{ID: 7, FuturesBalance: 100},
	}

	_, err := Aggregate(snaps, 30, time.Time{}, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero timestamp")
}
