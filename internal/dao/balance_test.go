package dao

import (
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/utrading/utrading-balance-dashboard/internal/models"
)

func newTestDAO(t *testing.T) *BalanceDAO {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.BalanceSnapshot{}))

	return NewBalanceDAO(db)
}

func TestBalanceDAO_SaveAndQuery(t *testing.T) {
	d := newTestDAO(t)

	require.NoError(t, d.Save(10.5, 100.25))

	snaps, err := d.QuerySince(1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	assert.Equal(t, 10.5, snaps[0].SpotBalance)
	assert.Equal(t, 100.25, snaps[0].FuturesBalance)
	// 总额恒等于两者之和
	assert.Equal(t, 110.75, snaps[0].TotalBalance)
	assert.False(t, snaps[0].Timestamp.IsZero())
}

func TestBalanceDAO_QueryOrder(t *testing.T) {
	d := newTestDAO(t)

	now := time.Now()
	require.NoError(t, d.SaveAt(now.Add(-2*time.Hour), 0, 300))
	require.NoError(t, d.SaveAt(now.Add(-1*time.Hour), 0, 100))
	require.NoError(t, d.SaveAt(now.Add(-3*time.Hour), 0, 200))

	snaps, err := d.QuerySince(1)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	// timestamp 升序
	assert.Equal(t, 200.0, snaps[0].FuturesBalance)
	assert.Equal(t, 300.0, snaps[1].FuturesBalance)
	assert.Equal(t, 100.0, snaps[2].FuturesBalance)
}

func TestBalanceDAO_QueryLookback(t *testing.T) {
	d := newTestDAO(t)

	now := time.Now()
	require.NoError(t, d.SaveAt(now.AddDate(0, 0, -40), 0, 50))
	require.NoError(t, d.SaveAt(now.Add(-time.Hour), 0, 100))

	snaps, err := d.QuerySince(30)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 100.0, snaps[0].FuturesBalance)

	// 哨兵值覆盖全部历史
	snaps, err = d.QuerySince(AllHistoryDays)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestBalanceDAO_QueryEmpty(t *testing.T) {
	d := newTestDAO(t)

	snaps, err := d.QuerySince(30)
	require.NoError(t, err)
	// 空库返回空切片而非错误
	assert.NotNil(t, snaps)
	assert.Len(t, snaps, 0)
}

func TestBalanceDAO_SaveNonFinite(t *testing.T) {
	d := newTestDAO(t)

	// NaN/Inf 跳过写入但不报错
	require.NoError(t, d.Save(math.NaN(), 100))
	require.NoError(t, d.Save(10, math.Inf(1)))

	count, err := d.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBalanceDAO_SaveNegative(t *testing.T) {
	d := newTestDAO(t)

	// 负值照常写入
	require.NoError(t, d.Save(-5, 100))

	snaps, err := d.QuerySince(1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, -5.0, snaps[0].SpotBalance)
	assert.Equal(t, 95.0, snaps[0].TotalBalance)
}

func TestBalanceDAO_ConcurrentSave(t *testing.T) {
	d := newTestDAO(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			assert.NoError(t, d.Save(0, v))
		}(float64(i))
	}
	wg.Wait()

	// N 次并发写入落库 N 行
	count, err := d.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func TestBalanceDAO_HasDate(t *testing.T) {
	d := newTestDAO(t)

	day := time.Date(2026, 8, 10, 15, 30, 0, 0, time.Local)
	require.NoError(t, d.SaveAt(day, 0, 100))

	// 同一天任意时刻都算已有
	exists, err := d.HasDate(time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.HasDate(time.Date(2026, 8, 11, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBalanceDAO_DeleteOld(t *testing.T) {
	d := newTestDAO(t)

	now := time.Now()
	require.NoError(t, d.SaveAt(now.AddDate(0, 0, -10), 0, 50))
	require.NoError(t, d.SaveAt(now.Add(-time.Hour), 0, 100))

	deleted, err := d.DeleteOld(now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := d.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBalanceDAO_DeleteOldest(t *testing.T) {
	d := newTestDAO(t)

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, d.SaveAt(now.Add(time.Duration(i)*time.Minute), 0, float64(i)))
	}

	deleted, err := d.DeleteOldest(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// 最旧的两条被删除，保留后三条
	snaps, err := d.QuerySince(1)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, 2.0, snaps[0].FuturesBalance)

	deleted, err = d.DeleteOldest(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
