package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "")
	require.NoError(t, Load(path))

	cfg := Get()
	assert.Equal(t, "0.0.0.0:8066", cfg.Dashboard.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.PollInterval)
	assert.Equal(t, "USDT", cfg.Dashboard.QuoteAsset)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	// NATS 缺省禁用
	assert.Equal(t, "", cfg.NATS.Endpoint)
	assert.Equal(t, 0, cfg.Retention.Days)
}

func TestLoad_Override(t *testing.T) {
	path := writeConfig(t, `
[dashboard]
listen_addr = "0.0.0.0:9000"
quote_asset = "USDC"
chart_floor_date = "2025-06-01"

[database]
driver = "mysql"
dsn = "user:pass@tcp(127.0.0.1:3306)/balances"

[retention]
days = 180
max_rows = 100000
`)
	require.NoError(t, Load(path))

	cfg := Get()
	assert.Equal(t, "0.0.0.0:9000", cfg.Dashboard.ListenAddr)
	assert.Equal(t, "USDC", cfg.Dashboard.QuoteAsset)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 180, cfg.Retention.Days)
	assert.Equal(t, int64(100000), cfg.Retention.MaxRows)

	floor := cfg.Dashboard.ChartFloor()
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), floor)
}

func TestLoad_Missing(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	assert.Error(t, err)
}

func TestChartFloor(t *testing.T) {
	// 未配置返回零值
	assert.True(t, Dashboard{}.ChartFloor().IsZero())

	// 非法格式忽略
	assert.True(t, Dashboard{ChartFloorDate: "01.06.2025"}.ChartFloor().IsZero())

	floor := Dashboard{ChartFloorDate: "2025-06-01"}.ChartFloor()
	assert.Equal(t, 2025, floor.Year())
	assert.Equal(t, time.June, floor.Month())
}
