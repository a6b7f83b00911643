package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPositionView_Long(t *testing.T) {
	p := NewPositionView("BTCUSDT", "LONG", 0.5, 40000, 42000, 1000, 10)

	assert.Equal(t, "BTCUSDT", p.Symbol)
	assert.Equal(t, "LONG", p.Side)
	assert.Equal(t, 21000.0, p.Notional)
	assert.Equal(t, 10, p.Leverage)
	// ROE = 1000 / (0.5 * 40000) * 100 = 5%
	assert.InDelta(t, 5.0, p.ROE, 1e-9)
}

func TestNewPositionView_Short(t *testing.T) {
	p := NewPositionView("ETHUSDT", "SHORT", -2, 3000, 2900, 200, 5)

	// 名义价值与 ROE 都基于数量绝对值
	assert.Equal(t, -2.0, p.Amount)
	assert.Equal(t, 5800.0, p.Notional)
	assert.InDelta(t, 200.0/6000.0*100, p.ROE, 1e-9)
}

func TestNewPositionView_Defaults(t *testing.T) {
	p := NewPositionView("BTCUSDT", "", 1, 100, 100, 0, 0)

	// 方向缺省为 BOTH，杠杆缺省为 1
	assert.Equal(t, "BOTH", p.Side)
	assert.Equal(t, 1, p.Leverage)
}

func TestNewPositionView_ROEZeroGuard(t *testing.T) {
	// 开仓价为 0 时 ROE 定义为 0，不产生 NaN/Inf
	p := NewPositionView("BTCUSDT", "LONG", 1, 0, 100, 50, 1)
	assert.Equal(t, 0.0, p.ROE)

	// 数量为 0 同理
	p = NewPositionView("BTCUSDT", "LONG", 0, 100, 100, 50, 1)
	assert.Equal(t, 0.0, p.ROE)
	assert.Equal(t, 0.0, p.Notional)
}

func TestNewPositionView_NegativePnl(t *testing.T) {
	p := NewPositionView("BTCUSDT", "LONG", 1, 40000, 39000, -1000, 10)

	assert.Equal(t, -1000.0, p.UnrealizedPnl)
	assert.InDelta(t, -2.5, p.ROE, 1e-9)
}
