package web

import (
	"time"

	"github.com/utrading/utrading-balance-dashboard/internal/cache"
	"github.com/utrading/utrading-balance-dashboard/internal/chart"
	"github.com/utrading/utrading-balance-dashboard/internal/exchange"
)

// ChartResponse 图表 API 响应
type ChartResponse struct {
	Period string        `json:"period"`
	Points []chart.Point `json:"points"`
}

// PositionsResponse 持仓 API 响应
type PositionsResponse struct {
	Positions []exchange.PositionView `json:"positions"`
	Count     int                     `json:"count"`
}

// Summary 汇总 API 响应
type Summary struct {
	SpotTotal      float64 `json:"spot_total"`
	FuturesTotal   float64 `json:"futures_total"`
	TotalPnl       float64 `json:"total_pnl"`
	PnlPercent     float64 `json:"pnl_percent"`
	TotalSize      float64 `json:"total_size"`
	SizePercent    float64 `json:"size_percent"`
	SizeAlert      bool    `json:"size_alert"`
	PositionsCount int     `json:"positions_count"`
	LastUpdate     string  `json:"last_update"`
}

// buildSummary 从轮询结果计算汇总数据
// 仓位占用 = 总名义价值 / (20 × 合约余额)；超过 10 倍余额标记告警
func buildSummary(result *cache.PollResult) Summary {
	totalPnl := 0.0
	totalSize := 0.0
	for _, p := range result.Positions {
		totalPnl += p.UnrealizedPnl
		totalSize += p.Notional
	}

	pnlPercent := 0.0
	sizePercent := 0.0
	if result.FuturesTotal > 0 {
		pnlPercent = totalPnl / result.FuturesTotal * 100
		sizePercent = totalSize / (20 * result.FuturesTotal) * 100
	}

	return Summary{
		SpotTotal:      result.SpotTotal,
		FuturesTotal:   result.FuturesTotal,
		TotalPnl:       totalPnl,
		PnlPercent:     pnlPercent,
		TotalSize:      totalSize,
		SizePercent:    sizePercent,
		SizeAlert:      totalSize > 10*result.FuturesTotal,
		PositionsCount: len(result.Positions),
		LastUpdate:     result.Timestamp.Format(time.DateTime),
	}
}
