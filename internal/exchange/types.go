package exchange

import "math"

// SpotBalance 现货资产余额
type SpotBalance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
	Total  float64 `json:"total"`
}

// FuturesBalance 合约钱包余额
type FuturesBalance struct {
	Asset     string  `json:"asset"`
	Balance   float64 `json:"balance"`
	Available float64 `json:"available"`
}

// PositionView 单个持仓的展示视图，每次请求重新构建，不落库
type PositionView struct {
	Symbol        string  `json:"symbol"`
	Side          string  `json:"positionSide"`
	Amount        float64 `json:"positionAmt"`
	EntryPrice    float64 `json:"entryPrice"`
	MarkPrice     float64 `json:"markPrice"`
	Notional      float64 `json:"usdtValue"`
	Leverage      int     `json:"leverage"`
	UnrealizedPnl float64 `json:"unRealizedProfit"`
	ROE           float64 `json:"roe"`
}

// NewPositionView 从原始持仓字段构建视图
// 名义价值 = |数量| * 标记价；ROE = 未实现盈亏 / (|数量| * 开仓价) * 100，
// 开仓价或数量为 0 时 ROE 定义为 0
func NewPositionView(symbol, side string, amount, entryPrice, markPrice, unrealized float64, leverage int) PositionView {
	if side == "" {
		side = "BOTH"
	}
	if leverage <= 0 {
		leverage = 1
	}

	roe := 0.0
	if entryPrice != 0 && amount != 0 {
		roe = unrealized / (math.Abs(amount) * entryPrice) * 100
	}

	return PositionView{
		Symbol:        symbol,
		Side:          side,
		Amount:        amount,
		EntryPrice:    entryPrice,
		MarkPrice:     markPrice,
		Notional:      math.Abs(amount) * markPrice,
		Leverage:      leverage,
		UnrealizedPnl: unrealized,
		ROE:           roe,
	}
}
