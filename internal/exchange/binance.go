package exchange

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/spf13/cast"

	"github.com/utrading/utrading-balance-dashboard/config"
	"github.com/utrading/utrading-balance-dashboard/internal/monitor"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

// Client Binance 现货 + 合约 REST 封装
// 错误不跨边界传播：记录日志并返回空结果，由下一个轮询周期自然重试
type Client struct {
	spot        *binance.Client
	futures     *futures.Client
	quoteAsset  string
	lastSuccess atomic.Int64 // unix 秒，最近一次成功请求
}

// NewClient 创建交易所客户端，请求超时由配置决定（默认 10s）
func NewClient(cfg config.Binance, quoteAsset string) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	spot := binance.NewClient(cfg.APIKey, cfg.APISecret)
	spot.HTTPClient = httpClient

	fut := futures.NewClient(cfg.APIKey, cfg.APISecret)
	fut.HTTPClient = httpClient

	if quoteAsset == "" {
		quoteAsset = "USDT"
	}

	return &Client{
		spot:       spot,
		futures:    fut,
		quoteAsset: quoteAsset,
	}
}

// SpotBalances 获取非零现货余额，失败时返回空切片
func (c *Client) SpotBalances(ctx context.Context) []SpotBalance {
	account, err := c.spot.NewGetAccountService().Do(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("get spot balance failed")
		monitor.GetMetrics().IncFetchErrors("spot")
		return nil
	}
	c.markSuccess()

	balances := make([]SpotBalance, 0, len(account.Balances))
	for _, b := range account.Balances {
		free := cast.ToFloat64(b.Free)
		locked := cast.ToFloat64(b.Locked)
		if free <= 0 && locked <= 0 {
			continue
		}
		balances = append(balances, SpotBalance{
			Asset:  b.Asset,
			Free:   free,
			Locked: locked,
			Total:  free + locked,
		})
	}

	return balances
}

// FuturesBalance 获取合约钱包余额，只保留计价资产条目，失败时返回空切片
func (c *Client) FuturesBalance(ctx context.Context) []FuturesBalance {
	accountBalances, err := c.futures.NewGetBalanceService().Do(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("get futures balance failed")
		monitor.GetMetrics().IncFetchErrors("futures_balance")
		return nil
	}
	c.markSuccess()

	for _, b := range accountBalances {
		if b.Asset != c.quoteAsset {
			continue
		}
		return []FuturesBalance{{
			Asset:     b.Asset,
			Balance:   cast.ToFloat64(b.Balance),
			Available: cast.ToFloat64(b.AvailableBalance),
		}}
	}

	return nil
}

// FuturesPositions 获取当前持仓视图，数量为 0 的仓位剔除，失败时返回空切片
func (c *Client) FuturesPositions(ctx context.Context) []PositionView {
	risks, err := c.futures.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("get futures positions failed")
		monitor.GetMetrics().IncFetchErrors("positions")
		return nil
	}
	c.markSuccess()

	positions := make([]PositionView, 0, len(risks))
	for _, p := range risks {
		amount := cast.ToFloat64(p.PositionAmt)
		if amount == 0 {
			continue
		}

		positions = append(positions, NewPositionView(
			p.Symbol,
			p.PositionSide,
			amount,
			cast.ToFloat64(p.EntryPrice),
			cast.ToFloat64(p.MarkPrice),
			cast.ToFloat64(p.UnRealizedProfit),
			cast.ToInt(p.Leverage),
		))
	}

	return positions
}

// LastSuccess 最近一次成功请求的时间，从未成功返回零值
func (c *Client) LastSuccess() time.Time {
	sec := c.lastSuccess.Load()
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func (c *Client) markSuccess() {
	c.lastSuccess.Store(time.Now().Unix())
}
