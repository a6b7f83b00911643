package cache

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/utrading/utrading-balance-dashboard/internal/exchange"
)

const resultKey = "latest"

// PollResult 一次轮询周期的完整结果，供 web 层直接消费
type PollResult struct {
	SpotTotal    float64
	FuturesTotal float64
	Positions    []exchange.PositionView
	Timestamp    time.Time
}

// ResultCache 最近一次轮询结果的 TTL 缓存
// 避免每个页面请求都打到交易所，使用 go-cache 内置过期
type ResultCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewResultCache 创建结果缓存
// ttl: 结果保留时间（建议为轮询间隔的 2 倍）
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Set 写入最新轮询结果
func (c *ResultCache) Set(result *PollResult) {
	c.cache.Set(resultKey, result, cache.DefaultExpiration)
}

// Get 读取最新轮询结果，过期或从未写入返回 false
func (c *ResultCache) Get() (*PollResult, bool) {
	v, ok := c.cache.Get(resultKey)
	if !ok {
		return nil, false
	}
	return v.(*PollResult), true
}

// Stats 获取统计信息
func (c *ResultCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"item_count":  c.cache.ItemCount(),
		"ttl_minutes": c.ttl.Minutes(),
	}
}
