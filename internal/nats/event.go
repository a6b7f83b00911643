package nats

import (
	"encoding/json"

	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

const TopicBalanceSnapshot = "balance.snapshot"

// BalanceSnapshotEvent 每次快照落库后发布的事件
type BalanceSnapshotEvent struct {
	SpotBalance    float64 `json:"spot_balance"`
	FuturesBalance float64 `json:"futures_balance"`
	TotalBalance   float64 `json:"total_balance"`
	Timestamp      int64   `json:"timestamp"` // unix 秒
}

// Marshal 序列化事件
func (e *BalanceSnapshotEvent) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Error().Err(err).Msg("marshal balance snapshot event failed")
		return nil, err
	}
	return data, nil
}
