package models

import "time"

// BalanceSnapshot 余额快照表，追加写入，一次保存一行
// 行写入后不可变，修正通过新增行完成；历史查询按 timestamp 排序，不依赖 id 顺序
type BalanceSnapshot struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp      time.Time `gorm:"not null;index:idx_timestamp;comment:快照时间（写入时的本地时钟）" json:"timestamp"`
	SpotBalance    float64   `gorm:"not null;comment:现货总余额（USDT计价）" json:"spot_balance"`
	FuturesBalance float64   `gorm:"not null;comment:合约钱包余额（USDT计价）" json:"futures_balance"`
	TotalBalance   float64   `gorm:"not null;comment:写入时的 spot+futures，冗余存储" json:"total_balance"`
}

func (BalanceSnapshot) TableName() string {
	return "balance_history"
}
