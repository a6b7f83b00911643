package nats

import (
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/utrading/utrading-balance-dashboard/internal/monitor"
)

// Publisher NATS 发布器
type Publisher struct {
	*nats.Conn
	mu     sync.RWMutex
	closed bool
}

// NewPublisher 创建 NATS 发布器
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		Conn: conn,
	}

	monitor.GetMetrics().SetNATSConnected(true)

	return p, nil
}

// PublishBalanceSnapshot 发布余额快照事件
func (p *Publisher) PublishBalanceSnapshot(event *BalanceSnapshotEvent) error {
	data, err := event.Marshal()
	if err != nil {
		return err
	}

	return p.Publish(TopicBalanceSnapshot, data)
}

// IsConnected 检查发布器是否已连接
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed && p.Conn != nil && !p.Conn.IsClosed()
}

// Close 关闭连接
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true

	monitor.GetMetrics().SetNATSConnected(false)

	if p.Conn != nil {
		p.Conn.Close()
	}
	return nil
}
