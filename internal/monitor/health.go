package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utrading/utrading-balance-dashboard/pkg/goplus"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

// DBRef 数据库引用接口
type DBRef interface {
	Ping() error
}

// ExchangeRef 交易所客户端引用接口
type ExchangeRef interface {
	LastSuccess() time.Time
}

// PublisherRef NATS发布器引用接口
type PublisherRef interface {
	IsConnected() bool
}

// HealthServer HTTP 健康检查和指标服务器
type HealthServer struct {
	addr      string
	db        DBRef
	exchange  ExchangeRef
	publisher PublisherRef
	server    *http.Server
	mu        sync.RWMutex
	healthy   bool
	startTime time.Time
}

// NewHealthServer 创建健康检查服务器
func NewHealthServer(addr string, db DBRef, exchange ExchangeRef, publisher PublisherRef) *HealthServer {
	return &HealthServer{
		addr:      addr,
		db:        db,
		exchange:  exchange,
		publisher: publisher,
		healthy:   true,
		startTime: time.Now(),
	}
}

// Start 启动HTTP服务器
func (h *HealthServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/health/ready", h.readyHandler)
	mux.HandleFunc("/health/live", h.liveHandler)
	mux.HandleFunc("/status", h.statusHandler)

	// Prometheus指标端点
	mux.Handle("/metrics", promhttp.Handler())

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	goplus.Go(func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("health server error")
		}
	})

	logger.Info().Str("addr", h.addr).Msg("health server started")

	return nil
}

// Stop 停止服务器
func (h *HealthServer) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.healthy = false
	h.mu.Unlock()

	return h.server.Shutdown(ctx)
}

// healthHandler 健康检查处理器
func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := h.getHealthStatus()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

// readyHandler 就绪检查处理器
func (h *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.isReady() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// liveHandler 存活检查处理器
func (h *HealthServer) liveHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// statusHandler 服务状态处理器
func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := h.getHealthStatus()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// isReady 检查服务是否就绪：进程健康且数据库可达
func (h *HealthServer) isReady() bool {
	h.mu.RLock()
	healthy := h.healthy
	h.mu.RUnlock()

	if !healthy {
		return false
	}

	if h.db != nil && h.db.Ping() != nil {
		return false
	}

	return true
}

// getHealthStatus 获取健康状态
func (h *HealthServer) getHealthStatus() HealthStatus {
	h.mu.RLock()
	healthy := h.healthy
	h.mu.RUnlock()

	dbConnected := false
	if h.db != nil {
		dbConnected = h.db.Ping() == nil
	}

	exchangeLastSuccess := ""
	if h.exchange != nil {
		if last := h.exchange.LastSuccess(); !last.IsZero() {
			exchangeLastSuccess = last.Format(time.RFC3339)
		}
	}

	natsConnected := false
	if h.publisher != nil {
		natsConnected = h.publisher.IsConnected()
	}

	return HealthStatus{
		Healthy: healthy && dbConnected,
		Uptime:  time.Since(h.startTime).String(),
		Database: DatabaseStatus{
			Connected: dbConnected,
		},
		Exchange: ExchangeStatus{
			LastSuccess: exchangeLastSuccess,
		},
		NATS: NATSStatus{
			Connected: natsConnected,
		},
	}
}

// HealthStatus 健康状态结构
type HealthStatus struct {
	Healthy  bool           `json:"healthy"`
	Uptime   string         `json:"uptime"`
	Database DatabaseStatus `json:"database"`
	Exchange ExchangeStatus `json:"exchange"`
	NATS     NATSStatus     `json:"nats"`
}

// DatabaseStatus 数据库状态
type DatabaseStatus struct {
	Connected bool `json:"connected"`
}

// ExchangeStatus 交易所状态
type ExchangeStatus struct {
	LastSuccess string `json:"last_success"`
}

// NATSStatus NATS连接状态
type NATSStatus struct {
	Connected bool `json:"connected"`
}
