package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/utrading/utrading-balance-dashboard/internal/cache"
	"github.com/utrading/utrading-balance-dashboard/internal/chart"
	"github.com/utrading/utrading-balance-dashboard/internal/dao"
	"github.com/utrading/utrading-balance-dashboard/internal/models"
	"github.com/utrading/utrading-balance-dashboard/internal/monitor"
	"github.com/utrading/utrading-balance-dashboard/pkg/goplus"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

//go:embed static
var staticFS embed.FS

// SnapshotStore 快照历史读取接口
type SnapshotStore interface {
	QuerySince(lookbackDays float64) ([]models.BalanceSnapshot, error)
}

// ResultProvider 最新轮询结果提供者
type ResultProvider interface {
	Latest(ctx context.Context) *cache.PollResult
}

// Server 仪表盘 HTTP 服务：静态页面 + JSON API
type Server struct {
	addr      string
	store     SnapshotStore
	provider  ResultProvider
	floorDate time.Time
	server    *http.Server
}

// NewServer 创建仪表盘服务
func NewServer(addr string, store SnapshotStore, provider ResultProvider, floorDate time.Time) *Server {
	return &Server{
		addr:      addr,
		store:     store,
		provider:  provider,
		floorDate: floorDate,
	}
}

// Start 启动HTTP服务器
func (s *Server) Start(ctx context.Context) error {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(static)))
	mux.HandleFunc("/api/chart", s.chartHandler)
	mux.HandleFunc("/api/summary", s.summaryHandler)
	mux.HandleFunc("/api/positions", s.positionsHandler)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	goplus.Go(func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("dashboard server error")
		}
	})

	logger.Info().Str("addr", s.addr).Msg("dashboard server started")

	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// chartHandler 余额历史图表数据
// 存储层错误降级为空序列；聚合层报错则必须显式失败，不能画出错误曲线
func (s *Server) chartHandler(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "30"
	}

	periodDays := 0
	lookback := float64(dao.AllHistoryDays)
	switch period {
	case "all":
	case "90":
		periodDays = 90
		lookback = 90
	default:
		period = "30"
		periodDays = 30
		lookback = 30
	}

	monitor.GetMetrics().IncChartRequests(period)

	snaps, err := s.store.QuerySince(lookback)
	if err != nil {
		logger.Error().Err(err).Str("period", period).Msg("query balance history failed, rendering empty chart")
		snaps = nil
	}

	points, err := chart.Aggregate(snaps, periodDays, s.floorDate, time.Now())
	if err != nil {
		logger.Error().Err(err).Str("period", period).Msg("aggregate balance history failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "balance history is malformed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ChartResponse{
		Period: period,
		Points: points,
	})
}

// summaryHandler 余额与持仓汇总
func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	result := s.provider.Latest(r.Context())
	if result == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no data"})
		return
	}

	writeJSON(w, http.StatusOK, buildSummary(result))
}

// positionsHandler 当前持仓列表
func (s *Server) positionsHandler(w http.ResponseWriter, r *http.Request) {
	result := s.provider.Latest(r.Context())
	if result == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no data"})
		return
	}

	writeJSON(w, http.StatusOK, PositionsResponse{
		Positions: result.Positions,
		Count:     len(result.Positions),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("write json response failed")
	}
}
