package config

import (
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

type Dashboard struct {
	ListenAddr       string        `toml:"listen_addr"`
	HealthServerAddr string        `toml:"health_server_addr"`
	PollInterval     time.Duration `toml:"poll_interval"`
	ChartFloorDate   string        `toml:"chart_floor_date"` // 该日期前的历史数据不展示（格式 2006-01-02，空则不过滤）
	QuoteAsset       string        `toml:"quote_asset"`
	FetchPoolSize    int           `toml:"fetch_pool_size"`
}

type Binance struct {
	APIKey    string        `toml:"api_key"`
	APISecret string        `toml:"api_secret"`
	Timeout   time.Duration `toml:"timeout"`
}

type Database struct {
	Driver             string   `toml:"driver"` // sqlite 或 mysql
	DSN                string   `toml:"dsn"`
	SlaveAddr          []string `toml:"slave_addr"`
	MaxIdleConnections int      `toml:"max_idle_connections"`
	MaxOpenConnections int      `toml:"max_open_connections"`
	SetConnMaxLifetime int      `toml:"set_conn_max_lifetime"`
	SetConnMaxIdleTime int      `toml:"set_conn_max_idle_time"`
	ProxyEnabled       bool     `toml:"proxy_enabled"`
	ProxyAddr          string   `toml:"proxy_addr"`
}

type NATS struct {
	Endpoint string `toml:"endpoint"` // 空则禁用事件发布
}

type Logger struct {
	Level      string `toml:"level"`
	FilePath   string `toml:"file_path"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
	Compress   bool   `toml:"compress"`
	Console    bool   `toml:"console"`
}

type Retention struct {
	Days    int   `toml:"days"`     // 快照保留天数（0 = 永久保留）
	MaxRows int64 `toml:"max_rows"` // 快照最大行数（0 = 不限制）
}

type Config struct {
	Dashboard Dashboard `toml:"dashboard"`
	Binance   Binance   `toml:"binance"`
	Database  Database  `toml:"database"`
	NATS      NATS      `toml:"nats"`
	Logger    Logger    `toml:"log"`
	Retention Retention `toml:"retention"`
}

// ChartFloor 解析图表下限日期，未配置或格式错误返回零值
func (d Dashboard) ChartFloor() time.Time {
	if d.ChartFloorDate == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", d.ChartFloorDate, time.Local)
	if err != nil {
		logger.Warn().Str("chart_floor_date", d.ChartFloorDate).Msg("invalid chart floor date, ignoring")
		return time.Time{}
	}
	return t
}

var (
	cfg         *Config
	cfgPath     string
	cfgLock     sync.RWMutex
	lastModTime time.Time
	stopChan    chan struct{}
)

func Default() *Config {
	return &Config{
		Dashboard: Dashboard{
			ListenAddr:       "0.0.0.0:8066",
			HealthServerAddr: "0.0.0.0:16801",
			PollInterval:     5 * time.Minute,
			ChartFloorDate:   "",
			QuoteAsset:       "USDT",
			FetchPoolSize:    8,
		},
		Binance: Binance{
			Timeout: 10 * time.Second,
		},
		Database: Database{
			Driver:             "sqlite",
			DSN:                "balances.db?_busy_timeout=10000&_journal_mode=WAL",
			SlaveAddr:          []string{},
			MaxIdleConnections: 4,
			MaxOpenConnections: 16,
			SetConnMaxLifetime: 7200,
			SetConnMaxIdleTime: 3600,
			ProxyEnabled:       false,
			ProxyAddr:          "127.0.0.1:7890",
		},
		NATS: NATS{
			Endpoint: "",
		},
		Logger: Logger{
			Level:      "info",
			FilePath:   "logs/info.log",
			MaxSize:    10,
			MaxBackups: 60,
			MaxAge:     7,
			Compress:   false,
			Console:    false,
		},
		Retention: Retention{
			Days:    0,
			MaxRows: 0,
		},
	}
}

func Load(path string) error {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	cfgLock.Lock()
	defer cfgLock.Unlock()
	cfg = c
	cfgPath = path
	lastModTime = info.ModTime()

	return nil
}

func Get() *Config {
	cfgLock.RLock()
	defer cfgLock.RUnlock()
	return cfg
}

// Init 初始化配置并启动定期重载（默认10秒）
func Init(path string) error {
	return InitWithInterval(path, 10*time.Second)
}

// InitWithInterval 初始化配置并指定重载间隔
func InitWithInterval(path string, interval time.Duration) error {
	if err := Load(path); err != nil {
		return err
	}

	stopChan = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				reloadIfNeeded()
			case <-stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop 停止配置重载
func Stop() {
	if stopChan != nil {
		close(stopChan)
	}
}

// reloadIfNeeded 仅在文件修改时重载
func reloadIfNeeded() {
	cfgLock.RLock()
	path := cfgPath
	lastMod := lastModTime
	cfgLock.RUnlock()

	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Error().Err(err).Msg("config stat failed")
		return
	}

	if info.ModTime().After(lastMod) {
		if err = Load(path); err != nil {
			logger.Error().Err(err).Msg("config reload failed")
		} else {
			logger.Info().Msg("config reloaded")
		}
	}
}
