package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/utrading/utrading-balance-dashboard/config"
	"github.com/utrading/utrading-balance-dashboard/internal/dal"
	"github.com/utrading/utrading-balance-dashboard/internal/dao"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

// import_history 历史余额回填工具
// 输入为 JSON 数组，每个元素形如 {"date": "02.01.2006", "futures_balance": 1234.5, "spot_balance": 10}
// 已有快照的日历日跳过，不覆盖线上数据

func main() {
	var configFile string
	var inputFile string
	flag.StringVar(&configFile, "config", "cfg.toml", "config file path")
	flag.StringVar(&inputFile, "input", "", "history json file path")
	flag.Parse()

	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "usage: import_history -input history.json [-config cfg.toml]")
		os.Exit(2)
	}

	if err := config.Init(configFile); err != nil {
		panic(err)
	}
	cfg := config.Get()

	if err := initLogger(cfg); err != nil {
		panic("init logger failed: " + err.Error())
	}
	defer logger.Close()

	dal.InitDB(cfg.Database)
	dal.AutoMigrate()
	dao.InitDAO(dal.DB())
	defer dal.CloseDB()

	data, err := os.ReadFile(inputFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", inputFile).Msg("read history file failed")
	}

	if !gjson.ValidBytes(data) {
		logger.Fatal().Str("file", inputFile).Msg("history file is not valid json")
	}

	rows := gjson.ParseBytes(data)
	if !rows.IsArray() {
		logger.Fatal().Str("file", inputFile).Msg("history file must be a json array")
	}

	added, skipped, failed := 0, 0, 0

	rows.ForEach(func(_, row gjson.Result) bool {
		dateStr := row.Get("date").String()
		ts, err := parseDate(dateStr)
		if err != nil {
			logger.Error().Err(err).Str("date", dateStr).Msg("skip row with invalid date")
			failed++
			return true
		}

		exists, err := dao.Balance().HasDate(ts)
		if err != nil {
			logger.Error().Err(err).Time("date", ts).Msg("check existing snapshot failed")
			failed++
			return true
		}
		if exists {
			skipped++
			return true
		}

		spot := row.Get("spot_balance").Float()
		futures := row.Get("futures_balance").Float()

		if err = dao.Balance().SaveAt(ts, spot, futures); err != nil {
			failed++
			return true
		}
		added++

		return true
	})

	logger.Info().
		Int("added", added).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("history import finished")

	if failed > 0 {
		os.Exit(1)
	}
}

// parseDate 解析历史记录日期，支持 02.01.2006 和 RFC3339 两种格式
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("02.01.2006", s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

func initLogger(cfg *config.Config) error {
	return logger.NewBuilder().
		SetFilePath(cfg.Logger.FilePath).
		SetMaxSize(cfg.Logger.MaxSize).
		SetMaxBackups(cfg.Logger.MaxBackups).
		SetMaxAge(cfg.Logger.MaxAge).
		SetLevel(cfg.Logger.Level).
		EnableCompression(cfg.Logger.Compress).
		EnableConsoleOutput(true).
		Build()
}
