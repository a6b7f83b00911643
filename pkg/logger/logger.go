package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	TimeFormat = "2006-01-02 15:04:05"

	fileWriter *lumberjack.Logger
)

// initLogger 初始化日志系统
func initLogger(config Config) error {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	setLogLevel(config.Level)

	if config.FilePath == "" {
		config.FilePath = "logs/info.log"
	}
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return err
	}

	fileWriter = &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	writers := []io.Writer{fileWriter}
	if config.Console {
		writers = append(writers, &zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: TimeFormat,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Caller().Logger()

	return nil
}

// L 返回全局 logger
func L() zerolog.Logger {
	return log.Logger
}

func Info() *zerolog.Event {
	return log.Logger.Info()
}

func Debug() *zerolog.Event {
	return log.Logger.Debug()
}

func Warn() *zerolog.Event {
	return log.Logger.Warn()
}

func Error() *zerolog.Event {
	return log.Logger.Error()
}

func Fatal() *zerolog.Event {
	return log.Logger.Fatal()
}

// Err 直接记录错误
func Err(err error) *zerolog.Event {
	return log.Logger.Err(err)
}

// Infof 格式化 Info 日志
func Infof(format string, v ...any) {
	log.Logger.Info().CallerSkipFrame(1).Msgf(format, v...)
}

// Warnf 格式化 Warn 日志
func Warnf(format string, v ...any) {
	log.Logger.Warn().CallerSkipFrame(1).Msgf(format, v...)
}

// Errorf 格式化 Error 日志
func Errorf(format string, v ...any) {
	log.Logger.Error().CallerSkipFrame(1).Msgf(format, v...)
}

// Close 关闭日志文件
func Close() {
	if fileWriter != nil {
		if err := fileWriter.Close(); err != nil {
			log.Logger.Err(err).Msg("failed to close log file")
		}
		fileWriter = nil
	}
}
