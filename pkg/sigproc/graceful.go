package sigproc

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utrading/utrading-balance-dashboard/pkg/goplus"
	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

type HandlerFunc func(os.Signal)

// GracefulShutdown 注册信号处理器，收到退出信号后执行 shutdown
// shutdown 超过 30 秒未完成则强制退出
func GracefulShutdown(shutdown HandlerFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	goplus.Go(func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("received signal")

		done := make(chan struct{})
		goplus.Go(func() {
			shutdown(sig)
			close(done)
		})

		select {
		case <-done:
		case <-time.After(30 * time.Second):
			logger.Warn().Msg("shutdown timed out, forcing exit")
		}

		os.Exit(0)
	})
}
