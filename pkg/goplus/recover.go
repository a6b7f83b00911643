package goplus

import (
	"fmt"
	"runtime/debug"

	"github.com/utrading/utrading-balance-dashboard/pkg/logger"
)

// Recover 捕获 panic 并记录调用栈
func Recover() {
	if r := recover(); r != nil {
		logger.Error().
			Str("stack", string(debug.Stack())).
			Msg(fmt.Sprintf("panic: %v", r))
	}
}
