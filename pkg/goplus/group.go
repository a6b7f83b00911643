package goplus

import (
	"sync"
	"sync/atomic"
)

var (
	defaultGroup     *WaitGroup
	defaultGroupOnce sync.Once
)

func DefaultGroup() *WaitGroup {
	defaultGroupOnce.Do(func() {
		defaultGroup = NewWaitGroup()
	})
	return defaultGroup
}

// Go 在默认分组中启动带 panic 保护的协程
func Go(fn func()) {
	DefaultGroup().Go(fn)
}

func Wait() {
	DefaultGroup().Wait()
}

type WaitGroup struct {
	wg             sync.WaitGroup
	CurrentGoCount atomic.Int64
}

func NewWaitGroup() *WaitGroup {
	return &WaitGroup{}
}

func (s *WaitGroup) Go(fn func()) {
	s.CurrentGoCount.Add(1)
	s.wg.Add(1)

	go func() {
		defer Recover()
		defer func() {
			s.CurrentGoCount.Add(-1)
			s.wg.Done()
		}()

		fn()
	}()
}

func (s *WaitGroup) Wait() {
	s.wg.Wait()
}
