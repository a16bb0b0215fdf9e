package scheduler

import (
	"context"
	"sync"
)

// Barrier - одноразовый сигнал готовности приложения; фоновые задачи ждут его перед первым запуском
type Barrier struct {
	once sync.Once
	ch   chan struct{}
}

func NewBarrier() *Barrier {
	return &Barrier{ch: make(chan struct{})}
}

// Release - открыть барьер; повторные вызовы ничего не делают
func (b *Barrier) Release() {
	b.once.Do(func() { close(b.ch) })
}

func (b *Barrier) Done() <-chan struct{} {
	return b.ch
}

// Wait - дождаться Release или отмены ctx
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
