package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Handler 事件处理函数
type Handler[TEvent any] func(ctx context.Context, event TEvent) error

// Bus 按事件类型广播的同步事件总线
type Bus[TType comparable, TEvent any] struct {
	mutex       sync.RWMutex
	subscribers map[TType]map[uint64]Handler[TEvent]
	counter     uint64
}

func NewBus[TType comparable, TEvent any]() *Bus[TType, TEvent] {
	return &Bus[TType, TEvent]{
		subscribers: make(map[TType]map[uint64]Handler[TEvent]),
	}
}

// Subscribe 订阅事件，返回取消订阅函数
func (b *Bus[TType, TEvent]) Subscribe(eventType TType, handler Handler[TEvent]) func() {
	if handler == nil {
		return func() {}
	}
	id := atomic.AddUint64(&b.counter, 1)
	b.mutex.Lock()
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[uint64]Handler[TEvent])
	}
	b.subscribers[eventType][id] = handler
	b.mutex.Unlock()
	return func() {
		b.mutex.Lock()
		handlers, ok := b.subscribers[eventType]
		if ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.subscribers, eventType)
			}
		}
		b.mutex.Unlock()
	}
}

// Publish 同步调用所有订阅者，错误合并返回
func (b *Bus[TType, TEvent]) Publish(ctx context.Context, eventType TType, event TEvent) error {
	b.mutex.RLock()
	handlersMap := b.subscribers[eventType]
	handlers := make([]Handler[TEvent], 0, len(handlersMap))
	for _, handler := range handlersMap {
		handlers = append(handlers, handler)
	}
	b.mutex.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
