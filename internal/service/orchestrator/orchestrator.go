package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// -----------------------------
// 错误定义
// -----------------------------
var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
)

// -----------------------------
// Orchestrator
// -----------------------------

// Orchestrator 基于 ants 协程池的批量执行器
// 每个任务独立执行，结果统一交回调用方 goroutine 收集
type Orchestrator struct {
	pool     *ants.Pool
	stopOnce sync.Once
	stopped  atomic.Bool
}

// Result 单个任务的执行结果
type Result[T, R any] struct {
	Index int
	Item  T
	Value R
	Err   error
}

// -----------------------------
// 构造函数
// -----------------------------
func NewOrchestrator(maxWorkers int) (*Orchestrator, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(1000),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		klog.Errorf("ants pool initialization failed: %v", err)
		return nil, err
	}
	return &Orchestrator{pool: pool}, nil
}

// -----------------------------
// 停止
// -----------------------------
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		klog.V(6).Infof("Orchestrator stopping...")
		o.stopped.Store(true)
		o.pool.Release()
	})
}

// Fanout 在协程池中并发执行 fn
// collect 只在调用方 goroutine 中按完成顺序执行，可以无锁地累积结果
// ctx 取消后尚未开始的任务直接以 ctx.Err() 结束
func Fanout[T, R any](ctx context.Context, o *Orchestrator, items []T, fn func(ctx context.Context, item T) (R, error), collect func(Result[T, R])) error {
	if o.stopped.Load() {
		return ErrOrchestratorStopped
	}

	results := make(chan Result[T, R], len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		wg.Add(1)
		err := o.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results <- Result[T, R]{Index: i, Item: item, Err: err}
				return
			}
			v, err := fn(ctx, item)
			results <- Result[T, R]{Index: i, Item: item, Value: v, Err: err}
		})
		if err != nil {
			wg.Done()
			klog.Errorf("submit job %d failed: %v", i, err)
			results <- Result[T, R]{Index: i, Item: item, Err: err}
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		collect(r)
	}
	return ctx.Err()
}
