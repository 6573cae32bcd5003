package scheduler

import (
	"context"
	"sync"
	"time"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Scheduler 运行周期/延迟任务，Stop 会等待所有任务循环退出
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Cancel 只取消不等待，可在任务内部调用
func (s *Scheduler) Cancel() { s.cancel() }

// Done 在 Stop 或 Cancel 之后关闭
func (s *Scheduler) Done() <-chan struct{} { return s.ctx.Done() }

// Every 立即执行一次，之后每隔 d 执行一次
func (s *Scheduler) Every(d time.Duration, job Job) { s.spawn(func() { s.loopEvery(d, job) }) }

func (s *Scheduler) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Scheduler) loopEvery(d time.Duration, job Job) {
	if s.ctx.Err() != nil {
		return
	}
	job.Run(s.ctx)

	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
			if s.ctx.Err() != nil {
				return
			}
			job.Run(s.ctx)
		}
	}
}
