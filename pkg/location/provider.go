package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SafetyApp/pkg/scheduler"
)

// Provider 平台定位服务。Start 之后按服务自身的节奏调用 onLocation
type Provider interface {
	Start(onLocation func(lat, lon float64)) error
	Stop()
}

// Fix 一次定位结果
type Fix struct {
	Lat float64
	Lon float64
}

// StaticProvider 启动时投递一次固定位置
type StaticProvider struct {
	Fix Fix
}

func (p StaticProvider) Start(onLocation func(lat, lon float64)) error {
	if onLocation == nil {
		return fmt.Errorf("location: nil callback")
	}
	onLocation(p.Fix.Lat, p.Fix.Lon)
	return nil
}

func (StaticProvider) Stop() {}

// ReplayProvider 按固定间隔回放一段轨迹，用于没有 GPS 的桌面环境
type ReplayProvider struct {
	Track    []Fix
	Interval time.Duration
	// Loop 为 true 时轨迹播完后从头开始
	Loop bool

	mu    sync.Mutex
	sched *scheduler.Scheduler
	next  int
}

func (p *ReplayProvider) Start(onLocation func(lat, lon float64)) error {
	if onLocation == nil {
		return fmt.Errorf("location: nil callback")
	}
	if len(p.Track) == 0 {
		return fmt.Errorf("location: empty track")
	}
	if p.Interval <= 0 {
		return fmt.Errorf("location: interval must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		select {
		case <-p.sched.Done():
			// 上一段轨迹已播完，允许重新开始
		default:
			return fmt.Errorf("location: provider already started")
		}
	}
	sched := scheduler.New()
	p.sched = sched
	p.next = 0
	sched.Every(p.Interval, scheduler.FuncJob(func(ctx context.Context) {
		fix, ok := p.advance()
		if !ok {
			// 不循环时播完即停
			sched.Cancel()
			return
		}
		onLocation(fix.Lat, fix.Lon)
	}))
	return nil
}

func (p *ReplayProvider) advance() (Fix, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.Track) {
		if !p.Loop {
			return Fix{}, false
		}
		p.next = 0
	}
	fix := p.Track[p.next]
	p.next++
	return fix, true
}

func (p *ReplayProvider) Stop() {
	p.mu.Lock()
	s := p.sched
	p.sched = nil
	p.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}
