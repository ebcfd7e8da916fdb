package pending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pyramid/internal/calendar"
	"pyramid/internal/config"
	"pyramid/internal/executor"
	"pyramid/internal/logger"
	"pyramid/internal/metrics"

	"github.com/shopspring/decimal"
)

// Scheduler 是唯一的后台控制循环：收盘前抓取未成交委托落盘，
// 次日开盘后重新申报。窗口判断全部委托给交易日历。
type Scheduler struct {
	trader *executor.Trader
	store  *Store
	cal    calendar.Calendar

	interval      time.Duration
	checkLead     time.Duration
	checkDebounce time.Duration
	reloadDelay   time.Duration
	reloadWindow  time.Duration

	// 测试注入时钟
	nowFn func() time.Time

	mu             sync.Mutex
	lastCheck      time.Time
	lastReloadDate string

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewScheduler(trader *executor.Trader, store *Store, cal calendar.Calendar, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		trader:        trader,
		store:         store,
		cal:           cal,
		interval:      time.Duration(cfg.IntervalSeconds) * time.Second,
		checkLead:     time.Duration(cfg.CheckLeadMinutes) * time.Minute,
		checkDebounce: time.Duration(cfg.CheckDebounceSeconds) * time.Second,
		reloadDelay:   time.Duration(cfg.ReloadDelayMinutes) * time.Minute,
		reloadWindow:  time.Duration(cfg.ReloadWindowMinutes) * time.Minute,
		nowFn:         time.Now,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Run 阻塞运行轮询循环直到 ctx 取消或 Stop 被调用。
// 停止信号在两次 tick 之间被观察到，循环保证在一个轮询周期内退出。
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	logger.Infof("scheduler: 启动，轮询间隔 %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("scheduler: 上下文取消，退出")
			return
		case <-s.stop:
			logger.Infof("scheduler: 收到停止信号，退出")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop 请求循环退出并等待其结束。
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// tick 执行一轮窗口判断。任何一轮的 panic 或错误都只记日志，
// 绝不终止循环。
func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("scheduler: tick panic: %v", r)
		}
	}()
	metrics.SchedulerTicks.Inc()

	now := s.nowFn()
	if !s.cal.IsTradingDay(now) {
		return
	}

	if s.inCheckWindow(now) && s.debounceElapsed(now) {
		if err := s.captureUnfilled(ctx); err != nil {
			// 失败不盖戳：防抖只压制重复抓取，不压制失败后的重试
			logger.Errorf("scheduler: 收盘前抓取未成交失败: %v", err)
		} else {
			s.mu.Lock()
			s.lastCheck = now
			s.mu.Unlock()
		}
	}

	if s.inReloadWindow(now) && !s.reloadedToday(now) {
		if _, err := s.resubmit(ctx); err != nil {
			logger.Errorf("scheduler: 开盘后重报失败: %v", err)
		}
		// 无论成败当天只清扫一次
		s.mu.Lock()
		s.lastReloadDate = now.Format("2006-01-02")
		s.mu.Unlock()
	}
}

func (s *Scheduler) inCheckWindow(now time.Time) bool {
	end := s.cal.CloseTime(now)
	start := end.Add(-s.checkLead)
	return !now.Before(start) && !now.After(end)
}

func (s *Scheduler) debounceElapsed(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheck.IsZero() || now.Sub(s.lastCheck) >= s.checkDebounce
}

// inReloadWindow 判断是否处于开盘后重报窗口 [开盘+delay, 开盘+window]，
// 两个偏移都从开盘时刻起算。
func (s *Scheduler) inReloadWindow(now time.Time) bool {
	open := s.cal.OpenTime(now)
	start := open.Add(s.reloadDelay)
	end := open.Add(s.reloadWindow)
	return !now.Before(start) && !now.After(end)
}

func (s *Scheduler) reloadedToday(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReloadDate == now.Format("2006-01-02")
}

// CheckNow 手工触发未成交抓取，绕过窗口但不绕过落盘逻辑。
func (s *Scheduler) CheckNow(ctx context.Context) (int, error) {
	if err := s.captureUnfilled(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.lastCheck = s.nowFn()
	s.mu.Unlock()
	snap, err := s.store.Load()
	if err != nil {
		return 0, err
	}
	return len(snap.Orders), nil
}

// ReloadNow 手工触发重报，绕过窗口但不绕过重报逻辑；同样盖当日戳。
func (s *Scheduler) ReloadNow(ctx context.Context) (int, error) {
	n, err := s.resubmit(ctx)
	s.mu.Lock()
	s.lastReloadDate = s.nowFn().Format("2006-01-02")
	s.mu.Unlock()
	return n, err
}

// captureUnfilled 查询柜台当前未成交委托，按剩余股数折算金额后整体落盘。
func (s *Scheduler) captureUnfilled(ctx context.Context) error {
	orders, err := s.trader.QueryOrders(ctx)
	if err != nil {
		return fmt.Errorf("查询委托失败: %w", err)
	}
	captured := make([]executor.BatchOrder, 0, len(orders))
	for _, o := range orders {
		if !o.Unfilled() {
			continue
		}
		amount, _ := decimal.NewFromFloat(o.Price).
			Mul(decimal.NewFromInt(int64(o.Remaining()))).
			Round(2).Float64()
		captured = append(captured, executor.BatchOrder{
			Stock:  o.Stock,
			Price:  o.Price,
			Amount: amount,
		})
	}
	if err := s.store.Save(captured); err != nil {
		return err
	}
	metrics.PendingCaptured.Add(float64(len(captured)))
	logger.Infof("scheduler: 已落盘 %d 笔未成交委托", len(captured))
	return nil
}

// resubmit 读取落盘的待重报委托并逐笔重新申报，随后清空文件。
// 返回成功申报的笔数。
func (s *Scheduler) resubmit(ctx context.Context) (int, error) {
	snap, err := s.store.Load()
	if err != nil {
		return 0, err
	}
	if len(snap.Orders) == 0 {
		logger.Infof("scheduler: 无待重报委托")
		return 0, nil
	}

	results := s.trader.BatchPlaceOrders(ctx, snap.Orders)
	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			logger.Warnf("scheduler: 重报失败 %s: %s", r.Order.Stock, r.Message)
		}
	}
	metrics.PendingResubmitted.Add(float64(ok))
	logger.Infof("scheduler: 重报完成 成功 %d/%d", ok, len(results))

	if err := s.store.Clear(); err != nil {
		return ok, fmt.Errorf("清空待重报文件失败: %w", err)
	}
	return ok, nil
}
