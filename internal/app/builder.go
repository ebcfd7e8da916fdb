package app

import (
	"fmt"
	"time"

	"pyramid/internal/calendar"
	"pyramid/internal/config"
	"pyramid/internal/executor"
	"pyramid/internal/executor/qmt"
	"pyramid/internal/ledger"
	"pyramid/internal/logger"
	"pyramid/internal/market"
	"pyramid/internal/pending"
	pyramidhttp "pyramid/internal/transport/http"
)

// buildApp 按依赖顺序组装全部组件：日历→行情→台账→会话→执行器→调度→HTTP。
func buildApp(cfg *config.Config) (*App, error) {
	cal, err := calendar.NewCN(cfg.Calendar.HolidayFile)
	if err != nil {
		return nil, fmt.Errorf("初始化交易日历失败: %w", err)
	}

	src, err := market.NewClient(cfg.Market.BaseURL, time.Duration(cfg.Market.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("初始化行情客户端失败: %w", err)
	}

	store, err := ledger.NewStore(cfg.Storage.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("初始化台账失败: %w", err)
	}

	session, err := buildSession(cfg.Trader)
	if err != nil {
		store.Close()
		return nil, err
	}
	trader := executor.NewTrader(session, cfg.Trader.Mock, cfg.Trader.LotSize)

	pendingStore := pending.NewStore(cfg.Scheduler.PendingOrdersPath)
	sched := pending.NewScheduler(trader, pendingStore, cal, cfg.Scheduler)

	router := &pyramidhttp.Router{
		Market:   src,
		Cal:      cal,
		Ledger:   store,
		Trader:   trader,
		Sched:    sched,
		Strategy: cfg.Strategy,
	}
	server, err := pyramidhttp.NewServer(cfg.App.HTTPAddr, router)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}

	a := &App{
		cfg:    cfg,
		trader: trader,
		ledger: store,
		sched:  sched,
		http:   server,
	}
	if cfg.Calendar.Watch && cfg.Calendar.HolidayFile != "" {
		a.calendarWatch = cal.Watch
	}
	return a, nil
}

// buildSession 依据显式配置选择模拟或实盘会话，绝不做运行时探测。
func buildSession(cfg config.TraderConfig) (executor.Session, error) {
	if cfg.Mock {
		logger.Infof("app: 模拟模式，使用进程内交易会话")
		return executor.NewMockSession(), nil
	}
	session, err := qmt.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化 QMT 会话失败: %w", err)
	}
	return session, nil
}
