// Package app 负责应用级编排：加载配置→初始化依赖→启动调度循环与 HTTP 服务。
package app

import (
	"context"
	"fmt"

	"pyramid/internal/config"
	"pyramid/internal/executor"
	"pyramid/internal/ledger"
	"pyramid/internal/logger"
	"pyramid/internal/pending"
	pyramidhttp "pyramid/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App 持有全部长生命周期组件。所有组件在进程启动时构造一次，
// 生命周期由 App 统一管理。
type App struct {
	cfg    *config.Config
	trader *executor.Trader
	ledger *ledger.Store
	sched  *pending.Scheduler
	http   *pyramidhttp.Server

	calendarWatch func(ctx context.Context) error
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildApp(cfg)
}

// Run 建立交易会话并同时运行调度循环与 HTTP 服务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	// 启动时连接失败不致命：调度与下单路径会按需重连
	if err := a.trader.Connect(ctx); err != nil {
		logger.Warnf("app: 启动时建立交易会话失败，将在首次调用时重试: %v", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	if a.calendarWatch != nil {
		group.Go(func() error {
			if err := a.calendarWatch(ctx); err != nil {
				logger.Warnf("app: 节假日表监听退出: %v", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		a.sched.Run(ctx)
		return nil
	})

	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	logger.Infof("app: 启动完成，HTTP 监听 %s", a.http.Addr())
	err := group.Wait()
	a.Close()
	return err
}

// Close 释放持久化资源。
func (a *App) Close() {
	if a == nil {
		return
	}
	a.trader.Disconnect()
	if err := a.ledger.Close(); err != nil {
		logger.Warnf("app: 关闭台账失败: %v", err)
	}
}

// Trader 暴露执行器实例（供命令行子命令复用）。
func (a *App) Trader() *executor.Trader {
	if a == nil {
		return nil
	}
	return a.trader
}
