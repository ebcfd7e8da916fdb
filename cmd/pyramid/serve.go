package main

import (
	"log"
	"os/signal"
	"syscall"

	"pyramid/internal/app"
	"pyramid/internal/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动调度循环与 HTTP 服务",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logFile, err := loadConfig()
		if err != nil {
			log.Fatalf("读取配置失败: %v", err)
		}
		if logFile != nil {
			defer logFile.Close()
		}
		logger.Infof("✓ 配置加载成功（环境=%s，模拟=%v）", cfg.App.Env, cfg.Trader.Mock)

		a, err := app.NewApp(cfg)
		if err != nil {
			log.Fatalf("初始化应用失败: %v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := a.Run(ctx); err != nil {
			log.Fatalf("运行失败: %v", err)
		}
	},
}
