package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pyramid/internal/logger"
	"pyramid/internal/market"
	"pyramid/internal/pkg/stock"
	"pyramid/internal/strategy"

	"github.com/spf13/cobra"
)

var (
	planStock  string
	planAmount float64
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "离线生成建仓计划（只计算，不下单）",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logFile, err := loadConfig()
		if err != nil {
			log.Fatalf("读取配置失败: %v", err)
		}
		if logFile != nil {
			defer logFile.Close()
		}

		code, err := stock.Normalize(planStock)
		if err != nil {
			log.Fatalf("股票代码非法: %v", err)
		}

		src, err := market.NewClient(cfg.Market.BaseURL, time.Duration(cfg.Market.TimeoutSeconds)*time.Second)
		if err != nil {
			log.Fatalf("初始化行情客户端失败: %v", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		win, err := strategy.FindSpikeWindow(ctx, src, code,
			cfg.Strategy.LookbackDays, cfg.Strategy.SpikeThreshold)
		if err != nil {
			log.Fatalf("定位涨停失败: %v", err)
		}
		levels := strategy.ComputeLevels(win.High, win.Low)
		plan, err := strategy.BuildPlan(code, planAmount, win, levels, cfg.Strategy.Stages)
		if err != nil {
			log.Fatalf("生成计划失败: %v", err)
		}

		logger.InfoBlock(formatPlan(plan))
	},
}

func init() {
	planCmd.Flags().StringVar(&planStock, "stock", "", "股票代码（如 600000 或 sh.600000）")
	planCmd.Flags().Float64Var(&planAmount, "amount", 0, "计划总金额（元）")
	planCmd.MarkFlagRequired("stock")
	planCmd.MarkFlagRequired("amount")
}

func formatPlan(p strategy.OrderPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "标的：%s  总金额：%s\n", p.Code, stock.FormatMoney(p.TotalAmount))
	fmt.Fprintf(&b, "涨停日：%s  收盘 %.2f\n", p.Window.SpikeDate.Format("2006-01-02"), p.Window.SpikeClose)
	fmt.Fprintf(&b, "区间：高 %.2f / 低 %.2f  最新收盘 %.2f\n", p.Window.High, p.Window.Low, p.Window.LatestClose)
	for _, lv := range p.Levels {
		fmt.Fprintf(&b, "回调 %.3f → %.2f\n", lv.Ratio, lv.Price)
	}
	for _, o := range p.Orders {
		fmt.Fprintf(&b, "[%d-%d] %.2f 元 × %s（%.1f%%）%s\n",
			o.Stage, o.Seq, o.Price, stock.FormatMoney(o.Amount), o.Percentage, o.Description)
	}
	return b.String()
}
