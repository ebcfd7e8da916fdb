package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pyramid/internal/market"
)

// ErrNoSpike 表示回看窗口内没有找到合格的涨停日。
var ErrNoSpike = errors.New("lookback window contains no qualifying spike")

// FibRatios 是固定的五个回调位比例，升序排列。
var FibRatios = []float64{0.382, 0.500, 0.618, 0.700, 0.786}

// FindSpikeWindow 在最近 lookbackDays 个自然日的日线中查找最近一次
// 涨幅 ≥ threshold 的交易日（实际涨停常因凑整略小于 10%，故阈值取 9.5），
// 并从该日向后扫描得到区间最高价、最低价与最新收盘价。
func FindSpikeWindow(ctx context.Context, src market.Source, code string, lookbackDays int, threshold float64) (SpikeWindow, error) {
	if lookbackDays <= 0 {
		lookbackDays = 60
	}
	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)
	bars, err := src.DailyBars(ctx, code, start, end)
	if err != nil {
		return SpikeWindow{}, fmt.Errorf("获取 %s 日线失败: %w", code, err)
	}
	if len(bars) == 0 {
		return SpikeWindow{}, fmt.Errorf("%s 在最近 %d 天内无日线数据: %w", code, lookbackDays, ErrNoSpike)
	}

	spike := -1
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].PctChg >= threshold {
			spike = i
			break
		}
	}
	if spike < 0 {
		return SpikeWindow{}, fmt.Errorf("%s 在最近 %d 天内无涨停记录: %w", code, lookbackDays, ErrNoSpike)
	}

	high := bars[spike].High
	low := bars[spike].Low
	for _, b := range bars[spike:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	return SpikeWindow{
		Code:        code,
		SpikeDate:   bars[spike].Date,
		SpikeClose:  bars[spike].Close,
		High:        high,
		Low:         low,
		LatestClose: bars[len(bars)-1].Close,
	}, nil
}

// ComputeLevels 由 (high, low) 派生五个回调位价格。纯函数，结果确定。
func ComputeLevels(high, low float64) []PriceLevel {
	diff := high - low
	levels := make([]PriceLevel, 0, len(FibRatios))
	for _, r := range FibRatios {
		levels = append(levels, PriceLevel{Ratio: r, Price: high - diff*r})
	}
	return levels
}

// LevelPrice 查找指定比例的回调位价格。
func LevelPrice(levels []PriceLevel, ratio float64) (float64, bool) {
	for _, l := range levels {
		if l.Ratio == ratio {
			return l.Price, true
		}
	}
	return 0, false
}
