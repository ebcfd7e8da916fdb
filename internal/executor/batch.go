package executor

import (
	"context"
	"fmt"
	"strings"

	"pyramid/internal/logger"

	"github.com/shopspring/decimal"
)

// BatchPlaceOrders 逐笔独立地执行批量下单：每笔先做本地校验，再把金额
// 换算为一手倍数的股数，不足一手记失败并继续 —— 单笔失败绝不中断批次。
// 返回值与输入一一对应，成功/失败计数由调用方自行统计。
func (t *Trader) BatchPlaceOrders(ctx context.Context, orders []BatchOrder) []BatchResult {
	results := make([]BatchResult, 0, len(orders))
	for _, o := range orders {
		results = append(results, t.placeBatchOrder(ctx, o))
	}
	return results
}

func (t *Trader) placeBatchOrder(ctx context.Context, o BatchOrder) BatchResult {
	if strings.TrimSpace(o.Stock) == "" {
		return BatchResult{Order: o, Success: false, Message: "股票代码不能为空"}
	}
	if o.Price <= 0 {
		return BatchResult{Order: o, Success: false, Message: fmt.Sprintf("价格非法: %v", o.Price)}
	}
	if o.Amount <= 0 {
		return BatchResult{Order: o, Success: false, Message: fmt.Sprintf("金额非法: %v", o.Amount)}
	}

	volume := t.volumeFor(o.Amount, o.Price)
	if volume < t.lotSize {
		minCapital := decimal.NewFromFloat(o.Price).Mul(decimal.NewFromInt(int64(t.lotSize)))
		return BatchResult{
			Order:   o,
			Success: false,
			Message: fmt.Sprintf("金额不足一手（需要至少 %s 元）", minCapital.StringFixed(2)),
		}
	}

	res := t.PlaceOrder(ctx, o.Stock, o.Price, volume, DirBuy)
	if !res.Success {
		logger.Warnf("executor: 批量下单失败 %s 价格=%v 金额=%v: %s", o.Stock, o.Price, o.Amount, res.Message)
	}
	return BatchResult{
		Order:   o,
		Success: res.Success,
		OrderID: res.OrderID,
		Volume:  volume,
		Message: res.Message,
	}
}

// volumeFor 把金额换算为股数：floor(amount / price / lot) × lot。
// 用 decimal 做除法，避免二进制浮点在边界上少算一手。
func (t *Trader) volumeFor(amount, price float64) int {
	lot := decimal.NewFromInt(int64(t.lotSize))
	lots := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(price)).
		Div(lot).
		Floor()
	return int(lots.Mul(lot).IntPart())
}
