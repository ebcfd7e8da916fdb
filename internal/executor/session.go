package executor

import (
	"context"
	"errors"
)

// ErrNotConnected 表示会话未建立或已断开。
var ErrNotConnected = errors.New("trading session not connected")

// Session 是券商会话的最小能力集：连接、订阅后的主推、下单原语与查询。
// 实盘（QMT 网关）与模拟各有一个实现，由构造时的显式配置选择，
// 绝不做运行时的库存在性探测。
//
// 所有方法的 error 只表达连接/传输层故障；柜台对委托的拒绝通过
// OrderResult.Success=false + Message 表达。
type Session interface {
	// Connect 建立会话并订阅委托/成交/断线/错误等主推。
	Connect(ctx context.Context) error
	// Disconnect 断开会话，幂等。
	Disconnect()
	// Events 返回解码后的主推事件通道，会话关闭时关闭。
	Events() <-chan Event

	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	// PlaceOrderAsync 非阻塞下单，返回请求序号；结果经 EventAsyncAck 推送关联。
	PlaceOrderAsync(ctx context.Context, req OrderRequest) (int64, error)
	CancelOrder(ctx context.Context, orderID string) (CancelResult, error)

	QueryAsset(ctx context.Context) (Asset, error)
	QueryOrder(ctx context.Context, orderID string) (Order, error)
	QueryOrders(ctx context.Context) ([]Order, error)
	QueryTrades(ctx context.Context) ([]Trade, error)
	QueryPositions(ctx context.Context) ([]Position, error)
}
