package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pyramid/internal/logger"
	"pyramid/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// connState 是连接状态机：Disconnected → Connecting → Connected；
// 故障后 Connected → Reconnecting → Connected|Disconnected。
type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
	stateReconnecting
)

// Trader 拥有券商会话及其生命周期，(重)连接只能经由它发起。
// 在进程启动时构造一次并按引用传给所有需要的组件，不存在全局单例。
type Trader struct {
	session Session
	mock    bool
	lotSize int

	mu            sync.Mutex
	state         connState
	lastHeartbeat time.Time

	// 重连串行化：并发调用方同时观察到故障时，仅一个真正执行重连，
	// 其余等待同一次尝试的结果。
	reconnect singleflight.Group

	events   chan Event
	pumpOnce sync.Once
	stopOnce sync.Once
	pumpStop chan struct{}
}

// NewTrader 构造执行器。mock 与 lotSize 来自显式配置。
func NewTrader(session Session, mock bool, lotSize int) *Trader {
	if lotSize <= 0 {
		lotSize = 100
	}
	return &Trader{
		session:  session,
		mock:     mock,
		lotSize:  lotSize,
		events:   make(chan Event, 128),
		pumpStop: make(chan struct{}),
	}
}

// LotSize 返回最小交易单位。
func (t *Trader) LotSize() int { return t.lotSize }

// State 返回连接状态快照。故障发生到被察觉之间可能短暂读到旧值。
func (t *Trader) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Connected:     t.state == stateConnected,
		Mock:          t.mock,
		LastHeartbeat: t.lastHeartbeat,
	}
}

// Events 返回执行器转发的柜台主推事件。
func (t *Trader) Events() <-chan Event { return t.events }

// Connect 建立会话并启动事件转发。失败时状态保持 Disconnected。
func (t *Trader) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.state == stateConnected {
		t.mu.Unlock()
		return nil
	}
	t.state = stateConnecting
	t.mu.Unlock()

	if err := t.session.Connect(ctx); err != nil {
		t.setState(stateDisconnected)
		return fmt.Errorf("建立交易会话失败: %w", err)
	}
	t.markConnected()
	logger.Infof("executor: 交易会话已建立 mock=%v", t.mock)
	return nil
}

// Disconnect 断开会话并停止事件转发，幂等。
func (t *Trader) Disconnect() {
	t.session.Disconnect()
	t.setState(stateDisconnected)
	t.stopOnce.Do(func() { close(t.pumpStop) })
}

// CheckConnection 报告会话是否可用；不可用时透明地尝试一次重连并返回结果。
func (t *Trader) CheckConnection(ctx context.Context) bool {
	t.mu.Lock()
	ok := t.state == stateConnected
	t.mu.Unlock()
	if ok {
		return true
	}
	return t.reconnectOnce(ctx) == nil
}

// reconnectOnce 执行一次串行化的重连。同一时刻只有一个调用真正重连，
// 其余共享该次尝试的返回值。
func (t *Trader) reconnectOnce(ctx context.Context) error {
	_, err, _ := t.reconnect.Do("reconnect", func() (any, error) {
		t.setState(stateReconnecting)
		logger.Warnf("executor: 会话不可用，尝试重连")
		metrics.Reconnects.Inc()
		t.session.Disconnect()
		if err := t.session.Connect(ctx); err != nil {
			t.setState(stateDisconnected)
			return nil, fmt.Errorf("重连失败: %w", err)
		}
		t.markConnected()
		logger.Infof("executor: 重连成功")
		return nil, nil
	})
	return err
}

// PlaceOrder 下一笔限价委托。参数校验在任何网络调用之前完成：
// 价格必须为正，股数必须是正的一手倍数 —— 不做任何隐式取整。
func (t *Trader) PlaceOrder(ctx context.Context, stock string, price float64, volume int, dir Direction) OrderResult {
	if price <= 0 {
		return OrderResult{Success: false, Message: fmt.Sprintf("价格非法: %v", price)}
	}
	if volume <= 0 || volume%t.lotSize != 0 {
		return OrderResult{Success: false, Message: fmt.Sprintf("数量 %d 必须是 %d 的正整数倍", volume, t.lotSize)}
	}
	req := OrderRequest{Stock: stock, Price: price, Volume: volume, Direction: dir}
	res, err := callWithReconnect(ctx, t, func() (OrderResult, error) {
		return t.session.PlaceOrder(ctx, req)
	})
	if err != nil {
		metrics.OrdersFailed.Inc()
		return OrderResult{Success: false, Message: err.Error()}
	}
	if res.Success {
		metrics.OrdersPlaced.Inc()
	} else {
		// 柜台拒绝：原样透出，绝不自动重试（避免重复申报）。
		metrics.OrdersFailed.Inc()
	}
	return res
}

// PlaceOrderAsync 非阻塞下单，返回请求序号；委托结果经 EventAsyncAck 关联。
func (t *Trader) PlaceOrderAsync(ctx context.Context, stock string, price float64, volume int, dir Direction) (int64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("价格非法: %v", price)
	}
	if volume <= 0 || volume%t.lotSize != 0 {
		return 0, fmt.Errorf("数量 %d 必须是 %d 的正整数倍", volume, t.lotSize)
	}
	req := OrderRequest{Stock: stock, Price: price, Volume: volume, Direction: dir}
	return callWithReconnect(ctx, t, func() (int64, error) {
		return t.session.PlaceOrderAsync(ctx, req)
	})
}

// CancelOrder 按委托号撤单。
func (t *Trader) CancelOrder(ctx context.Context, orderID string) CancelResult {
	res, err := callWithReconnect(ctx, t, func() (CancelResult, error) {
		return t.session.CancelOrder(ctx, orderID)
	})
	if err != nil {
		return CancelResult{Success: false, Message: err.Error()}
	}
	return res
}

func (t *Trader) QueryAsset(ctx context.Context) (Asset, error) {
	return callWithReconnect(ctx, t, func() (Asset, error) { return t.session.QueryAsset(ctx) })
}

func (t *Trader) QueryOrder(ctx context.Context, orderID string) (Order, error) {
	return callWithReconnect(ctx, t, func() (Order, error) { return t.session.QueryOrder(ctx, orderID) })
}

func (t *Trader) QueryOrders(ctx context.Context) ([]Order, error) {
	return callWithReconnect(ctx, t, func() ([]Order, error) { return t.session.QueryOrders(ctx) })
}

func (t *Trader) QueryTrades(ctx context.Context) ([]Trade, error) {
	return callWithReconnect(ctx, t, func() ([]Trade, error) { return t.session.QueryTrades(ctx) })
}

func (t *Trader) QueryPositions(ctx context.Context) ([]Position, error) {
	return callWithReconnect(ctx, t, func() ([]Position, error) { return t.session.QueryPositions(ctx) })
}

// callWithReconnect 执行一次会话调用；遇到连接层故障时自动重连一次并
// 重试该调用，重试仍失败则把错误交还调用方。柜台拒绝不走这条路径。
func callWithReconnect[T any](ctx context.Context, t *Trader, fn func() (T, error)) (T, error) {
	if !t.CheckConnection(ctx) {
		var zero T
		return zero, ErrNotConnected
	}
	res, err := fn()
	if err == nil {
		return res, nil
	}
	t.setState(stateDisconnected)
	if rerr := t.reconnectOnce(ctx); rerr != nil {
		var zero T
		return zero, fmt.Errorf("%w（原始错误: %v）", rerr, err)
	}
	return fn()
}

// setState 更新状态机并让连接指标跟随状态，而不是跟随个别事件。
func (t *Trader) setState(s connState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
	if s == stateConnected {
		metrics.Connected.Set(1)
	} else {
		metrics.Connected.Set(0)
	}
}

// markConnected 在任一连接路径成功后调用，事件泵随首次成功连接启动。
func (t *Trader) markConnected() {
	t.mu.Lock()
	t.state = stateConnected
	t.lastHeartbeat = time.Now()
	t.mu.Unlock()
	metrics.Connected.Set(1)
	t.pumpOnce.Do(func() { go t.pumpEvents() })
}

// pumpEvents 把会话主推转发到执行器自己的事件通道，并在收到断线
// 通知时将状态置为未连接。转发永不阻塞。
func (t *Trader) pumpEvents() {
	src := t.session.Events()
	for {
		select {
		case <-t.pumpStop:
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			if ev.Type == EventDisconnect {
				t.setState(stateDisconnected)
				logger.Warnf("executor: 收到断线通知: %s", ev.Message)
			}
			t.mu.Lock()
			t.lastHeartbeat = time.Now()
			t.mu.Unlock()
			select {
			case t.events <- ev:
			default:
				logger.Warnf("executor: 事件通道已满，丢弃 %s", ev.Type)
			}
		}
	}
}
