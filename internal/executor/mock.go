package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pyramid/internal/logger"
)

// mockCash 是模拟账户的固定可用资金。
const mockCash = 1_000_000.00

// MockSession 是进程内的模拟会话：连接永远成功且无副作用，
// 查询返回确定的固定值，下发的委托保留在内存中以便未成交检查等
// 路径在无实盘连接时也能完整走通。
type MockSession struct {
	mu        sync.Mutex
	connected bool
	orders    []Order
	seq       atomic.Int64
	events    chan Event
}

func NewMockSession() *MockSession {
	return &MockSession{events: make(chan Event, 64)}
}

func (m *MockSession) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	logger.Infof("mock session: 连接成功（模拟模式）")
	return nil
}

func (m *MockSession) Disconnect() {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

func (m *MockSession) Events() <-chan Event { return m.events }

func (m *MockSession) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return OrderResult{}, ErrNotConnected
	}
	orderID := fmt.Sprintf("MOCK_%s_%v_%d", req.Stock, req.Price, req.Volume)
	m.orders = append(m.orders, Order{
		OrderID:  orderID,
		Stock:    req.Stock,
		Price:    req.Price,
		Volume:   req.Volume,
		Status:   StatusSubmitted,
		SubmitAt: time.Now(),
	})
	m.publish(Event{Type: EventOrderUpdate, At: time.Now(), Stock: req.Stock, OrderID: orderID, Status: StatusSubmitted})
	logger.Infof("mock session: 模拟下单 %s 价格=%v 数量=%d", req.Stock, req.Price, req.Volume)
	return OrderResult{OrderID: orderID, Success: true, Message: "模拟订单已提交"}, nil
}

func (m *MockSession) PlaceOrderAsync(ctx context.Context, req OrderRequest) (int64, error) {
	res, err := m.PlaceOrder(ctx, req)
	if err != nil {
		return 0, err
	}
	seq := m.seq.Add(1)
	m.mu.Lock()
	m.publish(Event{Type: EventAsyncAck, At: time.Now(), Stock: req.Stock, OrderID: res.OrderID, Seq: seq})
	m.mu.Unlock()
	return seq, nil
}

func (m *MockSession) CancelOrder(ctx context.Context, orderID string) (CancelResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return CancelResult{}, ErrNotConnected
	}
	for i := range m.orders {
		if m.orders[i].OrderID == orderID && m.orders[i].Unfilled() {
			m.orders[i].Status = StatusCanceled
			m.publish(Event{Type: EventOrderUpdate, At: time.Now(), OrderID: orderID, Status: StatusCanceled})
			return CancelResult{Success: true, Message: "模拟撤单成功"}, nil
		}
	}
	return CancelResult{Success: false, Message: "委托不存在或已终结"}, nil
}

func (m *MockSession) QueryAsset(ctx context.Context) (Asset, error) {
	if !m.isConnected() {
		return Asset{}, ErrNotConnected
	}
	return Asset{AccountID: "MOCK", Cash: mockCash, Total: mockCash}, nil
}

func (m *MockSession) QueryOrder(ctx context.Context, orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return Order{}, ErrNotConnected
	}
	for _, o := range m.orders {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return Order{}, fmt.Errorf("委托 %s 不存在", orderID)
}

func (m *MockSession) QueryOrders(ctx context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, ErrNotConnected
	}
	out := make([]Order, len(m.orders))
	copy(out, m.orders)
	return out, nil
}

func (m *MockSession) QueryTrades(ctx context.Context) ([]Trade, error) {
	if !m.isConnected() {
		return nil, ErrNotConnected
	}
	return []Trade{}, nil
}

func (m *MockSession) QueryPositions(ctx context.Context) ([]Position, error) {
	if !m.isConnected() {
		return nil, ErrNotConnected
	}
	return []Position{}, nil
}

func (m *MockSession) isConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// publish 非阻塞投递事件，消费不及时直接丢弃并告警。调用方须持有 m.mu。
func (m *MockSession) publish(ev Event) {
	select {
	case m.events <- ev:
	default:
		logger.Warnf("mock session: 事件通道已满，丢弃 %s", ev.Type)
	}
}

var _ Session = (*MockSession)(nil)
