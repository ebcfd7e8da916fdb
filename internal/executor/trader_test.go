package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pyramid/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession 允许按次编排连接/下单失败。
type fakeSession struct {
	mu            sync.Mutex
	connectErrs   []error // 依次消费；耗尽后成功
	connectCalls  atomic.Int32
	connectDelay  time.Duration
	placeErrs     []error
	placeCalls    atomic.Int32
	placedOrders  []OrderRequest
	rejectMessage string
	events        chan Event
}

func newFakeSession() *fakeSession {
	return &fakeSession{events: make(chan Event, 16)}
}

func (f *fakeSession) Connect(ctx context.Context) error {
	f.connectCalls.Add(1)
	if f.connectDelay > 0 {
		time.Sleep(f.connectDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		return err
	}
	return nil
}

func (f *fakeSession) Disconnect()          {}
func (f *fakeSession) Events() <-chan Event { return f.events }

func (f *fakeSession) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	f.placeCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.placeErrs) > 0 {
		err := f.placeErrs[0]
		f.placeErrs = f.placeErrs[1:]
		if err != nil {
			return OrderResult{}, err
		}
	}
	if f.rejectMessage != "" {
		return OrderResult{Success: false, Message: f.rejectMessage}, nil
	}
	f.placedOrders = append(f.placedOrders, req)
	return OrderResult{OrderID: fmt.Sprintf("ORD%d", len(f.placedOrders)), Success: true, Message: "已申报"}, nil
}

func (f *fakeSession) PlaceOrderAsync(ctx context.Context, req OrderRequest) (int64, error) {
	return 1, nil
}

func (f *fakeSession) CancelOrder(ctx context.Context, orderID string) (CancelResult, error) {
	return CancelResult{Success: true}, nil
}

func (f *fakeSession) QueryAsset(ctx context.Context) (Asset, error) { return Asset{}, nil }
func (f *fakeSession) QueryOrder(ctx context.Context, id string) (Order, error) {
	return Order{}, nil
}
func (f *fakeSession) QueryOrders(ctx context.Context) ([]Order, error)       { return nil, nil }
func (f *fakeSession) QueryTrades(ctx context.Context) ([]Trade, error)       { return nil, nil }
func (f *fakeSession) QueryPositions(ctx context.Context) ([]Position, error) { return nil, nil }

func connectedTrader(t *testing.T, s Session) *Trader {
	t.Helper()
	tr := NewTrader(s, false, 100)
	require.NoError(t, tr.Connect(context.Background()))
	return tr
}

func TestPlaceOrderValidation(t *testing.T) {
	s := newFakeSession()
	tr := connectedTrader(t, s)
	ctx := context.Background()

	res := tr.PlaceOrder(ctx, "sh.600000", 0, 100, DirBuy)
	assert.False(t, res.Success)

	res = tr.PlaceOrder(ctx, "sh.600000", 10.5, 150, DirBuy)
	assert.False(t, res.Success)

	res = tr.PlaceOrder(ctx, "sh.600000", 10.5, -100, DirBuy)
	assert.False(t, res.Success)

	// 校验失败不应触碰会话
	assert.EqualValues(t, 0, s.placeCalls.Load())

	res = tr.PlaceOrder(ctx, "sh.600000", 10.5, 200, DirBuy)
	assert.True(t, res.Success)
	assert.EqualValues(t, 1, s.placeCalls.Load())
}

func TestPlaceOrderRetriesOnceOnTransportFault(t *testing.T) {
	s := newFakeSession()
	s.placeErrs = []error{errors.New("connection reset")}
	tr := connectedTrader(t, s)

	res := tr.PlaceOrder(context.Background(), "sh.600000", 10.5, 200, DirBuy)
	assert.True(t, res.Success)
	// 首次失败 + 重连后重试一次
	assert.EqualValues(t, 2, s.placeCalls.Load())
	assert.EqualValues(t, 2, s.connectCalls.Load()) // 初始连接 + 重连
}

func TestPlaceOrderRejectionNotRetried(t *testing.T) {
	s := newFakeSession()
	s.rejectMessage = "资金不足"
	tr := connectedTrader(t, s)

	res := tr.PlaceOrder(context.Background(), "sh.600000", 10.5, 200, DirBuy)
	assert.False(t, res.Success)
	assert.Equal(t, "资金不足", res.Message)
	// 柜台拒绝绝不自动重试
	assert.EqualValues(t, 1, s.placeCalls.Load())
}

func TestCheckConnectionReconnects(t *testing.T) {
	s := newFakeSession()
	tr := NewTrader(s, false, 100)

	assert.True(t, tr.CheckConnection(context.Background()))
	assert.True(t, tr.State().Connected)

	s.mu.Lock()
	s.connectErrs = []error{errors.New("gateway down")}
	s.mu.Unlock()
	tr.setState(stateDisconnected)
	assert.False(t, tr.CheckConnection(context.Background()))
	assert.False(t, tr.State().Connected)
}

func TestReconnectSerialized(t *testing.T) {
	s := newFakeSession()
	s.connectDelay = 50 * time.Millisecond
	tr := NewTrader(s, false, 100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, tr.CheckConnection(context.Background()))
		}()
	}
	wg.Wait()
	// singleflight：8 个并发调用共享同一次连接尝试
	assert.EqualValues(t, 1, s.connectCalls.Load())
}

func TestFailedConnectLeavesDisconnected(t *testing.T) {
	s := newFakeSession()
	s.connectErrs = []error{errors.New("refused")}
	tr := NewTrader(s, false, 100)

	err := tr.Connect(context.Background())
	assert.Error(t, err)
	assert.False(t, tr.State().Connected)
}

func TestEventPumpStartsAfterReconnect(t *testing.T) {
	s := newFakeSession()
	s.connectErrs = []error{errors.New("refused")}
	tr := NewTrader(s, false, 100)

	// 启动连接失败被上层容忍，会话随后经 CheckConnection 建立
	require.Error(t, tr.Connect(context.Background()))
	require.True(t, tr.CheckConnection(context.Background()))

	// 这条路径建立的会话同样要转发主推，断线通知要翻转状态
	s.events <- Event{Type: EventDisconnect, Message: "feed lost", At: time.Now()}
	select {
	case ev := <-tr.Events():
		assert.Equal(t, EventDisconnect, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("会话主推未被转发")
	}
	assert.False(t, tr.State().Connected)
}

func TestConnectedGaugeTracksState(t *testing.T) {
	s := newFakeSession()
	tr := NewTrader(s, false, 100)

	require.NoError(t, tr.Connect(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Connected))

	tr.Disconnect()
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Connected))

	s.mu.Lock()
	s.connectErrs = []error{errors.New("gateway down")}
	s.mu.Unlock()
	assert.False(t, tr.CheckConnection(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Connected))
}
