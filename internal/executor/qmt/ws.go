package qmt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pyramid/internal/executor"
	"pyramid/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// pushFeed 维护到网关推送端点的 WebSocket 并把帧解码为 executor.Event。
// 读失败时发出一条 disconnect 事件后退出，由 Trader 决定是否重连。
type pushFeed struct {
	wsURL string
	token string
	out   chan<- executor.Event

	mu     sync.Mutex
	conn   *websocket.Conn
	done   chan struct{}
	closed bool
}

func newPushFeed(wsURL, token string, out chan<- executor.Event) *pushFeed {
	return &pushFeed{wsURL: wsURL, token: token, out: out}
}

func (f *pushFeed) start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn != nil {
		return nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	header := map[string][]string{}
	if f.token != "" {
		header["Authorization"] = []string{"Bearer " + f.token}
	}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, header)
	if err != nil {
		return err
	}
	f.conn = conn
	f.closed = false
	f.done = make(chan struct{})

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go f.readLoop(conn)
	go f.pingLoop(conn, f.done)
	return nil
}

func (f *pushFeed) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.conn != nil {
		_ = f.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		_ = f.conn.Close()
		f.conn = nil
	}
	if f.done != nil {
		close(f.done)
	}
}

func (f *pushFeed) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			f.mu.Lock()
			closed := f.closed
			f.conn = nil
			f.mu.Unlock()
			if !closed {
				logger.Warnf("qmt: 推送通道断开: %v", err)
				f.publish(executor.Event{
					Type:    executor.EventDisconnect,
					At:      time.Now(),
					Message: err.Error(),
				})
			}
			return
		}

		var ev executor.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warnf("qmt: 无法解析推送帧: %v", err)
			continue
		}
		if ev.Type == "" {
			continue
		}
		if ev.At.IsZero() {
			ev.At = time.Now()
		}
		f.publish(ev)
	}
}

func (f *pushFeed) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// publish 非阻塞投递，消费不及时直接丢弃。
func (f *pushFeed) publish(ev executor.Event) {
	select {
	case f.out <- ev:
	default:
		logger.Warnf("qmt: 事件通道已满，丢弃 %s", ev.Type)
	}
}
