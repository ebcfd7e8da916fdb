package qmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pyramid/internal/config"
	"pyramid/internal/executor"
	"pyramid/internal/logger"

	"github.com/google/uuid"
)

// Session 通过 QMT 网关的 REST 接口下单查询，通过 WebSocket 接收柜台
// 主推。它只负责传输：连接状态机与重连策略在 executor.Trader 手里。
type Session struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	accountID  string

	feed   *pushFeed
	events chan executor.Event
}

// NewSession 从配置构造实盘会话。
func NewSession(cfg config.TraderConfig) (*Session, error) {
	raw := strings.TrimSpace(cfg.GatewayURL)
	if raw == "" {
		return nil, fmt.Errorf("trader.gateway_url 不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("解析 trader.gateway_url 失败: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	s := &Session{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		token:      strings.TrimSpace(cfg.Token),
		accountID:  strings.TrimSpace(cfg.AccountID),
		events:     make(chan executor.Event, 128),
	}
	if ws := strings.TrimSpace(cfg.WSURL); ws != "" {
		s.feed = newPushFeed(ws, s.token, s.events)
	}
	return s, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (s *Session) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

type connectPayload struct {
	AccountID string `json:"account_id"`
}

type gatewayAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Connect 建立网关会话并订阅回调推送。
func (s *Session) Connect(ctx context.Context) error {
	var ack gatewayAck
	if err := s.doRequest(ctx, http.MethodPost, "/session/connect", connectPayload{AccountID: s.accountID}, &ack); err != nil {
		return err
	}
	if !ack.Success {
		return fmt.Errorf("网关拒绝连接: %s", ack.Message)
	}
	if err := s.doRequest(ctx, http.MethodPost, "/session/subscribe", connectPayload{AccountID: s.accountID}, &ack); err != nil {
		return err
	}
	if !ack.Success {
		return fmt.Errorf("订阅回调失败: %s", ack.Message)
	}
	if s.feed != nil {
		if err := s.feed.start(ctx); err != nil {
			// 推送不可用不阻塞交易，仅失去主动回报
			logger.Warnf("qmt: 推送通道连接失败，退化为仅查询模式: %v", err)
		}
	}
	logger.Infof("qmt: 会话已建立 account=%s", s.accountID)
	return nil
}

// Disconnect 关闭推送通道。REST 侧无需显式断开。
func (s *Session) Disconnect() {
	if s.feed != nil {
		s.feed.stop()
	}
}

// Events 返回柜台主推事件流。
func (s *Session) Events() <-chan executor.Event { return s.events }

type orderPayload struct {
	Stock     string  `json:"stock_code"`
	Price     float64 `json:"price"`
	Volume    int     `json:"volume"`
	Direction string  `json:"direction"`
	RequestID string  `json:"request_id"`
}

type orderAck struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

// PlaceOrder 下一笔限价委托。传输故障以 error 返回；柜台拒绝体现为
// Success=false，调用方据此区分是否可重试。
func (s *Session) PlaceOrder(ctx context.Context, req executor.OrderRequest) (executor.OrderResult, error) {
	payload := orderPayload{
		Stock:     req.Stock,
		Price:     req.Price,
		Volume:    req.Volume,
		Direction: string(req.Direction),
		RequestID: uuid.NewString(),
	}
	var ack orderAck
	if err := s.doRequest(ctx, http.MethodPost, "/order", payload, &ack); err != nil {
		return executor.OrderResult{}, err
	}
	return executor.OrderResult{OrderID: ack.OrderID, Success: ack.Success, Message: ack.Message}, nil
}

type asyncAck struct {
	Success bool   `json:"success"`
	Seq     int64  `json:"seq"`
	Message string `json:"message"`
}

// PlaceOrderAsync 非阻塞下单，委托号经推送回报关联。
func (s *Session) PlaceOrderAsync(ctx context.Context, req executor.OrderRequest) (int64, error) {
	payload := orderPayload{
		Stock:     req.Stock,
		Price:     req.Price,
		Volume:    req.Volume,
		Direction: string(req.Direction),
		RequestID: uuid.NewString(),
	}
	var ack asyncAck
	if err := s.doRequest(ctx, http.MethodPost, "/order/async", payload, &ack); err != nil {
		return 0, err
	}
	if !ack.Success {
		return 0, fmt.Errorf("网关拒绝异步委托: %s", ack.Message)
	}
	return ack.Seq, nil
}

type cancelPayload struct {
	OrderID string `json:"order_id"`
}

// CancelOrder 按委托号撤单。
func (s *Session) CancelOrder(ctx context.Context, orderID string) (executor.CancelResult, error) {
	var ack gatewayAck
	if err := s.doRequest(ctx, http.MethodPost, "/order/cancel", cancelPayload{OrderID: orderID}, &ack); err != nil {
		return executor.CancelResult{}, err
	}
	return executor.CancelResult{Success: ack.Success, Message: ack.Message}, nil
}

func (s *Session) QueryAsset(ctx context.Context) (executor.Asset, error) {
	var out executor.Asset
	if err := s.doRequest(ctx, http.MethodGet, "/asset", nil, &out); err != nil {
		return executor.Asset{}, err
	}
	return out, nil
}

func (s *Session) QueryOrder(ctx context.Context, orderID string) (executor.Order, error) {
	var out executor.Order
	if err := s.doRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return executor.Order{}, err
	}
	return out, nil
}

func (s *Session) QueryOrders(ctx context.Context) ([]executor.Order, error) {
	var out []executor.Order
	if err := s.doRequest(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) QueryTrades(ctx context.Context) ([]executor.Trade, error) {
	var out []executor.Trade
	if err := s.doRequest(ctx, http.MethodGet, "/trades", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) QueryPositions(ctx context.Context) ([]executor.Position, error) {
	var out []executor.Position
	if err := s.doRequest(ctx, http.MethodGet, "/positions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := *s.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用 QMT 网关失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) == 0 {
			return fmt.Errorf("QMT 网关返回错误: %s", resp.Status)
		}
		return fmt.Errorf("QMT 网关返回错误(%s): %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析网关响应失败: %w", err)
	}
	return nil
}

var _ executor.Session = (*Session)(nil)
