package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"pyramid/internal/logger"

	"github.com/tidwall/gjson"
)

const dateLayout = "2006-01-02"

// Client 基于行情网关的 REST 接口实现 Source。
// 网关返回 {"error_code":"0","data":[{date,open,high,low,close,preclose,volume,amount,pctChg},...]}。
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient 构造行情客户端。
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return nil, fmt.Errorf("market.base_url 不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("解析 market.base_url 失败: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient 替换底层 HTTP 客户端（测试用）。
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// DailyBars 拉取 [start, end] 区间的日线。
// 单行字段缺失或无法解析时跳过该行并告警，不影响其余行。
func (c *Client) DailyBars(ctx context.Context, code string, start, end time.Time) ([]Bar, error) {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/history_k_data"
	q := endpoint.Query()
	q.Set("code", code)
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("frequency", "d")
	q.Set("adjustflag", "3")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求行情网关失败: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("行情网关返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if ec := gjson.GetBytes(body, "error_code"); ec.Exists() && ec.String() != "0" {
		return nil, fmt.Errorf("行情网关错误 %s: %s", ec.String(), gjson.GetBytes(body, "error_msg").String())
	}

	var bars []Bar
	skipped := 0
	gjson.GetBytes(body, "data").ForEach(func(_, row gjson.Result) bool {
		bar, ok := parseBar(row)
		if !ok {
			skipped++
			return true
		}
		bars = append(bars, bar)
		return true
	})
	if skipped > 0 {
		logger.Warnf("market: %s 跳过 %d 行无效日线", code, skipped)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func parseBar(row gjson.Result) (Bar, bool) {
	date, err := time.ParseInLocation(dateLayout, row.Get("date").String(), time.Local)
	if err != nil {
		return Bar{}, false
	}
	fields := []string{"open", "high", "low", "close", "pctChg"}
	vals := make(map[string]float64, len(fields))
	for _, f := range fields {
		v := row.Get(f)
		if !v.Exists() || v.String() == "" {
			return Bar{}, false
		}
		vals[f] = v.Float()
	}
	if vals["high"] <= 0 || vals["low"] <= 0 {
		return Bar{}, false
	}
	return Bar{
		Date:     date,
		Open:     vals["open"],
		High:     vals["high"],
		Low:      vals["low"],
		Close:    vals["close"],
		PreClose: row.Get("preclose").Float(),
		Volume:   row.Get("volume").Float(),
		Amount:   row.Get("amount").Float(),
		PctChg:   vals["pctChg"],
	}, true
}
