package calendar

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"pyramid/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// holidayFile 是节假日表的文件格式。
// workdays 用于调休补班的周末（算作交易日）。
type holidayFile struct {
	Holidays []string `yaml:"holidays"`
	Workdays []string `yaml:"workdays"`
}

// CN 是 A 股交易日历：周一至周五，剔除节假日表中的休市日。
// 节假日表缺失或未覆盖查询年份时退化为仅按星期判断，并以 Authoritative=false 标示。
type CN struct {
	mu       sync.RWMutex
	holidays map[string]bool
	workdays map[string]bool
	years    map[int]bool
	path     string

	degradedOnce sync.Once
}

// NewCN 构造日历。path 为空时直接使用周一至周五近似。
func NewCN(path string) (*CN, error) {
	c := &CN{
		holidays: map[string]bool{},
		workdays: map[string]bool{},
		years:    map[int]bool{},
		path:     path,
	}
	if path != "" {
		if err := c.reload(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *CN) reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("读取节假日表失败: %w", err)
	}
	var f holidayFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("解析节假日表失败: %w", err)
	}
	holidays := make(map[string]bool, len(f.Holidays))
	workdays := make(map[string]bool, len(f.Workdays))
	years := map[int]bool{}
	for _, d := range f.Holidays {
		t, err := time.ParseInLocation(dateLayout, d, time.Local)
		if err != nil {
			return fmt.Errorf("节假日表中的日期非法: %q", d)
		}
		holidays[d] = true
		years[t.Year()] = true
	}
	for _, d := range f.Workdays {
		if _, err := time.ParseInLocation(dateLayout, d, time.Local); err != nil {
			return fmt.Errorf("节假日表中的日期非法: %q", d)
		}
		workdays[d] = true
	}
	c.mu.Lock()
	c.holidays = holidays
	c.workdays = workdays
	c.years = years
	c.mu.Unlock()
	logger.Infof("calendar: 节假日表已加载 holidays=%d workdays=%d", len(holidays), len(workdays))
	return nil
}

// Watch 监听节假日表文件变更并热加载，ctx 取消后退出。
func (c *CN) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.path); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := c.reload(); err != nil {
					logger.Warnf("calendar: 热加载节假日表失败: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("calendar: 文件监听错误: %v", err)
			}
		}
	}()
	return nil
}

func (c *CN) covered(year int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.years[year]
}

func (c *CN) markDegraded() {
	c.degradedOnce.Do(func() {
		logger.Warnf("calendar: 节假日表缺失或未覆盖查询年份，退化为仅按周一至周五判断交易日")
	})
}

func (c *CN) IsTradingDay(t time.Time) bool {
	key := t.Format(dateLayout)
	weekday := t.Weekday()
	if !c.covered(t.Year()) {
		c.markDegraded()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.workdays[key] {
		return true
	}
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	return !c.holidays[key]
}

func (c *CN) OpenTime(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 9, 30, 0, 0, d.Location())
}

func (c *CN) CloseTime(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 15, 0, 0, 0, d.Location())
}

func (c *CN) IsTradingTime(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	y, m, d := t.Date()
	at := func(h, min int) time.Time { return time.Date(y, m, d, h, min, 0, 0, t.Location()) }
	morning := !t.Before(at(9, 30)) && !t.After(at(11, 30))
	afternoon := !t.Before(at(13, 0)) && !t.After(at(15, 0))
	return morning || afternoon
}

func (c *CN) NextTradingDay(d time.Time) time.Time {
	y, m, day := d.Date()
	next := time.Date(y, m, day, 0, 0, 0, 0, d.Location())
	for i := 0; i < 370; i++ {
		next = next.AddDate(0, 0, 1)
		if c.IsTradingDay(next) {
			return next
		}
	}
	return next
}

// Authoritative 报告当前年份是否被节假日表覆盖。
func (c *CN) Authoritative() bool {
	return c.covered(time.Now().Year())
}

var _ Calendar = (*CN)(nil)
