// Package ledger 持久化已生成的建仓计划，只追加、按时间序标识。
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pyramid/internal/strategy"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound 表示指定 ID 的记录不存在。
var ErrNotFound = errors.New("ledger record not found")

const idSaveRetries = 5

// Store 基于 SQLite 的计划台账。写入经由单个 SQLite 连接串行化，
// 并发 Save 不会互相覆盖。
type Store struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewStore 打开（必要时创建）台账数据库。
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ledger 路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&planRecordModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db, nowFn: time.Now}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save 追加一条计划记录并返回生成的记录 ID。
// ID 取当前时间的微秒级渲染（20060102150405 + 6 位微秒），同库唯一且可排序；
// 高频并发下撞号时按下一微秒重试，而不是覆盖已有记录。
func (s *Store) Save(ctx context.Context, plan strategy.OrderPlan) (string, error) {
	payload, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("序列化计划失败: %w", err)
	}
	now := s.nowFn()
	for i := 0; i < idSaveRetries; i++ {
		id := recordID(now)
		rec := planRecordModel{
			ID:          id,
			CreatedAt:   now,
			Stock:       plan.Code,
			TotalAmount: plan.TotalAmount,
			Data:        payload,
		}
		err := s.db.WithContext(ctx).Create(&rec).Error
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("写入台账失败: %w", err)
		}
		now = now.Add(time.Microsecond)
	}
	return "", fmt.Errorf("生成台账 ID 失败：连续 %d 次撞号", idSaveRetries)
}

func recordID(t time.Time) string {
	return t.Format("20060102150405") + fmt.Sprintf("%06d", t.Nanosecond()/1000)
}

// LoadAll 返回全部记录，按 ID（即时间）升序。
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	var models []planRecordModel
	if err := s.db.WithContext(ctx).Order("id asc").Find(&models).Error; err != nil {
		return nil, err
	}
	return toRecords(models)
}

// GetByID 按记录 ID 查找。
func (s *Store) GetByID(ctx context.Context, id string) (Record, error) {
	var m planRecordModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return toRecord(m)
}

// GetByStock 返回某只股票的全部记录，按时间升序。
func (s *Store) GetByStock(ctx context.Context, code string) ([]Record, error) {
	var models []planRecordModel
	if err := s.db.WithContext(ctx).Where("stock = ?", code).Order("id asc").Find(&models).Error; err != nil {
		return nil, err
	}
	return toRecords(models)
}

// GetRecent 返回最近 n 条记录，按时间倒序。
func (s *Store) GetRecent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		n = 10
	}
	var models []planRecordModel
	if err := s.db.WithContext(ctx).Order("id desc").Limit(n).Find(&models).Error; err != nil {
		return nil, err
	}
	return toRecords(models)
}

// Delete 删除指定记录；不存在时返回 ErrNotFound，其余记录不受影响。
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&planRecordModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStatistics 汇总台账：记录数、股票数、总金额、首末记录时间。
func (s *Store) GetStatistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	row := s.db.WithContext(ctx).Model(&planRecordModel{}).
		Select("COUNT(*), COUNT(DISTINCT stock), COALESCE(SUM(total_amount), 0), MIN(created_at), MAX(created_at)").
		Row()
	var first, last *time.Time
	if err := row.Scan(&stats.TotalOrders, &stats.TotalStocks, &stats.TotalAmount, &first, &last); err != nil {
		return Statistics{}, err
	}
	stats.FirstOrderAt = first
	stats.LastOrderAt = last
	return stats, nil
}

func toRecord(m planRecordModel) (Record, error) {
	var plan strategy.OrderPlan
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &plan); err != nil {
			return Record{}, fmt.Errorf("解析记录 %s 失败: %w", m.ID, err)
		}
	}
	return Record{ID: m.ID, Timestamp: m.CreatedAt, Plan: plan}, nil
}

func toRecords(models []planRecordModel) ([]Record, error) {
	out := make([]Record, 0, len(models))
	for _, m := range models {
		rec, err := toRecord(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
