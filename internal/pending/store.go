// Package pending 负责未成交委托的落盘与次日重新申报。
package pending

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pyramid/internal/executor"
)

// Snapshot 是落盘文件的全部内容，每次保存整体覆盖。
type Snapshot struct {
	SaveTime time.Time             `json:"save_time"`
	Orders   []executor.BatchOrder `json:"orders"`
}

// Store 把未成交委托保存为单个 JSON 文件。写入走临时文件加改名，
// 避免进程中途退出留下半截文件。
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save 整体覆盖落盘文件。
func (s *Store) Save(orders []executor.BatchOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if orders == nil {
		orders = []executor.BatchOrder{}
	}
	snap := Snapshot{SaveTime: time.Now(), Orders: orders}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化待重报委托失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("创建待重报目录失败: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入待重报文件失败: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("替换待重报文件失败: %w", err)
	}
	return nil
}

// Load 整体读取落盘文件。文件不存在等价于空列表，不是错误。
func (s *Store) Load() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{Orders: []executor.BatchOrder{}}, nil
		}
		return Snapshot{}, fmt.Errorf("读取待重报文件失败: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("解析待重报文件失败: %w", err)
	}
	if snap.Orders == nil {
		snap.Orders = []executor.BatchOrder{}
	}
	return snap, nil
}

// Clear 清空落盘内容（保留文件本身，写入空列表）。
func (s *Store) Clear() error {
	return s.Save(nil)
}
