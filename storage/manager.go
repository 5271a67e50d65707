package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"EternalJukebox/config"
	"EternalJukebox/core/alert"
	"EternalJukebox/logger"

	"github.com/dustin/go-humanize"
)

// Thresholds in bytes. Eviction starts above Size and stops at or below
// Buffer; Emergency only raises an alert.
type Thresholds struct {
	Size      int64
	Buffer    int64
	Emergency int64
}

// Manager keeps the three namespaces within the configured budget by
// deleting the least recently modified files first, across all namespaces.
type Manager struct {
	layout     *Layout
	thresholds Thresholds
	alerter    alert.Notifier

	mu sync.Mutex // one reclaim pass at a time
}

// NewManager 创建存储管理器，alerter 可为 nil
func NewManager(layout *Layout, thresholds Thresholds, alerter alert.Notifier) *Manager {
	return &Manager{
		layout:     layout,
		thresholds: thresholds,
		alerter:    alerter,
	}
}

// ThresholdsFromConfig 从配置读取存储阈值
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		Size:      cfg.StorageSize,
		Buffer:    cfg.StorageBuffer,
		Emergency: cfg.StorageEmergency,
	}
}

// Layout returns the namespace layout the manager works on.
func (m *Manager) Layout() *Layout {
	return m.layout
}

type cachedFile struct {
	path      string
	namespace Namespace
	size      int64
	modTime   time.Time
}

// Usage summarizes the bytes held by each namespace.
type Usage struct {
	Files       int
	Bytes       int64
	ByNamespace map[Namespace]int64
}

// Usage walks the namespaces and totals their sizes.
func (m *Manager) Usage() Usage {
	files := m.enumerate()
	u := Usage{Files: len(files), ByNamespace: make(map[Namespace]int64)}
	for _, f := range files {
		u.Bytes += f.size
		u.ByNamespace[f.namespace] += f.size
	}
	return u
}

// Reclaim runs one eviction pass. It never fails: I/O problems are logged
// and the offending file is skipped.
func (m *Manager) Reclaim(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.reclaim(ctx)
	if r.deleted > 0 {
		logger.Info("[Storage] 清理完成",
			logger.Int("deleted", r.deleted),
			logger.String("before", humanize.IBytes(uint64(r.before))),
			logger.String("after", humanize.IBytes(uint64(r.after))))
	}
}

type reclaimReport struct {
	before  int64
	after   int64
	deleted int
}

func (m *Manager) reclaim(ctx context.Context) reclaimReport {
	files := m.enumerate()
	// 按修改时间从旧到新，求和与删除共用同一顺序
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	var total int64
	for _, f := range files {
		total += f.size
	}
	report := reclaimReport{before: total, after: total}

	if total > m.thresholds.Emergency {
		logger.Warn("[Storage] 存储用量超过紧急阈值",
			logger.Int64("used", total),
			logger.Int64("emergency", m.thresholds.Emergency))
		if m.alerter != nil {
			m.alerter.Alert(ctx, alert.TitleEmergencyStorage,
				fmt.Sprintf("EternalJukebox has %d B used (%s)", total, humanize.IBytes(uint64(total))))
		}
	}

	if total <= m.thresholds.Size {
		return report
	}

	for _, f := range files {
		if total <= m.thresholds.Buffer {
			break
		}
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			logger.Error("[Storage] 删除缓存文件失败",
				logger.String("path", f.path),
				logger.ErrorField(err))
			continue
		}
		total -= f.size
		report.deleted++
		logger.Debug("[Storage] 已删除缓存文件",
			logger.String("path", f.path),
			logger.String("namespace", string(f.namespace)),
			logger.Int64("remaining", total))
	}
	report.after = total
	return report
}

func (m *Manager) enumerate() []cachedFile {
	var files []cachedFile
	for _, ns := range Namespaces() {
		dir := m.layout.Dir(ns)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("[Storage] 读取缓存目录失败",
					logger.String("dir", dir),
					logger.ErrorField(err))
			}
			continue
		}
		for _, e := range entries {
			// 点开头的是正在写入的临时文件
			if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				// 文件可能已被并发删除
				continue
			}
			files = append(files, cachedFile{
				path:      filepath.Join(dir, e.Name()),
				namespace: ns,
				size:      info.Size(),
				modTime:   info.ModTime(),
			})
		}
	}
	return files
}
