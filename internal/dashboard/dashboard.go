// File: internal/dashboard/dashboard.go

// Package dashboard maintains the static status document and screenshot
// gallery a web frontend serves as-is.
package dashboard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Writer owns the dashboard directory. All mutations go through a
// read-modify-write of status.json so the notification feed survives
// status updates.
type Writer struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dashboard dir: %w", err)
	}
	return &Writer{dir: dir, logger: logger.Named("dashboard"), now: time.Now}, nil
}

func (w *Writer) statusPath() string {
	return filepath.Join(w.dir, "status.json")
}

// load reads the current snapshot; a missing or corrupt file yields an
// empty one rather than an error.
func (w *Writer) load() schemas.StatusSnapshot {
	var snap schemas.StatusSnapshot
	data, err := os.ReadFile(w.statusPath())
	if err != nil {
		return snap
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		w.logger.Warn("Corrupt status file, starting fresh", zap.Error(err))
		return schemas.StatusSnapshot{}
	}
	return snap
}

func (w *Writer) store(snap schemas.StatusSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	if err := os.WriteFile(w.statusPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	return nil
}

// Update replaces the product list and status line while preserving the
// notification feed.
func (w *Writer) Update(botStatus string, products []schemas.ProductStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.load()
	snap.LastCheck = w.now()
	snap.BotStatus = botStatus
	snap.Products = products
	if err := w.store(snap); err != nil {
		return err
	}
	w.logger.Info("Web dashboard status updated")
	return nil
}

// AddNotification prepends an entry to the feed, keeping the newest
// schemas.MaxWebNotifications.
func (w *Writer) AddNotification(title, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.load()
	entry := schemas.WebNotification{
		ID:        w.now().UnixMilli(),
		Title:     title,
		Message:   message,
		Timestamp: w.now(),
	}
	snap.Notifications = append([]schemas.WebNotification{entry}, snap.Notifications...)
	if len(snap.Notifications) > schemas.MaxWebNotifications {
		snap.Notifications = snap.Notifications[:schemas.MaxWebNotifications]
	}
	if err := w.store(snap); err != nil {
		return err
	}
	w.logger.Info("Web notification added", zap.String("title", title))
	return nil
}

// CopyScreenshots mirrors the given captures into the dashboard's
// screenshots directory, replacing whatever was there.
func (w *Writer) CopyScreenshots(paths []string) error {
	dst := filepath.Join(w.dir, "screenshots")
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clearing web screenshots: %w", err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("creating web screenshots dir: %w", err)
	}
	for _, src := range paths {
		if err := copyFile(src, filepath.Join(dst, filepath.Base(src))); err != nil {
			w.logger.Warn("Could not copy screenshot", zap.String("src", src), zap.Error(err))
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
