// File: internal/dashboard/dashboard_test.go
package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

func newWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return w
}

func TestUpdatePreservesNotifications(t *testing.T) {
	w := newWriter(t)

	require.NoError(t, w.AddNotification("Available", "Linen blazer in M"))
	require.NoError(t, w.Update("running", []schemas.ProductStatus{{
		Name: "Linen blazer", Shop: "zara", Available: true, Price: 1499,
	}}))

	snap := w.load()
	assert.Equal(t, "running", snap.BotStatus)
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "Linen blazer", snap.Products[0].Name)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "Available", snap.Notifications[0].Title)
	assert.False(t, snap.LastCheck.IsZero())
}

func TestAddNotificationCapAndOrder(t *testing.T) {
	w := newWriter(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	w.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Second)
	}

	for n := 0; n < schemas.MaxWebNotifications+5; n++ {
		require.NoError(t, w.AddNotification(fmt.Sprintf("title-%d", n), "msg"))
	}

	snap := w.load()
	require.Len(t, snap.Notifications, schemas.MaxWebNotifications)
	assert.Equal(t, "title-24", snap.Notifications[0].Title, "newest first")
	assert.Equal(t, "title-5", snap.Notifications[len(snap.Notifications)-1].Title)
}

func TestCorruptStatusFileStartsFresh(t *testing.T) {
	w := newWriter(t)
	require.NoError(t, os.WriteFile(w.statusPath(), []byte("{not json"), 0o644))

	require.NoError(t, w.Update("running", nil))
	snap := w.load()
	assert.Equal(t, "running", snap.BotStatus)
}

func TestCopyScreenshots(t *testing.T) {
	w := newWriter(t)
	srcDir := t.TempDir()

	var paths []string
	for _, name := range []string{"a.png", "b.png"} {
		p := filepath.Join(srcDir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
		paths = append(paths, p)
	}
	// A stale file from a previous cycle should disappear.
	webDir := filepath.Join(w.dir, "screenshots")
	require.NoError(t, os.MkdirAll(webDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "stale.png"), []byte("x"), 0o644))

	require.NoError(t, w.CopyScreenshots(paths))

	entries, err := os.ReadDir(webDir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.ElementsMatch(t, []string{"a.png", "b.png"}, names)
}
