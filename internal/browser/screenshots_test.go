// File: internal/browser/screenshots_test.go
package browser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStoreSaveNaming(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	path := store.Save("error", "Linen Blazer / M", []byte("png-bytes"))
	assert.Equal(t, filepath.Join(dir, "error-linen-blazer-m-20260314-092653.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestStoreNewest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	for i, name := range []string{"a.png", "b.png", "c.png", "skip.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		mod := time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	newest := store.Newest(2)
	require.Len(t, newest, 2)
	assert.Equal(t, filepath.Join(dir, "c.png"), newest[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), newest[1])
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "linen-blazer", slugify("Linen  Blazer"))
	assert.Equal(t, "coat-p123", slugify("/coat-p123!!"))
	assert.Equal(t, "page", slugify("???"))
}
