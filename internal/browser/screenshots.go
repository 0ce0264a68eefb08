// File: internal/browser/screenshots.go
package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store writes page captures to disk with diagnostic names so a failed
// check can be inspected after the fact.
type Store struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates the screenshot directory if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating screenshot dir: %w", err)
	}
	return &Store{dir: dir, logger: logger.Named("screenshots"), now: time.Now}, nil
}

// Save writes a capture under a "<kind>-<slug>-<timestamp>.png" name.
// Kind communicates why the capture was taken: "available", "error",
// "not-product-page", "price-not-found", or plain "check".
func (s *Store) Save(kind, label string, png []byte) string {
	name := fmt.Sprintf("%s-%s-%s.png", kind, slugify(label), s.now().Format("20060102-150405"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		s.logger.Warn("Could not write screenshot", zap.String("path", path), zap.Error(err))
		return ""
	}
	s.logger.Debug("Screenshot saved", zap.String("path", path))
	return path
}

// Newest returns up to n screenshot paths, newest first.
func (s *Store) Newest(n int) []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	type stamped struct {
		path string
		mod  time.Time
	}
	var files []stamped
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, stamped{filepath.Join(s.dir, e.Name()), info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })
	if len(files) > n {
		files = files[:n]
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '/':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	if out == "" {
		out = "page"
	}
	return out
}
