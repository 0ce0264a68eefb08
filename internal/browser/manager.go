// File: internal/browser/manager.go

// Package browser drives headless Chrome sessions through the DevTools
// protocol.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/browser/stealth"
	"github.com/xkilldash9x/stockwatch-cli/internal/config"
	"github.com/xkilldash9x/stockwatch-cli/internal/proxy"
)

// Manager handles the browser process lifecycle and session creation.
// Each session gets its own allocator so a fresh proxy and persona can
// be applied per launch.
type Manager struct {
	cfg     *config.Config
	proxies *proxy.Pool
	rng     *rand.Rand
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a new browser manager. Browser processes launch
// lazily, one per acquired session.
func NewManager(cfg *config.Config, proxies *proxy.Pool, rng *rand.Rand, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		proxies:  proxies,
		rng:      rng,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
}

// Acquire launches a new browser process and wraps it in a session. A
// launch failure is returned to the caller; a monitoring cycle cannot
// proceed without a browser.
func (m *Manager) Acquire(ctx context.Context) (schemas.BrowsingSession, error) {
	persona := stealth.RandomPersona(m.rng)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("disable-gpu", m.cfg.Browser.DisableGPU),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(persona.Width, persona.Height),
		chromedp.UserAgent(persona.UserAgent),
	)
	for _, arg := range m.cfg.Browser.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	var picked proxy.Descriptor
	if d, ok := m.proxies.Pick(); ok {
		picked = d
		opts = append(opts, chromedp.ProxyServer(d.URL()))
		m.logger.Info("Session will route through proxy", zap.String("proxy", d.Masked()))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Starting the browser eagerly surfaces launch failures here instead
	// of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	session := newSession(m.cfg, persona, picked, browserCtx, func() {
		browserCancel()
		allocCancel()
	}, m.logger)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("Browser session started",
		zap.String("session_id", session.ID()),
		zap.String("user_agent", persona.UserAgent))
	return session, nil
}

// Release closes the given session and forgets it.
func (m *Manager) Release(ctx context.Context, s schemas.BrowsingSession) {
	if s == nil {
		return
	}
	m.mu.Lock()
	delete(m.sessions, s.ID())
	m.mu.Unlock()

	if err := s.Close(ctx); err != nil {
		m.logger.Warn("Error closing browser session",
			zap.String("session_id", s.ID()), zap.Error(err))
	}
}

// Shutdown closes every session still registered.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Error during shutdown close",
				zap.String("session_id", s.ID()), zap.Error(err))
		}
	}
	m.logger.Info("Browser manager shutdown complete")
}
