// File: internal/browser/session.go
package browser

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/browser/stealth"
	"github.com/xkilldash9x/stockwatch-cli/internal/config"
	"github.com/xkilldash9x/stockwatch-cli/internal/proxy"
)

// Session wraps one browser process. Pages are tabs created inside it.
type Session struct {
	id      string
	cfg     *config.Config
	persona stealth.Persona
	proxy   proxy.Descriptor
	ctx     context.Context
	cancel  func()
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ schemas.BrowsingSession = (*Session)(nil)

func newSession(cfg *config.Config, persona stealth.Persona, pd proxy.Descriptor, browserCtx context.Context, cancel func(), logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		cfg:     cfg,
		persona: persona,
		proxy:   pd,
		ctx:     browserCtx,
		cancel:  cancel,
		logger:  logger.Named("session").With(zap.String("session_id", id)),
	}
}

// ID returns the stable session identifier.
func (s *Session) ID() string { return s.id }

// NewPage opens a new tab with the stealth persona applied and proxy
// authentication wired up.
func (s *Session) NewPage(ctx context.Context) (schemas.Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.ctx)

	if s.proxy.HasAuth() {
		s.installProxyAuth(tabCtx)
	}

	tasks := stealth.Apply(s.persona, s.logger)
	if s.proxy.HasAuth() {
		tasks = append(chromedp.Tasks{fetch.Enable().WithHandleAuthRequests(true)}, tasks...)
	}
	if err := chromedp.Run(tabCtx, tasks); err != nil {
		tabCancel()
		return nil, err
	}

	return newPage(tabCtx, tabCancel, s.cfg, s.logger), nil
}

// installProxyAuth answers upstream proxy auth challenges with the
// session's proxy credentials and lets every other request through.
func (s *Session) installProxyAuth(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventAuthRequired:
			go func() {
				exec := chromedp.FromContext(tabCtx)
				execCtx := cdpExecutor(tabCtx, exec)
				resp := &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: s.proxy.Username,
					Password: s.proxy.Password,
				}
				if err := fetch.ContinueWithAuth(e.RequestID, resp).Do(execCtx); err != nil {
					s.logger.Warn("Proxy auth response failed", zap.Error(err))
				}
			}()
		case *fetch.EventRequestPaused:
			go func() {
				exec := chromedp.FromContext(tabCtx)
				execCtx := cdpExecutor(tabCtx, exec)
				if err := fetch.ContinueRequest(e.RequestID).Do(execCtx); err != nil {
					s.logger.Debug("Continue request failed", zap.Error(err))
				}
			}()
		}
	})
}

// Close shuts down the browser process. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session")
		s.cancel()
	})
	return s.closeErr
}
