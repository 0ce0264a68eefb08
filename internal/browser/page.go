// File: internal/browser/page.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/config"
)

// cdpExecutor binds a raw cdproto command to the tab's target executor.
func cdpExecutor(ctx context.Context, c *chromedp.Context) context.Context {
	return cdp.WithExecutor(ctx, c.Target)
}

// Page is a single browser tab.
type Page struct {
	ctx    context.Context
	cancel func()
	cfg    *config.Config
	logger *zap.Logger

	closeOnce sync.Once
}

var _ schemas.Page = (*Page)(nil)

func newPage(tabCtx context.Context, cancel func(), cfg *config.Config, logger *zap.Logger) *Page {
	return &Page{
		ctx:    tabCtx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("page"),
	}
}

// run executes chromedp actions against this tab, honoring both the
// tab's lifetime and the caller's context.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(p.ctx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Navigate loads the URL and waits for the document body to be ready.
func (p *Page) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.cfg.Network.NavigationTimeout)
	defer cancel()

	p.logger.Debug("Navigating", zap.String("url", url))
	if err := p.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// WaitVisible waits up to timeout for the selector to become visible.
// Absence is reported, not an error.
func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	return err == nil
}

// Click clicks the first node matching the selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// SendKeys types text into the first node matching the selector.
func (p *Page) SendKeys(ctx context.Context, selector, text string) error {
	return p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// Evaluate runs a JavaScript expression and unmarshals the result.
func (p *Page) Evaluate(ctx context.Context, expr string, res any) error {
	if res == nil {
		return p.run(ctx, chromedp.Evaluate(expr, nil))
	}
	return p.run(ctx, chromedp.Evaluate(expr, res))
}

// ScrollBy scrolls the window vertically by deltaY pixels.
func (p *Page) ScrollBy(ctx context.Context, deltaY int) error {
	expr := fmt.Sprintf("window.scrollBy(0, %d)", deltaY)
	return p.run(ctx, chromedp.Evaluate(expr, nil))
}

// Screenshot captures the current viewport as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		// Clip to the configured viewport so captures stay a uniform size
		// regardless of document height.
		clip := &cdppage.Viewport{
			X:      0,
			Y:      0,
			Width:  float64(p.cfg.Browser.ViewportWidth),
			Height: float64(p.cfg.Browser.ViewportHeight),
			Scale:  1,
		}
		data, err := cdppage.CaptureScreenshot().
			WithFormat(cdppage.CaptureScreenshotFormatPng).
			WithClip(clip).
			Do(cctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// HTML returns the full serialized document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading document html: %w", err)
	}
	return html, nil
}

// Close closes the tab. Idempotent.
func (p *Page) Close(ctx context.Context) error {
	p.closeOnce.Do(p.cancel)
	return nil
}
