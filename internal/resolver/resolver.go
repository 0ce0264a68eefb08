// File: internal/resolver/resolver.go

// Package resolver runs one availability check end to end: drive the
// page, capture it, and reconcile the vision and heuristic readings
// into a single verdict.
package resolver

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/config"
	"github.com/xkilldash9x/stockwatch-cli/internal/heuristic"
	"github.com/xkilldash9x/stockwatch-cli/internal/vision"
)

// productPageMarkers recognize a correctly loaded product page. Missing
// all of them means a redirect, captcha or error page.
var productPageMarkers = []string{
	".product-detail-view__main-info",
	".product-info",
	".bs-detail-content",
	".product-detail-size-selector-std__wrapper",
	".new-size-selector",
	".product-detail-view_main-content",
	".product-detail-view-std",
}

// addToCartNudgeJS clicks the bare add button when the size panel is
// collapsed behind it, so sizes are rendered before the capture. The
// cart link check avoids re-adding an item already in the cart.
const addToCartNudgeJS = `(() => {
	if (document.querySelector('a[data-qa-action="nav-to-cart"]')) return false;
	const buttons = Array.from(document.querySelectorAll('button, .zds-button'));
	const add = buttons.find(b => {
		const t = b.textContent.trim().toUpperCase();
		return t === 'ДОДАТИ' || t === 'ADD' || t === 'ADD TO CART';
	});
	if (add) { add.click(); return true; }
	return false;
})()`

// ScreenshotSaver persists page captures for diagnostics.
type ScreenshotSaver interface {
	Save(kind, label string, png []byte) string
}

// ConsentFunc dismisses a cookie banner if one shows up.
type ConsentFunc func(ctx context.Context, page schemas.Page, shop schemas.ShopProfile, timeout time.Duration, logger *zap.Logger)

// AuthFunc signs in to the shop and reports whether an authenticated
// state was reached.
type AuthFunc func(ctx context.Context, page schemas.Page, shop schemas.ShopProfile, logger *zap.Logger) bool

// Checker resolves availability for one monitored item at a time.
type Checker struct {
	cfg       *config.Config
	analyzer  vision.Analyzer
	extractor *heuristic.Extractor
	shots     ScreenshotSaver
	consent   ConsentFunc
	auth      AuthFunc
	logger    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	// sleep is replaceable in tests.
	sleep func(context.Context, time.Duration)
}

// NewChecker wires the checker. consent may be nil to skip banner
// handling, auth may be nil to always browse anonymously, and shots may
// be nil to skip captures.
func NewChecker(cfg *config.Config, analyzer vision.Analyzer, shots ScreenshotSaver, consent ConsentFunc, auth AuthFunc, rng *rand.Rand, logger *zap.Logger) *Checker {
	return &Checker{
		cfg:       cfg,
		analyzer:  analyzer,
		extractor: heuristic.NewExtractor(logger),
		shots:     shots,
		consent:   consent,
		auth:      auth,
		rng:       rng,
		logger:    logger.Named("resolver"),
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func failed(reason string) schemas.Verdict {
	return schemas.Verdict{Reason: reason, Source: schemas.SourceNone, CheckedAt: time.Now()}
}

// Check performs one full availability check. It always returns a
// verdict; failures are encoded in Reason rather than surfaced as
// errors, so a broken page never aborts the cycle.
func (c *Checker) Check(ctx context.Context, session schemas.BrowsingSession, item schemas.MonitoredItem, shop schemas.ShopProfile) schemas.Verdict {
	log := c.logger.With(zap.String("item", item.Name), zap.String("shop", shop.Name))

	page, err := session.NewPage(ctx)
	if err != nil {
		log.Error("Could not open page", zap.Error(err))
		return failed(err.Error())
	}
	defer page.Close(ctx)

	// Sign in first when the shop has credentials; checks still work
	// anonymously, so a failed login is not fatal.
	if c.auth != nil && shop.Credentials != nil {
		if !c.auth(ctx, page, shop, log) {
			log.Warn("Continuing without authentication")
		}
	}

	url := item.ProductURL(shop)
	log.Info("Checking product", zap.String("url", url))
	if err := page.Navigate(ctx, url); err != nil {
		log.Warn("Navigation failed", zap.Error(err))
		c.capture(ctx, page, "error", item.Name)
		return failed(err.Error())
	}

	// Settle like a human would before touching anything.
	c.sleep(ctx, c.settleDelay())

	if c.consent != nil {
		c.consent(ctx, page, shop, c.cfg.Network.ConsentTimeout, log)
	}

	// Light scrolling triggers lazy-loaded content.
	_ = page.ScrollBy(ctx, 300)
	c.sleep(ctx, 500*time.Millisecond)
	_ = page.ScrollBy(ctx, 300)

	// Collapsed size panels hide behind the add button.
	var nudged bool
	if err := page.Evaluate(ctx, addToCartNudgeJS, &nudged); err == nil && nudged {
		log.Debug("Clicked add button to reveal size panel")
		c.sleep(ctx, 2*time.Second)
	}

	if !c.isProductPage(ctx, page) {
		log.Warn("Product page not recognized")
		c.capture(ctx, page, "not-product-page", item.Name)
		return failed("Product page not recognized")
	}

	png, shotErr := page.Screenshot(ctx)
	if shotErr != nil {
		log.Warn("Screenshot capture failed", zap.Error(shotErr))
	}

	html, htmlErr := page.HTML(ctx)

	// Both sources always run so their readings can be compared in the
	// logs even when one of them decides the verdict.
	heuristicVerdict := c.runHeuristic(ctx, page, html, htmlErr, item, log)
	visionVerdict, visionOK := c.runVision(ctx, png, shotErr, item, log)

	log.Debug("Source readings",
		zap.Bool("vision_trusted", visionOK),
		zap.Bool("vision_available", visionVerdict.Available),
		zap.Bool("heuristic_available", heuristicVerdict.Available),
		zap.Float64("heuristic_price", heuristicVerdict.Price))

	var verdict schemas.Verdict
	if visionOK {
		verdict = visionVerdict
	} else {
		log.Warn("Falling back to HTML parsing", zap.String("item", item.Name))
		verdict = heuristicVerdict
	}

	verdict = FilterTargetSizes(verdict, item)
	verdict = ApplyPriceCeiling(verdict, item)

	if verdict.Available && png != nil {
		c.captureBytes("available", item.Name, png)
	}
	log.Info("Check complete",
		zap.Bool("available", verdict.Available),
		zap.Float64("price", verdict.Price),
		zap.Strings("sizes", verdict.AvailableSizes),
		zap.String("source", string(verdict.Source)),
		zap.String("reason", verdict.Reason))
	return verdict
}

// runVision asks the model to read the capture. The boolean reports
// whether the reading can be trusted as the verdict source.
func (c *Checker) runVision(ctx context.Context, png []byte, shotErr error, item schemas.MonitoredItem, log *zap.Logger) (schemas.Verdict, bool) {
	if !c.cfg.Inference.Enabled {
		return schemas.Verdict{}, false
	}
	if shotErr != nil || len(png) == 0 {
		return schemas.Verdict{}, false
	}
	result, err := c.analyzer.Analyze(ctx, png, item)
	if err != nil {
		log.Warn("Vision analysis failed", zap.Error(err))
		return schemas.Verdict{}, false
	}
	v := schemas.Verdict{
		Available:      result.Available,
		Price:          result.Price,
		AvailableSizes: result.AvailableSizes,
		Source:         schemas.SourceVision,
		CheckedAt:      time.Now(),
	}
	if !result.Available && result.OutOfStockMessage != "" {
		v.Reason = result.OutOfStockMessage
	}
	return v, true
}

func (c *Checker) runHeuristic(ctx context.Context, page schemas.Page, html string, htmlErr error, item schemas.MonitoredItem, log *zap.Logger) schemas.Verdict {
	if htmlErr != nil {
		log.Warn("Could not read page html", zap.Error(htmlErr))
		return failed(htmlErr.Error())
	}
	extraction, err := c.extractor.Extract(html, item.Sizes)
	if err != nil {
		log.Warn("Heuristic extraction failed", zap.Error(err))
		if err == heuristic.ErrPriceNotFound {
			c.capture(ctx, page, "price-not-found", item.Name)
			return schemas.Verdict{
				Reason:    "Price not determined",
				Source:    schemas.SourceHeuristic,
				CheckedAt: time.Now(),
			}
		}
		return failed(err.Error())
	}

	v := schemas.Verdict{
		Price:     extraction.Price,
		Source:    schemas.SourceHeuristic,
		CheckedAt: time.Now(),
	}
	if extraction.OutOfStock {
		v.Reason = "Out of stock"
		return v
	}
	for _, s := range extraction.Sizes {
		if s.Available {
			v.AvailableSizes = append(v.AvailableSizes, s.Label)
		}
	}
	v.Available = len(v.AvailableSizes) > 0
	if !v.Available {
		v.Reason = "No sizes in stock"
	}
	return v
}

func (c *Checker) isProductPage(ctx context.Context, page schemas.Page) bool {
	for _, marker := range productPageMarkers {
		if page.WaitVisible(ctx, marker, time.Second) {
			return true
		}
	}
	return false
}

func (c *Checker) settleDelay() time.Duration {
	min, max := c.cfg.Network.SettleMin, c.cfg.Network.SettleMax
	if max <= min {
		return min
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return min + time.Duration(c.rng.Int63n(int64(max-min)))
}

func (c *Checker) capture(ctx context.Context, page schemas.Page, kind, label string) {
	if c.shots == nil {
		return
	}
	png, err := page.Screenshot(ctx)
	if err != nil {
		return
	}
	c.shots.Save(kind, label, png)
}

func (c *Checker) captureBytes(kind, label string, png []byte) {
	if c.shots != nil {
		c.shots.Save(kind, label, png)
	}
}
