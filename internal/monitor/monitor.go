// File: internal/monitor/monitor.go

// Package monitor runs the availability cycle: every configured item
// checked in order, with retry, session recovery and escalation.
package monitor

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/config"
	"github.com/xkilldash9x/stockwatch-cli/internal/resolver"
)

// Manager provides browser sessions.
type Manager interface {
	Acquire(ctx context.Context) (schemas.BrowsingSession, error)
	Release(ctx context.Context, s schemas.BrowsingSession)
}

// Checker resolves one item to a verdict.
type Checker interface {
	Check(ctx context.Context, session schemas.BrowsingSession, item schemas.MonitoredItem, shop schemas.ShopProfile) schemas.Verdict
}

// Notifier delivers alerts. Failures must not break a cycle.
type Notifier interface {
	Send(subject, htmlBody string) error
}

// Dashboard records cycle outcomes for the web frontend.
type Dashboard interface {
	Update(botStatus string, products []schemas.ProductStatus) error
	AddNotification(title, message string) error
}

// Loop owns one monitoring cycle at a time.
type Loop struct {
	cfg      *config.Config
	manager  Manager
	checker  Checker
	notifier Notifier
	dash     Dashboard
	logger   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	// sleep is replaceable in tests.
	sleep func(context.Context, time.Duration)
}

func NewLoop(cfg *config.Config, manager Manager, checker Checker, notifier Notifier, dash Dashboard, rng *rand.Rand, logger *zap.Logger) *Loop {
	return &Loop{
		cfg:      cfg,
		manager:  manager,
		checker:  checker,
		notifier: notifier,
		dash:     dash,
		rng:      rng,
		logger:   logger.Named("monitor"),
		sleep:    sleepCtx,
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

// RunCycle checks every configured item once. Items run sequentially in
// configuration order; a failed item never stops the rest.
func (l *Loop) RunCycle(ctx context.Context) error {
	l.logger.Info("Starting product monitoring cycle", zap.Int("items", len(l.cfg.Items)))

	session, err := l.manager.Acquire(ctx)
	if err != nil {
		l.logger.Error("Could not launch browser, aborting cycle", zap.Error(err))
		l.notify("Error during product monitoring",
			fmt.Sprintf("<p>An error occurred: %s</p>", err))
		l.updateDashboard("browser launch failed", nil)
		return fmt.Errorf("acquiring browser session: %w", err)
	}
	defer func() { l.manager.Release(ctx, session) }()

	statuses := make([]schemas.ProductStatus, 0, len(l.cfg.Items))
	connectivityFailures := 0

	for i, item := range l.cfg.Items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i > 0 {
			l.sleep(ctx, l.itemDelay())
		}

		shop, ok := l.cfg.FindShop(item.Shop)
		if !ok {
			l.logger.Error("Unknown shop in item config",
				zap.String("item", item.Name), zap.String("shop", item.Shop))
			statuses = append(statuses, schemas.StatusFromVerdict(item, schemas.Verdict{
				Reason:    "Unknown shop",
				CheckedAt: time.Now(),
			}))
			continue
		}

		verdict, newSession := l.checkWithRetry(ctx, session, item, shop)
		session = newSession
		statuses = append(statuses, schemas.StatusFromVerdict(item, verdict))

		if verdict.Failed() && verdict.Source == schemas.SourceNone && resolver.IsConnectivityReason(verdict.Reason) {
			connectivityFailures++
		}
		if verdict.Available {
			l.announce(item, shop, verdict)
		} else {
			l.logger.Info("Product unavailable",
				zap.String("item", item.Name),
				zap.String("shop", item.Shop),
				zap.String("reason", verdict.Reason))
		}
	}

	botStatus := "running"
	if len(l.cfg.Items) > 0 && connectivityFailures == len(l.cfg.Items) {
		botStatus = "possible site protection activated"
		l.logger.Warn("Every item failed with connectivity errors, possible site protection activated")
		l.notify("Possible site protection activated",
			"<p>All checks in the last cycle failed with connection errors. The site may be blocking the bot.</p>")
	}
	l.updateDashboard(botStatus, statuses)
	l.logger.Info("Monitoring cycle complete", zap.String("status", botStatus))
	return nil
}

// checkWithRetry runs up to MaxAttempts checks for one item. Only
// connectivity-class failures retry; after a second consecutive one the
// session is recreated once, on the theory that the browser or its
// proxy has gone bad rather than the page.
func (l *Loop) checkWithRetry(ctx context.Context, session schemas.BrowsingSession, item schemas.MonitoredItem, shop schemas.ShopProfile) (schemas.Verdict, schemas.BrowsingSession) {
	var verdict schemas.Verdict
	consecutive := 0
	recreated := false

	for attempt := 1; attempt <= l.cfg.Monitor.MaxAttempts; attempt++ {
		verdict = l.checker.Check(ctx, session, item, shop)

		retryable := verdict.Failed() &&
			verdict.Source == schemas.SourceNone &&
			resolver.IsConnectivityReason(verdict.Reason)
		if !retryable {
			return verdict, session
		}
		consecutive++
		l.logger.Warn("Check failed, will retry",
			zap.String("item", item.Name),
			zap.Int("attempt", attempt),
			zap.String("reason", verdict.Reason))

		if attempt == l.cfg.Monitor.MaxAttempts {
			break
		}

		if consecutive >= 2 && !recreated {
			recreated = true
			l.logger.Info("Recreating browser session after repeated connectivity failures")
			l.manager.Release(ctx, session)
			fresh, err := l.manager.Acquire(ctx)
			if err != nil {
				l.logger.Error("Session recreation failed", zap.Error(err))
				return verdict, session
			}
			session = fresh
		}

		backoff := l.cfg.Monitor.BackoffBase * time.Duration(1<<(attempt-1))
		l.sleep(ctx, backoff)
		if ctx.Err() != nil {
			return verdict, session
		}
	}
	return verdict, session
}

// announce reports an available item over email and the dashboard feed.
// Delivery failures are logged and swallowed.
func (l *Loop) announce(item schemas.MonitoredItem, shop schemas.ShopProfile, v schemas.Verdict) {
	l.logger.Info("PRODUCT AVAILABLE",
		zap.String("item", item.Name),
		zap.String("shop", item.Shop),
		zap.Float64("price", v.Price),
		zap.Strings("sizes", v.AvailableSizes))

	url := item.ProductURL(shop)
	subject := fmt.Sprintf("Product available: %s (%s)", item.Name, item.Shop)
	body := fmt.Sprintf(`<p><strong>Product:</strong> %s</p>
<p><strong>Shop:</strong> %s</p>
<p><strong>Price:</strong> %.2f</p>
<p><strong>Available sizes:</strong> %s</p>
<p><a href="%s">Go to product</a></p>`,
		item.Name, item.Shop, v.Price, strings.Join(v.AvailableSizes, ", "), url)

	l.notify(subject, body)

	if item.AutoPurchase {
		l.logger.Info("Auto-purchase is enabled for this product, but not implemented in current version")
	}
}

func (l *Loop) notify(subject, body string) {
	if err := l.notifier.Send(subject, body); err != nil {
		l.logger.Error("Notification delivery failed", zap.Error(err))
	}
	if err := l.dash.AddNotification(subject, body); err != nil {
		l.logger.Error("Dashboard notification failed", zap.Error(err))
	}
}

func (l *Loop) updateDashboard(botStatus string, statuses []schemas.ProductStatus) {
	if err := l.dash.Update(botStatus, statuses); err != nil {
		l.logger.Error("Dashboard update failed", zap.Error(err))
	}
}

func (l *Loop) itemDelay() time.Duration {
	min, max := l.cfg.Monitor.ItemDelayMin, l.cfg.Monitor.ItemDelayMax
	if max <= min {
		return min
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return min + time.Duration(l.rng.Int63n(int64(max-min)))
}
