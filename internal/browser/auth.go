// File: internal/browser/auth.go
package browser

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

// loggedInMarkers indicate an already authenticated account area.
var loggedInMarkers = []string{".account-info", ".user-info"}

// Authenticate signs in to the shop when credentials are configured.
// It returns whether an authenticated state was reached. Login is
// best-effort: availability checks work anonymously, so failures are
// logged and swallowed rather than aborting the check.
func Authenticate(ctx context.Context, page schemas.Page, shop schemas.ShopProfile, logger *zap.Logger) bool {
	if shop.Credentials == nil {
		return false
	}
	log := logger.Named("auth").With(zap.String("shop", shop.Name))

	// Probe first: a persisted session may already be signed in.
	for _, marker := range loggedInMarkers {
		if page.WaitVisible(ctx, marker, 2*time.Second) {
			log.Debug("Already authenticated", zap.String("marker", marker))
			return true
		}
	}

	if err := page.Navigate(ctx, shop.LoginURL()); err != nil {
		log.Warn("Could not reach login page", zap.Error(err))
		return false
	}

	// Two-step flow: email first, continue, then password.
	if !page.WaitVisible(ctx, "input[type='email'], input[name='email']", 10*time.Second) {
		log.Warn("Login form did not appear")
		return false
	}
	if err := page.SendKeys(ctx, "input[type='email'], input[name='email']", shop.Credentials.Username); err != nil {
		log.Warn("Could not enter email", zap.Error(err))
		return false
	}
	if err := page.Click(ctx, "button[type='submit']"); err != nil {
		log.Warn("Could not submit email step", zap.Error(err))
		return false
	}

	if !page.WaitVisible(ctx, "input[type='password']", 10*time.Second) {
		log.Warn("Password field did not appear")
		return false
	}
	if err := page.SendKeys(ctx, "input[type='password']", shop.Credentials.Password); err != nil {
		log.Warn("Could not enter password", zap.Error(err))
		return false
	}
	if err := page.Click(ctx, "button[type='submit']"); err != nil {
		log.Warn("Could not submit credentials", zap.Error(err))
		return false
	}

	for _, marker := range loggedInMarkers {
		if page.WaitVisible(ctx, marker, 10*time.Second) {
			log.Info("Authenticated")
			return true
		}
	}
	log.Warn("Login submitted but no authenticated marker appeared")
	return false
}
