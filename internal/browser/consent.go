// File: internal/browser/consent.go
package browser

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

// knownConsentSelectors are cookie banner accept buttons seen across the
// supported shops, in priority order. A shop profile may prepend its own.
var knownConsentSelectors = []string{
	"#onetrust-accept-btn-handler",
	"button[data-qa-action='accept-cookies']",
	"button[id*='cookie'][id*='accept']",
	".cookie-consent__accept",
	"button[aria-label='Accept all cookies']",
}

// secondaryConsentSelectors cover confirmation layers that some banners
// raise after the first accept.
var secondaryConsentSelectors = []string{
	"button[data-qa-action='save-preferences']",
	"#onetrust-pc-btn-handler ~ button",
}

// DismissConsent clicks through a cookie consent banner if one shows up
// within the timeout. A page without a banner is the common case and is
// not an error.
func DismissConsent(ctx context.Context, page schemas.Page, shop schemas.ShopProfile, timeout time.Duration, logger *zap.Logger) {
	selectors := knownConsentSelectors
	if shop.ConsentSelector != "" {
		selectors = append([]string{shop.ConsentSelector}, selectors...)
	}
	if shop.ConsentTimeout > 0 {
		timeout = time.Duration(shop.ConsentTimeout) * time.Millisecond
	}

	// Split the budget across candidates so one absent selector cannot
	// eat the whole window.
	per := timeout / time.Duration(len(selectors))
	if per < 250*time.Millisecond {
		per = 250 * time.Millisecond
	}

	for _, sel := range selectors {
		if !page.WaitVisible(ctx, sel, per) {
			continue
		}
		if err := page.Click(ctx, sel); err != nil {
			logger.Debug("Consent click failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		logger.Debug("Consent banner dismissed", zap.String("selector", sel))

		// Some banners raise a second confirmation layer.
		for _, second := range secondaryConsentSelectors {
			if page.WaitVisible(ctx, second, per) {
				if err := page.Click(ctx, second); err == nil {
					logger.Debug("Secondary consent layer dismissed", zap.String("selector", second))
				}
				break
			}
		}
		return
	}
	logger.Debug("No consent banner appeared")
}
