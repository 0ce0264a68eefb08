// File: internal/browser/stealth/stealth.go

// Package stealth makes headless Chrome sessions present as ordinary
// user-operated browsers.
package stealth

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

//go:embed evasions.js
var evasionsScript string

// Persona defines the browser characteristics to emulate.
type Persona struct {
	UserAgent string
	Platform  string
	Languages []string
	Timezone  string
	Locale    string
	Width     int
	Height    int
}

// userAgents is the rotation list applied per session.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// DefaultPersona provides a realistic default browser profile.
var DefaultPersona = Persona{
	UserAgent: userAgents[0],
	Platform:  "Win32",
	Languages: []string{"en-US", "en"},
	Timezone:  "Europe/Kyiv",
	Locale:    "uk-UA",
	Width:     1920,
	Height:    1080,
}

// RandomPersona derives a persona from the rotation list. The platform
// is kept consistent with the chosen user agent string.
func RandomPersona(rng *rand.Rand) Persona {
	p := DefaultPersona
	p.UserAgent = userAgents[rng.Intn(len(userAgents))]
	switch {
	case strings.Contains(p.UserAgent, "Macintosh"):
		p.Platform = "MacIntel"
	case strings.Contains(p.UserAgent, "X11; Linux"):
		p.Platform = "Linux x86_64"
	default:
		p.Platform = "Win32"
	}
	// Small viewport jitter so fingerprints are not byte-identical.
	p.Width = 1920 - rng.Intn(3)*40
	p.Height = 1080 - rng.Intn(3)*30
	return p
}

// Apply constructs a sequence of Chrome DevTools Protocol actions to make the
// headless browser appear more like a standard, user-operated browser.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Applying browser stealth persona",
		zap.String("userAgent", p.UserAgent),
		zap.String("platform", p.Platform),
	)

	return chromedp.Tasks{
		// 1. Set the User-Agent override. This is a direct action.
		emulation.SetUserAgentOverride(p.UserAgent).WithPlatform(p.Platform),

		// 2. Inject the evasions.js script. This requires an ActionFunc wrapper
		// because its Do() method returns two values, which doesn't match the
		// chromedp.Action interface.
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(evasionsScript).Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),

		// 3. Set the timezone. This is also a direct action.
		emulation.SetTimezoneOverride(p.Timezone),

		// 4. Set the locale using the builder pattern.
		emulation.SetLocaleOverride().WithLocale(p.Locale),

		// 5. Set consistent HTTP headers to match the persona's language settings.
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": fmt.Sprintf("%s,%s;q=0.9", p.Languages[0], p.Languages[1]),
		}),
	}
}
