// api/schemas/interfaces.go
package schemas

import (
	"context"
	"time"
)

// BrowsingSession owns one browser process and zero or more pages. A session
// is created per monitoring cycle and must not be reused after Close; callers
// needing a fresh session after a connectivity failure construct a new one.
type BrowsingSession interface {
	ID() string
	// NewPage opens a fresh tab scoped to this session. Proxy authentication
	// and anti-detection overrides are bound to the page individually;
	// sessions do not propagate them automatically.
	NewPage(ctx context.Context) (Page, error)
	Close(ctx context.Context) error
}

// Page is one browser tab. Implementations wrap a live CDP target; tests
// substitute fakes.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector becomes visible or the timeout
	// elapses, reporting which.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool
	Click(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, text string) error
	// Evaluate runs a JavaScript expression in the page and unmarshals the
	// result into res (which may be nil).
	Evaluate(ctx context.Context, expr string, res any) error
	ScrollBy(ctx context.Context, deltaY int) error
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}
