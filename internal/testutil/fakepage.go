// File: internal/testutil/fakepage.go

// Package testutil holds hand-rolled fakes shared by tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

// FakePage is a scriptable schemas.Page. Zero value behaves as a blank,
// error-free page.
type FakePage struct {
	mu sync.Mutex

	// Behavior knobs.
	NavigateErr   error
	NavigateErrs  map[string]error // per-URL override
	Visible       map[string]bool
	ClickErr      map[string]error
	HTMLContent   string
	HTMLErr       error
	PNG           []byte
	ScreenshotErr error
	EvaluateFn    func(expr string, res any) error

	// Recorded calls.
	Navigations []string
	Clicks      []string
	Keystrokes  map[string]string
	Scrolls     []int
	Closed      bool
}

var _ schemas.Page = (*FakePage)(nil)

func (f *FakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, url)
	if err, ok := f.NavigateErrs[url]; ok {
		return err
	}
	return f.NavigateErr
}

func (f *FakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Visible[selector]
}

func (f *FakePage) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clicks = append(f.Clicks, selector)
	return f.ClickErr[selector]
}

func (f *FakePage) SendKeys(ctx context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Keystrokes == nil {
		f.Keystrokes = make(map[string]string)
	}
	f.Keystrokes[selector] = text
	return nil
}

func (f *FakePage) Evaluate(ctx context.Context, expr string, res any) error {
	if f.EvaluateFn != nil {
		return f.EvaluateFn(expr, res)
	}
	return nil
}

func (f *FakePage) ScrollBy(ctx context.Context, deltaY int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scrolls = append(f.Scrolls, deltaY)
	return nil
}

func (f *FakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if f.ScreenshotErr != nil {
		return nil, f.ScreenshotErr
	}
	if f.PNG != nil {
		return f.PNG, nil
	}
	return []byte("png"), nil
}

func (f *FakePage) HTML(ctx context.Context) (string, error) {
	if f.HTMLErr != nil {
		return "", f.HTMLErr
	}
	return f.HTMLContent, nil
}

func (f *FakePage) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// FakeSession hands out a fixed sequence of pages.
type FakeSession struct {
	mu sync.Mutex

	SessionID  string
	Pages      []schemas.Page
	NewPageErr error

	PageCalls int
	Closed    bool
}

var _ schemas.BrowsingSession = (*FakeSession)(nil)

func (f *FakeSession) ID() string {
	if f.SessionID == "" {
		return "fake-session"
	}
	return f.SessionID
}

func (f *FakeSession) NewPage(ctx context.Context) (schemas.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PageCalls++
	if f.NewPageErr != nil {
		return nil, f.NewPageErr
	}
	if len(f.Pages) == 0 {
		return &FakePage{}, nil
	}
	p := f.Pages[0]
	if len(f.Pages) > 1 {
		f.Pages = f.Pages[1:]
	}
	return p, nil
}

func (f *FakeSession) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
