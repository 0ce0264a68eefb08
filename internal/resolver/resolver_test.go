// File: internal/resolver/resolver_test.go
package resolver

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/config"
	"github.com/xkilldash9x/stockwatch-cli/internal/testutil"
)

type fakeAnalyzer struct {
	result schemas.AnalysisResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ []byte, _ schemas.MonitoredItem) (schemas.AnalysisResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeSaver struct {
	mu    sync.Mutex
	kinds []string
}

func (f *fakeSaver) Save(kind, _ string, _ []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	return "/tmp/" + kind + ".png"
}

const productHTML = `<html><body>
	<div class="product-detail-view__main-info">
		<span class="money-amount__main">1 499,00 UAH</span>
		<ul class="size-selector-sizes__size">
			<button data-qa-action="size-in-stock"><span class="size-selector-sizes-size__label">M</span></button>
		</ul>
	</div>
</body></html>`

func testChecker(t *testing.T, analyzer *fakeAnalyzer, saver *fakeSaver) *Checker {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Network.SettleMin = 0
	cfg.Network.SettleMax = 0
	cfg.Inference.Enabled = true

	c := NewChecker(cfg, analyzer, saver, nil, nil, rand.New(rand.NewSource(1)), zaptest.NewLogger(t))
	c.sleep = func(context.Context, time.Duration) {}
	return c
}

func productPage() *testutil.FakePage {
	return &testutil.FakePage{
		Visible:     map[string]bool{".product-detail-view__main-info": true},
		HTMLContent: productHTML,
	}
}

func shop() schemas.ShopProfile {
	return schemas.ShopProfile{Name: "zara", BaseURL: "https://www.zara.com/ua/uk", Locale: "/ua/uk"}
}

func TestCheckVisionVerdictWins(t *testing.T) {
	analyzer := &fakeAnalyzer{result: schemas.AnalysisResult{
		Available:      true,
		AvailableSizes: []string{"M"},
		Price:          1499,
	}}
	page := productPage()
	session := &testutil.FakeSession{Pages: []schemas.Page{page}}

	v := testChecker(t, analyzer, &fakeSaver{}).Check(context.Background(), session, item(), shop())

	assert.True(t, v.Available)
	assert.Equal(t, schemas.SourceVision, v.Source)
	assert.Equal(t, []string{"M"}, v.AvailableSizes)
	assert.InDelta(t, 1499.0, v.Price, 0.001)
	assert.True(t, page.Closed, "page must be closed after the check")
}

func TestCheckFallsBackToHeuristic(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("AI analysis failed: inference endpoint returned 500")}
	page := productPage()
	session := &testutil.FakeSession{Pages: []schemas.Page{page}}

	v := testChecker(t, analyzer, &fakeSaver{}).Check(context.Background(), session, item(), shop())

	assert.True(t, v.Available)
	assert.Equal(t, schemas.SourceHeuristic, v.Source)
	assert.Equal(t, []string{"M"}, v.AvailableSizes)
	assert.InDelta(t, 1499.0, v.Price, 0.001)
}

func TestCheckInferenceDisabledUsesHeuristic(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	page := productPage()
	session := &testutil.FakeSession{Pages: []schemas.Page{page}}

	c := testChecker(t, analyzer, &fakeSaver{})
	c.cfg.Inference.Enabled = false
	v := c.Check(context.Background(), session, item(), shop())

	assert.Equal(t, schemas.SourceHeuristic, v.Source)
	assert.Zero(t, analyzer.calls)
}

func TestCheckNavigationFailure(t *testing.T) {
	page := &testutil.FakePage{NavigateErr: errors.New("net::ERR_TUNNEL_CONNECTION_FAILED")}
	session := &testutil.FakeSession{Pages: []schemas.Page{page}}
	saver := &fakeSaver{}

	v := testChecker(t, &fakeAnalyzer{}, saver).Check(context.Background(), session, item(), shop())

	assert.False(t, v.Available)
	assert.Equal(t, schemas.SourceNone, v.Source)
	assert.True(t, v.Failed())
	assert.True(t, IsConnectivityReason(v.Reason))
	assert.Contains(t, saver.kinds, "error")
	assert.True(t, page.Closed)
	require.Len(t, page.Navigations, 1)
	assert.Equal(t, "https://www.zara.com/ua/uk/linen-blazer-p012345.html", page.Navigations[0])
	assert.Equal(t, page.Navigations[0], item().ProductURL(shop()))
}

func TestCheckUnrecognizedPage(t *testing.T) {
	page := &testutil.FakePage{HTMLContent: "<html><body>captcha</body></html>"}
	session := &testutil.FakeSession{Pages: []schemas.Page{page}}
	saver := &fakeSaver{}

	v := testChecker(t, &fakeAnalyzer{}, saver).Check(context.Background(), session, item(), shop())

	assert.Equal(t, "Product page not recognized", v.Reason)
	assert.False(t, IsConnectivityReason(v.Reason))
	assert.Contains(t, saver.kinds, "not-product-page")
}

func TestCheckPriceCeilingAppliesToVision(t *testing.T) {
	analyzer := &fakeAnalyzer{result: schemas.AnalysisResult{
		Available:      true,
		AvailableSizes: []string{"M"},
		Price:          2499,
	}}
	session := &testutil.FakeSession{Pages: []schemas.Page{productPage()}}

	v := testChecker(t, analyzer, &fakeSaver{}).Check(context.Background(), session, item(), shop())

	assert.False(t, v.Available)
	assert.Equal(t, "Price above maximum", v.Reason)
	assert.Equal(t, schemas.SourceVision, v.Source)
}

func TestCheckTargetSizeFilterAppliesToVision(t *testing.T) {
	analyzer := &fakeAnalyzer{result: schemas.AnalysisResult{
		Available:      true,
		AvailableSizes: []string{"XS", "S"},
		Price:          1499,
	}}
	session := &testutil.FakeSession{Pages: []schemas.Page{productPage()}}

	v := testChecker(t, analyzer, &fakeSaver{}).Check(context.Background(), session, item(), shop())

	assert.False(t, v.Available)
	assert.Equal(t, "No available sizes match target sizes", v.Reason)
}

func TestCheckAvailableSavesScreenshot(t *testing.T) {
	analyzer := &fakeAnalyzer{result: schemas.AnalysisResult{
		Available:      true,
		AvailableSizes: []string{"M"},
		Price:          1499,
	}}
	session := &testutil.FakeSession{Pages: []schemas.Page{productPage()}}
	saver := &fakeSaver{}

	v := testChecker(t, analyzer, saver).Check(context.Background(), session, item(), shop())
	require.True(t, v.Available)
	assert.Contains(t, saver.kinds, "available")
}

func TestCheckNewPageFailure(t *testing.T) {
	session := &testutil.FakeSession{NewPageErr: errors.New("browser connection lost")}
	v := testChecker(t, &fakeAnalyzer{}, &fakeSaver{}).Check(context.Background(), session, item(), shop())
	assert.True(t, v.Failed())
	assert.True(t, IsConnectivityReason(v.Reason))
}

func TestCheckAuthenticatesWhenShopHasCredentials(t *testing.T) {
	page := productPage()
	session := &testutil.FakeSession{Pages: []schemas.Page{page}}

	var authCalls int
	c := testChecker(t, &fakeAnalyzer{}, &fakeSaver{})
	c.auth = func(ctx context.Context, p schemas.Page, s schemas.ShopProfile, l *zap.Logger) bool {
		authCalls++
		assert.Empty(t, page.Navigations, "login runs before the product navigation")
		return true
	}

	withCreds := shop()
	withCreds.Credentials = &schemas.Credentials{Username: "user@example.com", Password: "secret"}
	v := c.Check(context.Background(), session, item(), withCreds)

	assert.Equal(t, 1, authCalls)
	assert.False(t, v.Failed())

	// Anonymous shops never trigger the login flow.
	authCalls = 0
	session = &testutil.FakeSession{Pages: []schemas.Page{productPage()}}
	c.Check(context.Background(), session, item(), shop())
	assert.Zero(t, authCalls)
}
