// File: internal/browser/consent_test.go
package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/testutil"
)

func TestDismissConsentClicksFirstVisible(t *testing.T) {
	page := &testutil.FakePage{
		Visible: map[string]bool{"#onetrust-accept-btn-handler": true},
	}
	DismissConsent(context.Background(), page, schemas.ShopProfile{}, 2*time.Second, zaptest.NewLogger(t))
	assert.Equal(t, []string{"#onetrust-accept-btn-handler"}, page.Clicks)
}

func TestDismissConsentPrefersShopSelector(t *testing.T) {
	page := &testutil.FakePage{
		Visible: map[string]bool{
			"#shop-accept":                 true,
			"#onetrust-accept-btn-handler": true,
		},
	}
	shop := schemas.ShopProfile{ConsentSelector: "#shop-accept"}
	DismissConsent(context.Background(), page, shop, 2*time.Second, zaptest.NewLogger(t))
	assert.Equal(t, []string{"#shop-accept"}, page.Clicks)
}

func TestDismissConsentNoBannerIsFine(t *testing.T) {
	page := &testutil.FakePage{}
	DismissConsent(context.Background(), page, schemas.ShopProfile{}, time.Second, zaptest.NewLogger(t))
	assert.Empty(t, page.Clicks)
}

func TestDismissConsentSecondaryLayer(t *testing.T) {
	page := &testutil.FakePage{
		Visible: map[string]bool{
			"#onetrust-accept-btn-handler":              true,
			"button[data-qa-action='save-preferences']": true,
		},
	}
	DismissConsent(context.Background(), page, schemas.ShopProfile{}, 2*time.Second, zaptest.NewLogger(t))
	assert.Equal(t, []string{
		"#onetrust-accept-btn-handler",
		"button[data-qa-action='save-preferences']",
	}, page.Clicks)
}

func TestDismissConsentClickFailureTriesNext(t *testing.T) {
	page := &testutil.FakePage{
		Visible: map[string]bool{
			"#onetrust-accept-btn-handler":            true,
			"button[data-qa-action='accept-cookies']": true,
		},
		ClickErr: map[string]error{
			"#onetrust-accept-btn-handler": errors.New("node detached"),
		},
	}
	DismissConsent(context.Background(), page, schemas.ShopProfile{}, 2*time.Second, zaptest.NewLogger(t))
	assert.Contains(t, page.Clicks, "button[data-qa-action='accept-cookies']")
}
