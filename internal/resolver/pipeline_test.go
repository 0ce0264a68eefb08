// File: internal/resolver/pipeline_test.go
package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

func item() schemas.MonitoredItem {
	return schemas.MonitoredItem{
		Shop:        "zara",
		Name:        "Linen blazer",
		ProductPath: "/linen-blazer-p012345.html",
		Sizes:       []string{"M", "L"},
		MaxPrice:    2000,
	}
}

func TestFilterTargetSizes(t *testing.T) {
	v := schemas.Verdict{
		Available:      true,
		AvailableSizes: []string{"S", "M", "XL", "L / 40"},
		Source:         schemas.SourceVision,
	}
	got := FilterTargetSizes(v, item())
	assert.True(t, got.Available)
	assert.Equal(t, []string{"M", "L / 40"}, got.AvailableSizes)

	// Input verdict is untouched.
	assert.Equal(t, []string{"S", "M", "XL", "L / 40"}, v.AvailableSizes)
}

func TestFilterTargetSizesEmptyRemainder(t *testing.T) {
	v := schemas.Verdict{Available: true, AvailableSizes: []string{"XS", "S"}}
	got := FilterTargetSizes(v, item())
	assert.False(t, got.Available)
	assert.Equal(t, "No available sizes match target sizes", got.Reason)
}

func TestFilterTargetSizesForeignSizeOnly(t *testing.T) {
	// "XL" must not satisfy target "L" just because it contains the letter.
	v := schemas.Verdict{Available: true, AvailableSizes: []string{"XL"}}
	got := FilterTargetSizes(v, item())
	assert.False(t, got.Available)
	assert.Empty(t, got.AvailableSizes)
	assert.Equal(t, "No available sizes match target sizes", got.Reason)
}

func TestFilterTargetSizesUnavailableStillFiltered(t *testing.T) {
	// Foreign sizes are stripped even when the verdict is already
	// unavailable, and the original reason is kept.
	v := schemas.Verdict{Available: false, Reason: "Out of stock", AvailableSizes: []string{"XXL"}}
	got := FilterTargetSizes(v, item())
	assert.False(t, got.Available)
	assert.Empty(t, got.AvailableSizes)
	assert.Equal(t, "Out of stock", got.Reason)
}

func TestApplyPriceCeiling(t *testing.T) {
	over := schemas.Verdict{Available: true, Price: 2499, AvailableSizes: []string{"M"}}
	got := ApplyPriceCeiling(over, item())
	assert.False(t, got.Available)
	assert.Equal(t, "Price above maximum", got.Reason)
	assert.InDelta(t, 2499.0, got.Price, 0.001, "detected price stays reported")

	under := schemas.Verdict{Available: true, Price: 1499}
	assert.Equal(t, under, ApplyPriceCeiling(under, item()))

	unknown := schemas.Verdict{Available: true, Price: 0}
	assert.Equal(t, unknown, ApplyPriceCeiling(unknown, item()))
}

func TestIsConnectivityReason(t *testing.T) {
	for _, reason := range []string{
		"net::ERR_CONNECTION_RESET",
		"navigating to x: context deadline exceeded",
		"Timeout exceeded while waiting for event",
		"proxy connection refused",
		"network changed",
	} {
		assert.True(t, IsConnectivityReason(reason), reason)
	}
	for _, reason := range []string{
		"Product page not recognized",
		"Price above maximum",
		"Out of stock",
		"",
	} {
		assert.False(t, IsConnectivityReason(reason), reason)
	}
}
