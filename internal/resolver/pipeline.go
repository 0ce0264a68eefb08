// File: internal/resolver/pipeline.go
package resolver

import (
	"strings"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

// The filter stages run identically over vision and heuristic results,
// so an availability verdict means the same thing regardless of which
// source produced it. Each stage takes a verdict and returns a new one;
// verdicts are never mutated in place.

// FilterTargetSizes keeps only sizes the item is watching for. The size
// set is filtered regardless of availability so the final verdict never
// carries sizes the item is not watching. An available verdict whose
// remainder is empty flips to unavailable.
func FilterTargetSizes(v schemas.Verdict, item schemas.MonitoredItem) schemas.Verdict {
	var kept []string
	for _, size := range v.AvailableSizes {
		if item.IsTargetSize(size) {
			kept = append(kept, size)
		}
	}
	out := v
	out.AvailableSizes = kept
	if v.Available && len(kept) == 0 {
		out.Available = false
		out.Reason = "No available sizes match target sizes"
	}
	return out
}

// ApplyPriceCeiling flips the verdict to unavailable when the detected
// price is above the item's maximum. An unknown price (zero) passes
// through; the heuristic path never produces one, and a vision result
// without a price is still worth reporting.
func ApplyPriceCeiling(v schemas.Verdict, item schemas.MonitoredItem) schemas.Verdict {
	if v.Price <= 0 || v.Price <= item.MaxPrice {
		return v
	}
	out := v
	out.Available = false
	out.Reason = "Price above maximum"
	return out
}

// connectivityMarkers classify failures that indicate the site, proxy
// or network is refusing us rather than the product being absent.
var connectivityMarkers = []string{
	"timeout",
	"timed out",
	"connection",
	"network",
	"net::",
	"context deadline exceeded",
}

// IsConnectivityReason reports whether a failure reason looks like a
// connectivity-class error. The monitor escalates these differently:
// they suggest blocking, not absence.
func IsConnectivityReason(reason string) bool {
	lower := strings.ToLower(reason)
	for _, marker := range connectivityMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
