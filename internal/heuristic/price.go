// File: internal/heuristic/price.go

// Package heuristic extracts availability and price from a static HTML
// snapshot of a product page.
package heuristic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// priceSelectors is the ordered chain of known price elements.
var priceSelectors = []string{
	".money-amount__main",
	".product-price",
	".current-price-elem",
	".screen-reader-text",
}

// priceWithCurrencyRe matches price-looking text anywhere on the page,
// used only when no known selector is present.
var priceWithCurrencyRe = regexp.MustCompile(`(?i)(\d[\d\s\x{00a0}]*[.,]\d{2})\s*(?:UAH|грн|₴)`)

// amountRe pulls the numeric amount out of a price element's text.
var amountRe = regexp.MustCompile(`\d[\d\s\x{00a0}.,]*\d|\d`)

// ErrPriceNotFound is returned when no price can be determined. A check
// without a price cannot be trusted.
var ErrPriceNotFound = fmt.Errorf("price not determined")

// ExtractPrice finds the product price in the document. Known selectors
// are tried in order; a currency-suffixed regex over the whole page is
// the last resort.
func ExtractPrice(doc *goquery.Document) (float64, error) {
	for _, sel := range priceSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if price, err := ParseAmount(node.Text()); err == nil {
			return price, nil
		}
	}

	var price float64
	found := false
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := priceWithCurrencyRe.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		if p, err := ParseAmount(m[1]); err == nil {
			price = p
			found = true
			return false
		}
		return true
	})
	if found {
		return price, nil
	}
	return 0, ErrPriceNotFound
}

// ParseAmount converts localized price text to a float. Both comma and
// dot appear in the wild as either decimal or thousands separators:
//
//   - both present: the rightmost one is the decimal separator
//   - one present once with two trailing digits: decimal separator
//   - one present with more digits, or repeated: thousands separator
//
// So "1 499,00" is 1499.00, "14,250" is 14250 and "14.99" is 14.99.
func ParseAmount(text string) (float64, error) {
	raw := amountRe.FindString(text)
	if raw == "" {
		return 0, fmt.Errorf("no numeric amount in %q", text)
	}
	raw = strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, raw)

	lastComma := strings.LastIndexByte(raw, ',')
	lastDot := strings.LastIndexByte(raw, '.')

	normalize := func(decimal byte) string {
		var b strings.Builder
		decIdx := strings.LastIndexByte(raw, decimal)
		for i := 0; i < len(raw); i++ {
			switch {
			case raw[i] >= '0' && raw[i] <= '9':
				b.WriteByte(raw[i])
			case i == decIdx:
				b.WriteByte('.')
			}
		}
		return b.String()
	}

	var cleaned string
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = normalize(',')
		} else {
			cleaned = normalize('.')
		}
	case lastComma >= 0:
		cleaned = resolveSingle(raw, ',', normalize)
	case lastDot >= 0:
		cleaned = resolveSingle(raw, '.', normalize)
	default:
		cleaned = raw
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", text, err)
	}
	return price, nil
}

// resolveSingle decides whether sep is decimal or thousands when it is
// the only separator kind in the string.
func resolveSingle(raw string, sep byte, normalize func(byte) string) string {
	if strings.Count(raw, string(sep)) > 1 {
		// Repeated separators can only group thousands.
		return strings.ReplaceAll(raw, string(sep), "")
	}
	idx := strings.IndexByte(raw, sep)
	frac := len(raw) - idx - 1
	if frac == 2 {
		return normalize(sep)
	}
	digits := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits++
		}
	}
	if frac == 3 && digits > 3 {
		return strings.ReplaceAll(raw, string(sep), "")
	}
	return normalize(sep)
}
