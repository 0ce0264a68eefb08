// api/schemas/product.go
package schemas

import (
	"strings"
	"unicode"
)

// Credentials holds a shop login. Optional; availability checks do not
// require an authenticated session on most storefronts.
type Credentials struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"-"`
}

// ShopProfile describes one storefront: where it lives and the shop-specific
// quirks required to browse it (consent banner selector, locale path segment).
// Loaded once from configuration and never mutated afterward.
type ShopProfile struct {
	Name            string       `mapstructure:"name" yaml:"name"`
	BaseURL         string       `mapstructure:"url" yaml:"url"`
	Locale          string       `mapstructure:"locale" yaml:"locale"`
	ConsentSelector string       `mapstructure:"consent_selector" yaml:"consent_selector"`
	ConsentTimeout  int          `mapstructure:"consent_timeout_ms" yaml:"consent_timeout_ms"`
	Credentials     *Credentials `mapstructure:"credentials" yaml:"credentials"`
}

// LoginURL returns the shop's logon page, honoring the locale segment.
func (p ShopProfile) LoginURL() string {
	return strings.TrimRight(p.BaseURL, "/") + p.Locale + "/logon"
}

// MonitoredItem identifies one product to watch. Immutable for the process
// lifetime; sourced from configuration.
type MonitoredItem struct {
	Shop         string   `mapstructure:"shop" yaml:"shop"`
	Name         string   `mapstructure:"name" yaml:"name"`
	ProductPath  string   `mapstructure:"product_path" yaml:"product_path"`
	Sizes        []string `mapstructure:"sizes" yaml:"sizes"`
	MaxPrice     float64  `mapstructure:"max_price" yaml:"max_price"`
	AutoPurchase bool     `mapstructure:"auto_purchase" yaml:"auto_purchase"`
}

// ProductURL joins the shop base URL with the item's product path.
func (i MonitoredItem) ProductURL(shop ShopProfile) string {
	return strings.TrimRight(shop.BaseURL, "/") + "/" + strings.TrimLeft(i.ProductPath, "/")
}

// IsTargetSize reports whether label matches one of the item's target sizes.
// A label matches when it equals a target or when one of its tokens does
// ("L / 40" matches target "L"; "XL" does not match "L").
func (i MonitoredItem) IsTargetSize(label string) bool {
	label = strings.TrimSpace(label)
	tokens := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, target := range i.Sizes {
		if strings.EqualFold(label, target) {
			return true
		}
		for _, tok := range tokens {
			if strings.EqualFold(tok, target) {
				return true
			}
		}
	}
	return false
}
