// File: internal/heuristic/extractor.go
package heuristic

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// SizeStatus is one size option as rendered on the page.
type SizeStatus struct {
	Label     string
	Available bool
}

// Extraction is the raw read of a product page. Target-size and price
// ceiling filtering happen downstream so both detection sources go
// through the same rules.
type Extraction struct {
	Price      float64
	Sizes      []SizeStatus
	OutOfStock bool
}

// outOfStockPhrases short-circuit the whole extraction when present in
// the similar-products tip.
var outOfStockPhrases = []string{
	"НЕМАЄ В НАЯВНОСТІ",
	"NOT AVAILABLE",
	"OUT OF STOCK",
}

const outOfStockTipSelector = ".product-detail-show-similar-products__action-tip span"

// sizeSelectors is the ordered chain of known size widget layouts. The
// first selector that matches anything wins.
var sizeSelectors = []string{
	`.size-selector-sizes__size button[data-qa-action="size-in-stock"]`,
	".size-selector-sizes-size.button",
	"button.size-selector-sizes-size_button",
	".product-detail-info_size-selector",
	`.new-size-selector button[data-qa-action="size-in-stock"]`,
	".size-selector__size-list li",
	".product-size-info .size-list button",
	".product-detail-size-selector-std__wrapper button",
	".product-detail-size-selector-std-actions__button",
	".size-selector button",
}

const sizeLabelSelector = ".size-selector-sizes-size__label, .size-selector-sizes-size__element"

const addToCartSelector = `.add-to-cart, .add-to-basket, .product-detail-actions, a[href*="/shop/cart"]`

// Extractor reads availability from static HTML snapshots.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger.Named("heuristic")}
}

// Extract parses the page snapshot. It fails hard when the price cannot
// be determined; a verdict without a trusted price is worthless.
func (e *Extractor) Extract(html string, targetSizes []string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, fmt.Errorf("parsing product page: %w", err)
	}

	price, err := ExtractPrice(doc)
	if err != nil {
		return Extraction{}, err
	}

	if hasOutOfStockTip(doc) {
		e.logger.Debug("Out-of-stock tip present, skipping size scan")
		return Extraction{Price: price, OutOfStock: true}, nil
	}

	sizes, strategy := e.collectSizes(doc, targetSizes)
	e.logger.Debug("Size scan complete",
		zap.String("strategy", strategy),
		zap.Int("sizes", len(sizes)))

	if len(sizes) == 0 {
		// Size-less product: the add-to-cart state is the only signal.
		if addToCartEnabled(doc) {
			return Extraction{Price: price, Sizes: []SizeStatus{{Label: "One Size", Available: true}}}, nil
		}
		return Extraction{Price: price, OutOfStock: true}, nil
	}
	return Extraction{Price: price, Sizes: sizes}, nil
}

// addToCartEnabled reports whether any add-to-cart control is present
// and not disabled. A link to the cart counts; the item may already be
// in it.
func addToCartEnabled(doc *goquery.Document) bool {
	enabled := false
	doc.Find(addToCartSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, disabled := s.Attr("disabled"); disabled {
			return true
		}
		if s.HasClass("disabled") {
			return true
		}
		enabled = true
		return false
	})
	return enabled
}

func hasOutOfStockTip(doc *goquery.Document) bool {
	oos := false
	doc.Find(outOfStockTipSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		for _, phrase := range outOfStockPhrases {
			if strings.Contains(text, phrase) {
				oos = true
				return false
			}
		}
		return true
	})
	return oos
}

// collectSizes runs the extraction strategies in order and returns the
// first non-empty result together with the strategy name.
func (e *Extractor) collectSizes(doc *goquery.Document, targetSizes []string) ([]SizeStatus, string) {
	for _, sel := range sizeSelectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		inStockSelector := strings.Contains(sel, `data-qa-action="size-in-stock"`)
		qaSelector := strings.Contains(sel, "data-qa-action")
		var sizes []SizeStatus
		nodes.Each(func(_ int, s *goquery.Selection) {
			sizes = append(sizes, SizeStatus{
				Label:     sizeLabel(s),
				Available: inStockSelector || sizeAvailable(s, qaSelector),
			})
		})
		return dedupe(sizes), sel
	}

	// Fallback: bare elements whose text is exactly a target size.
	var simple []SizeStatus
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		for _, target := range targetSizes {
			if text == target {
				simple = append(simple, SizeStatus{
					Label:     text,
					Available: !simpleDisabled(s),
				})
				return
			}
		}
	})
	if len(simple) > 0 {
		return dedupe(simple), "simple-text-sizes"
	}
	return nil, "none"
}

func sizeLabel(s *goquery.Selection) string {
	if label := s.Find(sizeLabelSelector).First(); label.Length() > 0 {
		return strings.TrimSpace(label.Text())
	}
	return strings.TrimSpace(s.Text())
}

// sizeAvailable applies the detailed per-element checks used for size
// widgets that mix in-stock and out-of-stock entries.
func sizeAvailable(s *goquery.Selection, qaSelector bool) bool {
	parentEnabled := false
	if parent := s.Parent(); parent.Length() > 0 {
		parentEnabled = parent.HasClass("size-selector-sizes-size--enabled") || !parent.HasClass("disabled")
	}
	if !s.HasClass("size-selector-sizes-size--enabled") && !parentEnabled {
		return false
	}
	if s.HasClass("product-size-info__size--out-of-stock") || s.HasClass("disabled") {
		return false
	}
	if _, disabled := s.Attr("disabled"); disabled {
		return false
	}
	if qaSelector {
		if action, _ := s.Attr("data-qa-action"); action != "size-in-stock" {
			return false
		}
	}
	if s.Find(".product-detail-show-similar-products__action-tip").Length() > 0 {
		return false
	}
	return true
}

func simpleDisabled(s *goquery.Selection) bool {
	if _, ok := s.Attr("disabled"); ok {
		return true
	}
	if s.HasClass("disabled") {
		return true
	}
	parent := s.Parent()
	return parent.Length() > 0 && parent.HasClass("disabled")
}

// dedupe keeps the first occurrence of each label. An available entry
// beats an unavailable duplicate seen earlier.
func dedupe(sizes []SizeStatus) []SizeStatus {
	idx := make(map[string]int, len(sizes))
	var out []SizeStatus
	for _, s := range sizes {
		if s.Label == "" {
			continue
		}
		if i, seen := idx[s.Label]; seen {
			if s.Available && !out[i].Available {
				out[i].Available = true
			}
			continue
		}
		idx[s.Label] = len(out)
		out = append(out, s)
	}
	return out
}
