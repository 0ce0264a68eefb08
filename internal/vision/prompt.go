// File: internal/vision/prompt.go

// Package vision asks a multimodal model to read a product page
// screenshot.
package vision

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

// buildPrompt instructs the model to read the size selector carefully
// and answer in the exact JSON shape of schemas.AnalysisResult.
func buildPrompt(item schemas.MonitoredItem) string {
	return fmt.Sprintf(`Analyze this screenshot of a product page from an online store and pay special attention to size availability.

IMPORTANT: Look carefully at the size selection area. Available sizes are clickable buttons/text WITHOUT any crossed-out lines, "i" symbols in boxes, grayed-out appearance, or disabled state.

1. Is the product available for purchase?
2. SIZE ANALYSIS - Look for size buttons/text that show: %s
   - AVAILABLE sizes: clear, clickable, normal color, no "i" symbol in a box next to them
   - UNAVAILABLE sizes: crossed out, grayed out, have "i" symbol in a box, or appear disabled
   - Only list sizes that are clearly AVAILABLE (clickable and not disabled)
3. What is the price shown on the page in UAH (Ukrainian Hryvnia)?
4. Are there any "out of stock", "not available", or similar messages?

Please respond in JSON format with the following structure:
{
  "available": true/false,
  "availableSizes": ["only sizes that are clearly available/clickable"],
  "price": number,
  "outOfStockMessage": "text of any out of stock message or null if none",
  "sizeAnalysisDetails": "brief description of what you see in the size selection area"
}`, strings.Join(item.Sizes, ", "))
}
