// api/schemas/verdict.go
package schemas

import "time"

// Source identifies which extraction strategy produced a verdict.
type Source string

const (
	// SourceVision marks a verdict produced by the vision inference adapter.
	SourceVision Source = "vision"
	// SourceHeuristic marks a verdict produced by DOM heuristic extraction.
	SourceHeuristic Source = "heuristic"
	// SourceNone marks a verdict produced before any extraction ran
	// (navigation failures, unrecognized pages).
	SourceNone Source = ""
)

// Verdict is the resolved outcome of checking one monitored item. Values are
// created fresh per check and never mutated after construction; the
// reconciliation pipeline produces successive Verdict values rather than
// flipping fields in place.
type Verdict struct {
	Available      bool
	Price          float64 // 0 means the price could not be determined
	AvailableSizes []string
	Reason         string // error or business-rule classification, empty when clean
	Source         Source
	CheckedAt      time.Time
}

// Failed reports whether the verdict carries an error classification.
func (v Verdict) Failed() bool {
	return v.Reason != ""
}

// AnalysisResult is the structured answer requested from the vision model.
// The JSON field names are part of the prompt contract.
type AnalysisResult struct {
	Available           bool     `json:"available"`
	AvailableSizes      []string `json:"availableSizes"`
	Price               float64  `json:"price"`
	OutOfStockMessage   string   `json:"outOfStockMessage"`
	SizeAnalysisDetails string   `json:"sizeAnalysisDetails"`
}
