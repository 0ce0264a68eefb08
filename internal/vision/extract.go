// File: internal/vision/extract.go
package vision

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FirstJSONObject returns the first balanced top-level JSON object in
// text. Models often wrap their answer in prose or a code fence; the
// object itself is never repaired, only located.
func FirstJSONObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("no JSON object found in response")
}

// decodeAnalysis locates and strictly parses the model's JSON answer.
func decodeAnalysis(text string, out any) error {
	obj, err := FirstJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.UnmarshalFromString(obj, out); err != nil {
		return fmt.Errorf("decoding analysis object: %w", err)
	}
	return nil
}
