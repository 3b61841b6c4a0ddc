package agent

import (
	"encoding/json"
	"fmt"
)

// extractJSON pulls the first balanced JSON object out of a model response.
// Models in JSON mode usually return bare objects, but the scan also copes
// with fenced or prefixed output.
func extractJSON(response string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(response); i++ {
		ch := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
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
			}
			if depth == 0 && start != -1 {
				return response[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("no JSON object found in response")
}

// decodeStage extracts and unmarshals a stage record, then validates it.
func decodeStage(response string, v interface{ Validate() error }) error {
	raw, err := extractJSON(response)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrSchemaViolation)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding stage output: %v: %w", err, ErrSchemaViolation)
	}
	return v.Validate()
}
