package store

import (
	"encoding/json"
	"fmt"

	"deviceloan/models"
)

// sanitizeExceptions are keys that must stay empty on the sheet rather than
// being filled with the placeholder: a blank serial or Apple ID is meaningful.
var sanitizeExceptions = map[string]bool{
	"serialNumber": true,
	"appleId":      true,
}

// Sanitize converts a payload to a flat map and replaces empty values with
// the NotSpecified placeholder, matching what every existing sheet row looks
// like. Nested objects and arrays pass through untouched.
func Sanitize(payload any) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sanitize payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("sanitize payload: %w", err)
	}
	for k, v := range m {
		if sanitizeExceptions[k] {
			continue
		}
		switch t := v.(type) {
		case nil:
			m[k] = models.NotSpecified
		case string:
			if t == "" {
				m[k] = models.NotSpecified
			}
		}
	}
	return m, nil
}
