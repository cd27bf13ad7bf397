package crud

import (
	"encoding/json"

	"github.com/lib/pq"
)

// coerceValue maps a decoded JSON value onto a driver bind value.
//
// Scalars bind naturally: strings, numbers (float64 after decoding), and
// booleans pass through; JSON null binds SQL NULL. A JSON array binds as a
// PostgreSQL text array via pq.Array, keeping only string elements;
// non-string elements are dropped silently, matching the permissive contract
// of the write path. Anything else (a nested object) binds as its JSON text;
// this is a known rough edge, not a general JSON-to-SQL mapper.
func coerceValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case bool:
		return val
	case float64:
		return val
	case []interface{}:
		strs := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				strs = append(strs, s)
			}
		}
		return pq.Array(strs)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	}
}
