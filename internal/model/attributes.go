package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// Attributes is an open, UI-driven set of scalar properties (grade, thickness, finish...).
// Values are restricted to string, float64 or nil.
type Attributes map[string]any

// Normalize drops blank keys and any value that is not a scalar. Integers are widened to float64.
func (a Attributes) Normalize() Attributes {
	out := Attributes{}
	for k, v := range a {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		switch val := v.(type) {
		case nil:
			out[k] = nil
		case string:
			out[k] = val
		case float64:
			if !math.IsNaN(val) && !math.IsInf(val, 0) {
				out[k] = val
			}
		case float32:
			out[k] = float64(val)
		case int:
			out[k] = float64(val)
		case int64:
			out[k] = float64(val)
		case json.Number:
			if f, err := val.Float64(); err == nil {
				out[k] = f
			}
		}
	}
	return out
}

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Attributes) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attributes{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("attributes: unsupported scan type")
	}
	m := Attributes{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
	}
	*a = m.Normalize()
	return nil
}
