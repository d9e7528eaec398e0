package items

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/roach88/goby/internal/schema"
)

// encodeValue validates v for data property p and returns the value to
// store. Multi-valued properties take a slice and are stored as JSON array
// text; booleans are stored as 0 or 1.
func encodeValue(p schema.Property, v any) (any, *schema.Error) {
	if v == nil {
		return nil, nil
	}

	if !p.MaxValues.Multiple() {
		out, err := encodeScalar(p.DataType, v)
		if err != nil {
			return nil, schema.NewInvalidValue("property %q: %v", p.Name, err)
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, schema.NewInvalidValue("property %q: expecting array, got %T", p.Name, v)
	}
	if !p.MaxValues.Allows(rv.Len()) {
		return nil, schema.NewInvalidValue("property %q: %d values exceed max_values %d", p.Name, rv.Len(), p.MaxValues)
	}

	values := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out, err := encodeScalar(p.DataType, rv.Index(i).Interface())
		if err != nil {
			return nil, schema.NewInvalidValue("property %q: value %d: %v", p.Name, i, err)
		}
		values = append(values, out)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, schema.NewInvalidValue("property %q: %v", p.Name, err)
	}
	return string(data), nil
}

func encodeScalar(t schema.DataType, v any) (any, error) {
	switch t {
	case schema.TypeString, schema.TypeResource:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expecting string, got %v (%T)", v, v)
		}
		return s, nil
	case schema.TypeNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("expecting number, got %v (%T)", v, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("expecting finite number, got %v", f)
		}
		return f, nil
	case schema.TypeBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		if f, ok := toFloat(v); ok && (f == 0 || f == 1) {
			return int64(f), nil
		}
		return nil, fmt.Errorf("expecting boolean or binary integer, got %v (%T)", v, v)
	default:
		return nil, fmt.Errorf("unknown data type %q", t)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// decodeValue converts a stored cell of data property p back to its value.
func decodeValue(p schema.Property, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	if !p.MaxValues.Multiple() {
		return decodeScalar(p.DataType, raw)
	}

	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("property %q: expecting array text, got %T", p.Name, raw)
	}
	var values []any
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		return nil, fmt.Errorf("property %q: %w", p.Name, err)
	}
	if values == nil {
		values = []any{}
	}
	for i, v := range values {
		out, err := decodeScalar(p.DataType, v)
		if err != nil {
			return nil, fmt.Errorf("property %q: value %d: %w", p.Name, i, err)
		}
		values[i] = out
	}
	return values, nil
}

func decodeScalar(t schema.DataType, raw any) (any, error) {
	switch t {
	case schema.TypeNumber:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("expecting number, got %T", raw)
		}
		return f, nil
	case schema.TypeBoolean:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("expecting 0 or 1, got %T", raw)
		}
		return f != 0, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expecting text, got %T", raw)
		}
		return s, nil
	}
}

// decodeRelation parses the JSON array produced for a relation property.
func decodeRelation(raw any) ([]RelationEntry, error) {
	entries := []RelationEntry{}
	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expecting relation array text, got %T", raw)
	}
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, fmt.Errorf("decode relation array: %w", err)
	}
	return entries, nil
}
