package marshal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Document is a dynamically typed host object.
type Document = map[string]any

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// variant returns the normalized "type" tag of doc.
func variant(doc Document, path string) (string, error) {
	tag, ok, err := stringField(doc, path, "type")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, join(path, "type"))
	}
	return normalizeTag(tag), nil
}

// normalizeTag folds "in_memory", "InMemory" and "in-memory" together.
func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.NewReplacer("_", "", "-", "").Replace(tag)
}

func asDocument(v any, path string) (Document, error) {
	switch d := v.(type) {
	case map[string]any:
		return d, nil
	case map[any]any:
		out := make(Document, len(d))
		for k, val := range d {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s has non-string key %v", ErrFieldType, path, k)
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an object, got %T", ErrFieldType, path, v)
	}
}

func stringField(doc Document, path, name string) (string, bool, error) {
	v, ok := doc[name]
	if !ok || v == nil {
		return "", false, nil
	}
	switch s := v.(type) {
	case string:
		return s, true, nil
	case []byte:
		return string(s), true, nil
	case fmt.Stringer:
		return s.String(), true, nil
	default:
		return "", false, fmt.Errorf("%w: %s must be a string, got %T", ErrFieldType, join(path, name), v)
	}
}

func requiredString(doc Document, path, name string) (string, error) {
	s, ok, err := stringField(doc, path, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, join(path, name))
	}
	return s, nil
}

func bytesField(doc Document, path, name string) ([]byte, bool, error) {
	v, ok := doc[name]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch b := v.(type) {
	case []byte:
		return b, true, nil
	case string:
		return []byte(b), true, nil
	default:
		return nil, false, fmt.Errorf("%w: %s must be bytes or a string, got %T", ErrFieldType, join(path, name), v)
	}
}

func intField(doc Document, path, name string) (int64, bool, error) {
	v, ok := doc[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toInt64(v)
	if errors.Is(err, ErrInvalidValue) {
		return 0, false, fmt.Errorf("%s: %w", join(path, name), err)
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %w", ErrFieldType, join(path, name), err)
	}
	return n, true, nil
}

// toInt64 accepts every integer type, integral floats within the exactly
// representable range and json.Number.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func uintToInt64(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%d overflows int64", n)
	}
	return int64(n), nil
}

// maxExactFloat is 2^53. Above it a float64 may already be a rounded
// neighbour of the integer the host meant.
const maxExactFloat = 1 << 53

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if math.Abs(f) > maxExactFloat {
		return 0, fmt.Errorf("%w: %v is outside the exact float range of ±2^53", ErrInvalidValue, f)
	}
	return int64(f), nil
}
