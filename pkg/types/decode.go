package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNotObject is returned when a live-data body is not a JSON object.
var ErrNotObject = errors.New("live data is not a JSON object")

// fields is a JSON object decoded one level deep.
type fields map[string]json.RawMessage

func decodeFields(data []byte) (fields, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var f fields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, errors.Join(ErrNotObject, err)
	}
	return f, nil
}

// rawKind reports the JSON kind of raw by its first significant byte.
func rawKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// optionalNumber coerces raw into a finite number. Numeric strings are accepted;
// anything else is reported as absent.
func optionalNumber(raw json.RawMessage) (float64, bool) {
	var v float64
	switch rawKind(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		v = f
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// number is optionalNumber with absent coerced to 0.
func number(raw json.RawMessage) float64 {
	v, _ := optionalNumber(raw)
	return v
}

// text returns raw as a string. Numbers are kept in their JSON spelling and
// everything else becomes the empty string.
func text(raw json.RawMessage) string {
	switch rawKind(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(bytes.TrimSpace(raw))
	default:
		return ""
	}
}

// array splits raw into its elements. ok is false when raw is missing or not an
// array; an empty array yields a non-nil empty slice.
func array(raw json.RawMessage) ([]json.RawMessage, bool) {
	if rawKind(raw) != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}

// truthy applies the backend's notion of truthiness: null, false, 0 and the
// empty string (or empty collections) are false.
func truthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch rawKind(trimmed) {
	case 0, 'n', 'f':
		return false
	case '"':
		return text(trimmed) != ""
	case '[':
		items, _ := array(trimmed)
		return len(items) > 0
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return true
		}
		return len(m) > 0
	case 't':
		return true
	default:
		v, ok := optionalNumber(trimmed)
		return ok && v != 0
	}
}
