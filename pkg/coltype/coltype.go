// Package coltype defines the closed set of semantic column types used by
// table declarations and maps them to storage-native types per dialect.
// Raw values are coerced to one canonical Go representation per type:
// Integer→int64, String→string, Float→float64, Timestamp→time.Time,
// Boolean→bool.
package coltype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is a semantic column type tag.
type Type int

// The five semantic column types. The set is closed; switches over Type
// enumerate every constant so a new type cannot be added silently.
const (
	Integer Type = iota
	String
	Float
	Timestamp
	Boolean
)

// DefaultTimestampLayout is used by Coerce when no layout is supplied.
const DefaultTimestampLayout = time.RFC3339

// String returns the type name for display and config parsing.
func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case String:
		return "string"
	case Float:
		return "float"
	case Timestamp:
		return "timestamp"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("coltype(%d)", int(t))
	}
}

// Parse converts a type name (as written in config files) to a Type.
func Parse(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "integer", "int":
		return Integer, nil
	case "string", "text":
		return String, nil
	case "float", "double":
		return Float, nil
	case "timestamp", "datetime":
		return Timestamp, nil
	case "boolean", "bool":
		return Boolean, nil
	default:
		return 0, &UnknownTypeError{Tag: name}
	}
}

// All returns every semantic type, in declaration order.
func All() []Type {
	return []Type{Integer, String, Float, Timestamp, Boolean}
}

// CoercionError reports a raw value that cannot be losslessly converted
// to its declared semantic type.
type CoercionError struct {
	Value any
	Type  Type
	Cause error
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("cannot coerce %v (%T) to %s", e.Value, e.Value, e.Type)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CoercionError) Unwrap() error { return e.Cause }

// UnknownTypeError reports an unregistered type tag. Seeing one at runtime
// is an implementation bug, not a data condition.
type UnknownTypeError struct {
	Tag any
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown semantic type %v", e.Tag)
}

// Describe maps a semantic type to the storage-native type name for the
// given dialect. The mapping is total over the closed enum; an unknown
// dialect falls back to the postgres names.
func Describe(t Type, dialect string) (string, error) {
	var pg, duck string
	switch t {
	case Integer:
		pg, duck = "int8", "BIGINT"
	case String:
		pg, duck = "text", "VARCHAR"
	case Float:
		pg, duck = "float8", "DOUBLE"
	case Timestamp:
		pg, duck = "timestamp", "TIMESTAMP"
	case Boolean:
		pg, duck = "bool", "BOOLEAN"
	default:
		return "", &UnknownTypeError{Tag: t}
	}
	if strings.EqualFold(dialect, "duckdb") {
		return duck, nil
	}
	return pg, nil
}

// Coerce converts raw to the canonical Go value for t. Timestamp strings
// are parsed with DefaultTimestampLayout; use CoerceTimestamp to supply
// an explicit layout.
func Coerce(raw any, t Type) (any, error) {
	switch t {
	case Integer:
		return coerceInteger(raw)
	case String:
		return coerceString(raw)
	case Float:
		return coerceFloat(raw)
	case Timestamp:
		return CoerceTimestamp(raw, DefaultTimestampLayout)
	case Boolean:
		return coerceBoolean(raw)
	default:
		return nil, &UnknownTypeError{Tag: t}
	}
}

// CoerceTimestamp converts raw to a time.Time. String inputs are parsed
// against exactly one layout; ambiguous inputs (two-digit years, locale
// dependent forms) must be rejected by the layout, never guessed.
func CoerceTimestamp(raw any, layout string) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		ts, err := time.Parse(layout, v)
		if err != nil {
			return nil, &CoercionError{Value: raw, Type: Timestamp, Cause: err}
		}
		return ts, nil
	default:
		return nil, &CoercionError{Value: raw, Type: Timestamp}
	}
}

func coerceInteger(raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, &CoercionError{Value: raw, Type: Integer}
		}
		return int64(v), nil
	case float64:
		// accept only integral floats, common when values pass through JSON
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, &CoercionError{Value: raw, Type: Integer}
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, &CoercionError{Value: raw, Type: Integer, Cause: err}
		}
		return n, nil
	default:
		return nil, &CoercionError{Value: raw, Type: Integer}
	}
}

func coerceString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return nil, &CoercionError{Value: raw, Type: String}
	}
}

func coerceFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &CoercionError{Value: raw, Type: Float, Cause: err}
		}
		return f, nil
	default:
		return nil, &CoercionError{Value: raw, Type: Float}
	}
}

func coerceBoolean(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, &CoercionError{Value: raw, Type: Boolean, Cause: err}
		}
		return b, nil
	case int64:
		switch v {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, &CoercionError{Value: raw, Type: Boolean}
	default:
		return nil, &CoercionError{Value: raw, Type: Boolean}
	}
}
