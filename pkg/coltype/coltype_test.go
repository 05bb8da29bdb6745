package coltype

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := map[string]Type{
		"integer":   Integer,
		"int":       Integer,
		"String":    String,
		"text":      String,
		"float":     Float,
		"double":    Float,
		"timestamp": Timestamp,
		"datetime":  Timestamp,
		"bool":      Boolean,
		" boolean ": Boolean,
	}
	for name, want := range cases {
		got, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("Parse(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("decimal")
	var unknownErr *UnknownTypeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	for _, typ := range All() {
		for _, dialect := range []string{"postgres", "duckdb"} {
			tag, err := Describe(typ, dialect)
			if err != nil {
				t.Errorf("Describe(%v, %s) failed: %v", typ, dialect, err)
			}
			if tag == "" {
				t.Errorf("Describe(%v, %s) returned empty tag", typ, dialect)
			}
		}
	}

	tag, err := Describe(Integer, "postgres")
	if err != nil || tag != "int8" {
		t.Errorf("Describe(Integer, postgres) = %q, %v; want int8", tag, err)
	}
	tag, err = Describe(String, "duckdb")
	if err != nil || tag != "VARCHAR" {
		t.Errorf("Describe(String, duckdb) = %q, %v; want VARCHAR", tag, err)
	}
}

func TestDescribe_UnknownType(t *testing.T) {
	_, err := Describe(Type(42), "postgres")
	var unknownErr *UnknownTypeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
}

func TestCoerce_Integer(t *testing.T) {
	got, err := Coerce("42", Integer)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got.(int64) != 42 {
		t.Errorf("got %v, want 42", got)
	}

	got, err = Coerce(7, Integer)
	if err != nil || got.(int64) != 7 {
		t.Errorf("Coerce(7) = %v, %v", got, err)
	}

	// integral float is accepted, fractional is not
	if _, err := Coerce(3.0, Integer); err != nil {
		t.Errorf("Coerce(3.0) failed: %v", err)
	}
	if _, err := Coerce(3.5, Integer); err == nil {
		t.Error("Coerce(3.5, Integer) should fail")
	}
	if _, err := Coerce("abc", Integer); err == nil {
		t.Error("Coerce(abc, Integer) should fail")
	}
}

func TestCoerce_Float(t *testing.T) {
	got, err := Coerce("3.14", Float)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got.(float64) != 3.14 {
		t.Errorf("got %v, want 3.14", got)
	}

	_, err = Coerce("not-a-number", Float)
	var coErr *CoercionError
	if !errors.As(err, &coErr) {
		t.Fatalf("expected CoercionError, got %v", err)
	}
	if coErr.Type != Float {
		t.Errorf("CoercionError.Type = %v, want Float", coErr.Type)
	}
}

func TestCoerce_Boolean(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "false": false, "1": true, "0": false} {
		got, err := Coerce(raw, Boolean)
		if err != nil {
			t.Errorf("Coerce(%q) failed: %v", raw, err)
			continue
		}
		if got.(bool) != want {
			t.Errorf("Coerce(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, err := Coerce("yes please", Boolean); err == nil {
		t.Error("expected failure for non-boolean string")
	}
}

func TestCoerceTimestamp_FixedLayout(t *testing.T) {
	// day/month/year layout
	got, err := CoerceTimestamp("10/03/1957", "02/01/2006")
	if err != nil {
		t.Fatalf("CoerceTimestamp failed: %v", err)
	}
	ts := got.(time.Time)
	if ts.Year() != 1957 || ts.Month() != time.March || ts.Day() != 10 {
		t.Errorf("got %v, want 1957-03-10", ts)
	}
}

func TestCoerceTimestamp_Malformed(t *testing.T) {
	_, err := CoerceTimestamp("not-a-date", "02/01/2006")
	var coErr *CoercionError
	if !errors.As(err, &coErr) {
		t.Fatalf("expected CoercionError, got %v", err)
	}
	if coErr.Type != Timestamp {
		t.Errorf("CoercionError.Type = %v, want Timestamp", coErr.Type)
	}
}

func TestCoerceTimestamp_PassThrough(t *testing.T) {
	now := time.Now()
	got, err := CoerceTimestamp(now, DefaultTimestampLayout)
	if err != nil {
		t.Fatalf("CoerceTimestamp failed: %v", err)
	}
	if !got.(time.Time).Equal(now) {
		t.Errorf("time.Time input should pass through unchanged")
	}
}
