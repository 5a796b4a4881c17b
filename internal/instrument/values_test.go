package instrument

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseValues_Floats(t *testing.T) {
	got := parseValues("5,6,7", ",", CastFloat, nil)
	want := []any{5.0, 6.0, 7.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseValues() = %v, want %v", got, want)
	}
}

func TestParseValues_StringFallback(t *testing.T) {
	// Tokens that fail the cast stay as raw strings.
	got := parseValues("5,abc,7", ",", CastFloat, nil)
	want := []any{5.0, "abc", 7.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseValues() = %v, want %v", got, want)
	}
}

func TestParseValues_CustomSeparator(t *testing.T) {
	got := parseValues("5;6;7", ";", CastInt, nil)
	want := []any{5, 6, 7}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseValues() = %v, want %v", got, want)
	}
}

func TestParseValues_SpacedTokens(t *testing.T) {
	got := parseValues(" 5, 6 ,7 ", ",", CastFloat, nil)
	want := []any{5.0, 6.0, 7.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseValues() = %v, want %v", got, want)
	}
}

func TestParseValues_Preprocess(t *testing.T) {
	strip := func(s string) string { return strings.TrimSuffix(s, " V") }
	got := parseValues("1.5 V", ",", CastFloat, strip)
	want := []any{1.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseValues() = %v, want %v", got, want)
	}
}

func TestParseValues_SingleEmptyReply(t *testing.T) {
	got := parseValues("", ",", CastFloat, nil)
	want := []any{""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseValues() = %v, want %v", got, want)
	}
}

func TestCastBool(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"1", true},
		{"0", false},
		{"2.5", true},
		{"-1", true},
	}
	for _, tt := range tests {
		got, err := CastBool(tt.token)
		if err != nil {
			t.Fatalf("CastBool(%q) error = %v", tt.token, err)
		}
		if got != tt.want {
			t.Errorf("CastBool(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestCastBool_NonNumeric(t *testing.T) {
	if _, err := CastBool("on"); err == nil {
		t.Error("CastBool(\"on\") expected error, got nil")
	}
}

func TestUnmapValue_Set(t *testing.T) {
	values := ValueSet{"a", "b", "c"}
	got, err := unmapValue(1.0, values)
	if err != nil {
		t.Fatalf("unmapValue() error = %v", err)
	}
	if got != "b" {
		t.Errorf("unmapValue() = %v, want %q", got, "b")
	}
}

func TestUnmapValue_SetOutOfRange(t *testing.T) {
	values := ValueSet{"a", "b"}
	if _, err := unmapValue(5.0, values); !errors.Is(err, ErrNotInMap) {
		t.Errorf("unmapValue() error = %v, want ErrNotInMap", err)
	}
}

func TestUnmapValue_Map(t *testing.T) {
	values := ValueMap{5: 1, 10: 2, 20: 3}
	got, err := unmapValue(2.0, values)
	if err != nil {
		t.Fatalf("unmapValue() error = %v", err)
	}
	if f, ok := toFloat(got); !ok || f != 10 {
		t.Errorf("unmapValue() = %v, want 10", got)
	}
}

func TestUnmapValue_MapMiss(t *testing.T) {
	values := ValueMap{5: 1, 10: 2}
	if _, err := unmapValue(9.0, values); !errors.Is(err, ErrNotInMap) {
		t.Errorf("unmapValue() error = %v, want ErrNotInMap", err)
	}
}

func TestUnmapValue_UnsupportedType(t *testing.T) {
	if _, err := unmapValue(1.0, 42); !errors.Is(err, ErrUnsupportedValues) {
		t.Errorf("unmapValue() error = %v, want ErrUnsupportedValues", err)
	}
}

func TestMapValue_Set(t *testing.T) {
	values := ValueSet{"a", "b", "c"}
	got, err := mapValue("c", values)
	if err != nil {
		t.Fatalf("mapValue() error = %v", err)
	}
	if got != 2 {
		t.Errorf("mapValue() = %v, want 2", got)
	}
}

func TestMapValue_MapNumericTolerance(t *testing.T) {
	// A float key written as an int must still resolve.
	values := ValueMap{5.0: "LOW", 10.0: "HIGH"}
	got, err := mapValue(10, values)
	if err != nil {
		t.Fatalf("mapValue() error = %v", err)
	}
	if got != "HIGH" {
		t.Errorf("mapValue() = %v, want %q", got, "HIGH")
	}
}

func TestMapValue_Miss(t *testing.T) {
	values := ValueMap{5: 1}
	if _, err := mapValue(7, values); !errors.Is(err, ErrNotInMap) {
		t.Errorf("mapValue() error = %v, want ErrNotInMap", err)
	}
}

func TestFormatCommand_Scalar(t *testing.T) {
	got := formatCommand("VOLT %g", 1.5)
	if got != "VOLT 1.5" {
		t.Errorf("formatCommand() = %q, want %q", got, "VOLT 1.5")
	}
}

func TestFormatCommand_Slice(t *testing.T) {
	got := formatCommand("SLOPE %d,%d", []any{1, 2})
	if got != "SLOPE 1,2" {
		t.Errorf("formatCommand() = %q, want %q", got, "SLOPE 1,2")
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{1.0, 1, true},
		{1, 1.0, true},
		{1.5, 1.5, true},
		{1.0, 2, false},
		{"x", "x", true},
		{"x", "y", false},
		{true, true, true},
		{true, 1.0, false},
	}
	for _, tt := range tests {
		if got := looseEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("looseEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
