package ch

import (
	"reflect"
	"testing"
)

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		chType string
		want   SemanticType
	}{
		{"Int8", TypeInteger},
		{"Int32", TypeInteger},
		{"Int64", TypeInteger},
		{"UInt8", TypeUnsignedInteger},
		{"UInt64", TypeUnsignedInteger},
		{"Float32", TypeFloat},
		{"Float64", TypeFloat},
		{"Double", TypeFloat},
		{"Date", TypeDate},
		{"Date32", TypeDate},
		{"DateTime", TypeDateTime},
		{"DateTime64(3)", TypeDateTime},
		{"DateTime('UTC')", TypeDateTime},
		{"String", TypeText},
		{"FixedString(32)", TypeText},
		{"Enum8('a' = 1)", TypeText},
		{"Decimal(18, 4)", TypeText},
		{"Nullable(Int64)", TypeInteger},
		{"Nullable(DateTime64(6))", TypeDateTime},
		{"LowCardinality(String)", TypeText},
		{"LowCardinality(Nullable(String))", TypeText},
		{"Nullable(UInt32)", TypeUnsignedInteger},
	}

	for _, tt := range tests {
		t.Run(tt.chType, func(t *testing.T) {
			if got := ParseColumnType(tt.chType); got != tt.want {
				t.Errorf("ParseColumnType(%q) = %v, want %v", tt.chType, got, tt.want)
			}
		})
	}
}

func TestSemanticTypeString(t *testing.T) {
	tests := []struct {
		typ  SemanticType
		want string
	}{
		{TypeInteger, "Integer"},
		{TypeUnsignedInteger, "UnsignedInteger"},
		{TypeFloat, "Float"},
		{TypeDate, "Date"},
		{TypeDateTime, "DateTime"},
		{TypeText, "Text"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("SemanticType(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestSchemaTypeOf(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: TypeUnsignedInteger},
		{Name: "event_time", Type: TypeDateTime},
		{Name: "name", Type: TypeText},
	}

	if typ, ok := schema.TypeOf("event_time"); !ok || typ != TypeDateTime {
		t.Errorf("TypeOf(event_time) = (%v, %v), want (DateTime, true)", typ, ok)
	}

	// Lookup is case-sensitive: the canonical casing is authoritative.
	if _, ok := schema.TypeOf("Event_Time"); ok {
		t.Error("TypeOf(Event_Time) matched, want case-sensitive miss")
	}

	if _, ok := schema.TypeOf("missing"); ok {
		t.Error("TypeOf(missing) matched, want miss")
	}
}

func TestSchemaNames(t *testing.T) {
	schema := Schema{
		{Name: "b", Type: TypeText},
		{Name: "a", Type: TypeText},
	}
	if got := schema.Names(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Names() = %v, want schema order preserved", got)
	}
}
