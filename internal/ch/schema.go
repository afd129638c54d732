// Package ch provides the ClickHouse destination-store handle: connection
// setup, schema introspection, row counting, and bulk insertion.
//
// The ingestion core only depends on the Store interface, so tests can use
// in-memory fakes and the core never sees driver types.
package ch

import "strings"

// SemanticType classifies a destination column for cell coercion.
type SemanticType int

const (
	TypeText SemanticType = iota
	TypeInteger
	TypeUnsignedInteger
	TypeFloat
	TypeDate
	TypeDateTime
)

// String returns a human-readable name for the semantic type.
func (t SemanticType) String() string {
	switch t {
	case TypeInteger:
		return "Integer"
	case TypeUnsignedInteger:
		return "UnsignedInteger"
	case TypeFloat:
		return "Float"
	case TypeDate:
		return "Date"
	case TypeDateTime:
		return "DateTime"
	default:
		return "Text"
	}
}

// Column is one destination column: its canonical name and semantic type.
type Column struct {
	Name string
	Type SemanticType
}

// Schema is the authoritative destination schema, in table column order.
// It is obtained once per ingestion run and treated as immutable.
type Schema []Column

// TypeOf returns the semantic type of the named column (case-sensitive).
func (s Schema) TypeOf(name string) (SemanticType, bool) {
	for _, c := range s {
		if c.Name == name {
			return c.Type, true
		}
	}
	return TypeText, false
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// ParseColumnType maps a ClickHouse type expression to a semantic type.
//
// Wrapper types (Nullable, LowCardinality) are unwrapped first. DateTime is
// checked before Date because the latter is a prefix of the former. Types
// with no numeric or temporal interpretation fall through to Text, which
// passes raw values to the driver unchanged.
func ParseColumnType(chType string) SemanticType {
	t := unwrapType(chType)

	switch {
	case strings.HasPrefix(t, "DateTime"):
		return TypeDateTime
	case strings.HasPrefix(t, "Date"):
		return TypeDate
	case strings.HasPrefix(t, "UInt"):
		return TypeUnsignedInteger
	case strings.HasPrefix(t, "Int"):
		return TypeInteger
	case strings.HasPrefix(t, "Float"), strings.HasPrefix(t, "Double"):
		return TypeFloat
	default:
		return TypeText
	}
}

// unwrapType strips Nullable(...) and LowCardinality(...) wrappers.
func unwrapType(t string) string {
	for {
		switch {
		case strings.HasPrefix(t, "Nullable(") && strings.HasSuffix(t, ")"):
			t = t[len("Nullable(") : len(t)-1]
		case strings.HasPrefix(t, "LowCardinality(") && strings.HasSuffix(t, ")"):
			t = t[len("LowCardinality(") : len(t)-1]
		default:
			return t
		}
	}
}
