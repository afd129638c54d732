package ingest

import (
	"reflect"
	"testing"

	"github.com/analytics-infra/chrunner/internal/ch"
)

func TestCleanColumnName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "event_time", want: "event_time"},
		{name: "leading bom", input: "\ufeffid", want: "id"},
		{name: "surrounding whitespace", input: "  name  ", want: "name"},
		{name: "internal space to underscore", input: "Event Time", want: "Event_Time"},
		{name: "whitespace run collapses", input: "Event \t  Time", want: "Event_Time"},
		{name: "non-word characters dropped", input: "price (USD)", want: "price_USD"},
		{name: "punctuation dropped", input: "rate-%", want: "rate"},
		{name: "already underscored", input: "created_at", want: "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanColumnName(tt.input); got != tt.want {
				t.Errorf("CleanColumnName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

var reconcileSchema = ch.Schema{
	{Name: "id", Type: ch.TypeUnsignedInteger},
	{Name: "event_time", Type: ch.TypeDateTime},
	{Name: "name", Type: ch.TypeText},
}

func TestReconcile_ExactMatch(t *testing.T) {
	r := NewReconciler(testLogger())

	got := r.Reconcile([]string{"id", "event_time", "extra_col"}, reconcileSchema)
	want := ColumnMapping{
		{SourceIndex: 0, DestName: "id", DestType: ch.TypeUnsignedInteger},
		{SourceIndex: 1, DestName: "event_time", DestType: ch.TypeDateTime},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_CaseInsensitiveFallback(t *testing.T) {
	r := NewReconciler(testLogger())

	// Cleaning turns "Event Time" into "Event_Time"; no exact match exists,
	// so the lower-cased fallback maps everything onto canonical names.
	got := r.Reconcile([]string{"ID", "Event Time", "Name"}, reconcileSchema)
	want := ColumnMapping{
		{SourceIndex: 0, DestName: "id", DestType: ch.TypeUnsignedInteger},
		{SourceIndex: 1, DestName: "event_time", DestType: ch.TypeDateTime},
		{SourceIndex: 2, DestName: "name", DestType: ch.TypeText},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_ExactSuppressesFallback(t *testing.T) {
	r := NewReconciler(testLogger())

	// One exact match means phase 2 never runs: "NAME" stays unmapped even
	// though it would match case-insensitively.
	got := r.Reconcile([]string{"id", "NAME"}, reconcileSchema)
	want := ColumnMapping{
		{SourceIndex: 0, DestName: "id", DestType: ch.TypeUnsignedInteger},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_NoOverlap(t *testing.T) {
	r := NewReconciler(testLogger())

	got := r.Reconcile([]string{"foo", "bar"}, reconcileSchema)
	if len(got) != 0 {
		t.Errorf("Reconcile() = %v, want empty mapping", got)
	}
}

func TestReconcile_DuplicateSourceColumns(t *testing.T) {
	r := NewReconciler(testLogger())

	// The first occurrence wins; a destination column maps at most once.
	got := r.Reconcile([]string{"id", "id", "name"}, reconcileSchema)
	want := ColumnMapping{
		{SourceIndex: 0, DestName: "id", DestType: ch.TypeUnsignedInteger},
		{SourceIndex: 2, DestName: "name", DestType: ch.TypeText},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	r := NewReconciler(testLogger())
	header := []string{"ID", "Event Time", "Name"}

	first := r.Reconcile(header, reconcileSchema)
	second := r.Reconcile(header, reconcileSchema)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Reconcile() not idempotent: %v vs %v", first, second)
	}
}

func TestColumnMappingDestNames(t *testing.T) {
	m := ColumnMapping{
		{SourceIndex: 3, DestName: "b"},
		{SourceIndex: 0, DestName: "a"},
	}
	if got := m.DestNames(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("DestNames() = %v, want mapping order preserved", got)
	}
}
