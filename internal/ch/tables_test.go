package ch

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeStore records executed statements and serves canned introspection data.
type fakeStore struct {
	schemas  map[string]Schema
	counts   map[string]uint64
	maxDates map[string]string
	execErr  error
	executed []string
}

func (f *fakeStore) Exec(ctx context.Context, sql string) error {
	f.executed = append(f.executed, sql)
	return f.execErr
}

func (f *fakeStore) Describe(ctx context.Context, table string) (Schema, error) {
	s, ok := f.schemas[table]
	if !ok {
		return nil, errors.New("table does not exist")
	}
	return s, nil
}

func (f *fakeStore) RowCount(ctx context.Context, table string) (uint64, error) {
	return f.counts[table], nil
}

func (f *fakeStore) MaxDate(ctx context.Context, table, column string) (string, error) {
	return f.maxDates[table+"."+column], nil
}

func (f *fakeStore) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) error {
	return nil
}

func TestTableExists(t *testing.T) {
	store := &fakeStore{schemas: map[string]Schema{
		"analytics.events": {{Name: "id", Type: TypeUnsignedInteger}},
	}}

	if !TableExists(context.Background(), store, "analytics.events") {
		t.Error("TableExists() = false for existing table")
	}
	if TableExists(context.Background(), store, "analytics.missing") {
		t.Error("TableExists() = true for missing table")
	}
}

func TestTruncate(t *testing.T) {
	store := &fakeStore{}
	if err := Truncate(context.Background(), store, "analytics.events"); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	if len(store.executed) != 1 || !strings.HasPrefix(store.executed[0], "TRUNCATE TABLE") {
		t.Errorf("executed = %v, want one TRUNCATE TABLE statement", store.executed)
	}
}

func TestOptimize(t *testing.T) {
	store := &fakeStore{}
	if err := Optimize(context.Background(), store, "analytics.events"); err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if len(store.executed) != 1 || store.executed[0] != "OPTIMIZE TABLE analytics.events FINAL" {
		t.Errorf("executed = %v, want OPTIMIZE ... FINAL", store.executed)
	}

	store.execErr = errors.New("merges are processing")
	if err := Optimize(context.Background(), store, "analytics.events"); err == nil {
		t.Error("Optimize() with failing store succeeded, want error")
	}
}

func TestLatestDataDate(t *testing.T) {
	store := &fakeStore{maxDates: map[string]string{
		"analytics.events.day": "2024-02-10",
	}}

	got, err := LatestDataDate(context.Background(), store, "analytics.events", "day")
	if err != nil {
		t.Fatalf("LatestDataDate() error = %v", err)
	}
	if got != "2024-02-10" {
		t.Errorf("LatestDataDate() = %q, want %q", got, "2024-02-10")
	}

	// Empty table yields the empty string, not an error.
	got, err = LatestDataDate(context.Background(), store, "analytics.empty", "day")
	if err != nil || got != "" {
		t.Errorf("LatestDataDate() on empty table = (%q, %v), want (\"\", nil)", got, err)
	}
}
