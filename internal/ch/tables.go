package ch

import (
	"context"
	"fmt"
)

// TableExists probes for a table by describing it.
func TableExists(ctx context.Context, store Store, table string) bool {
	_, err := store.Describe(ctx, table)
	return err == nil
}

// Truncate removes all rows from a table.
func Truncate(ctx context.Context, store Store, table string) error {
	if err := store.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

// Optimize forces a merge of the table's parts. Callers treat failure as
// non-fatal; ingestion correctness never depends on it.
func Optimize(ctx context.Context, store Store, table string) error {
	if err := store.Exec(ctx, fmt.Sprintf("OPTIMIZE TABLE %s FINAL", table)); err != nil {
		return fmt.Errorf("optimize %s: %w", table, err)
	}
	return nil
}

// LatestDataDate returns the most recent date present in a table's date
// column, or "" for an empty table.
func LatestDataDate(ctx context.Context, store Store, table, dateColumn string) (string, error) {
	return store.MaxDate(ctx, table, dateColumn)
}
