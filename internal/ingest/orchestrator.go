package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/analytics-infra/chrunner/internal/ch"
	"github.com/analytics-infra/chrunner/internal/sqltmpl"
)

// insertTableRegex extracts the target table from an INSERT INTO statement.
var insertTableRegex = regexp.MustCompile(`(?i)INSERT\s+INTO\s+([^\s(]+)`)

// extractTableName returns the table named by an INSERT INTO statement, or
// "" when the statement is not an insert.
func extractTableName(sql string) string {
	match := insertTableRegex.FindStringSubmatch(sql)
	if match == nil {
		return ""
	}
	return match[1]
}

// Pipeline carries the per-run machinery shared by all ingestor variants:
// the destination store handle, the template variables, the row cap, and the
// run-scoped logger. It owns the sequencing of ensure-table, the per-source
// parse → reconcile → coerce → insert chain, and row-count verification.
type Pipeline struct {
	store  ch.Store
	vars   map[string]string
	rowCap int
	logger *slog.Logger

	reconciler *Reconciler
	coercer    *Coercer
}

// NewPipeline assembles the shared machinery. vars may be nil; rowCap <= 0
// selects DefaultRowCap.
func NewPipeline(store ch.Store, vars map[string]string, rowCap int, logger *slog.Logger) *Pipeline {
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}
	return &Pipeline{
		store:      store,
		vars:       vars,
		rowCap:     rowCap,
		logger:     logger,
		reconciler: NewReconciler(logger),
		coercer:    NewCoercer(logger),
	}
}

// ensureTable renders and executes the create-table SQL unless the caller
// opted out. Creation failure fails the run.
func (p *Pipeline) ensureTable(ctx context.Context, createSQLPath string, skip bool) error {
	if skip {
		p.logger.Info("skipping table creation")
		return nil
	}
	if createSQLPath == "" {
		return configErrorf("create-table SQL path is required unless table creation is skipped")
	}

	sql, err := sqltmpl.LoadFile(createSQLPath, p.vars)
	if err != nil {
		return err
	}

	p.logger.Info("creating table", "sql_file", createSQLPath)
	if err := p.store.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table from %s: %w", createSQLPath, err)
	}
	return nil
}

// ingestRaw runs one source's bytes through parse → reconcile → coerce →
// bulk insert. It returns the number of rows sent to the store.
//
// A reconciliation with zero matched columns fails the whole run rather than
// skipping the source: a structurally mismatched source indicates a wrong
// source/table pairing worth stopping for. Cell-level coercion failures never
// escalate; even an all-empty row is inserted (as all NULLs), never dropped.
func (p *Pipeline) ingestRaw(ctx context.Context, table string, schema ch.Schema, raw []byte) (int, error) {
	tbl, err := Parse(raw, p.rowCap, p.logger)
	if err != nil {
		return 0, err
	}

	mapping := p.reconciler.Reconcile(tbl.Header, schema)
	if len(mapping) == 0 {
		return 0, fmt.Errorf("%w: table %s", ErrNoMatchingColumns, table)
	}

	rows := make([][]any, len(tbl.Rows))
	for i, raw := range tbl.Rows {
		rows[i] = p.coercer.CoerceRow(raw, mapping)
	}

	if err := p.store.BulkInsert(ctx, table, mapping.DestNames(), rows); err != nil {
		return 0, fmt.Errorf("bulk insert into %s: %w", table, err)
	}
	return len(rows), nil
}

// rowCount reads the table's current row count, degrading to a warning when
// the count itself fails: verification is an observability signal, not a
// gate.
func (p *Pipeline) rowCount(ctx context.Context, table string) (uint64, bool) {
	count, err := p.store.RowCount(ctx, table)
	if err != nil {
		p.logger.Warn("failed to read row count", "table", table, "error", err)
		return 0, false
	}
	return count, true
}

// reportDelta logs the observed row-count delta against the rows sent. The
// two can legitimately differ (destination-side dedup, partition overlap), so
// a mismatch is informational only.
func (p *Pipeline) reportDelta(table string, before, after uint64, ok bool, sent int) {
	if !ok {
		return
	}
	p.logger.Info("row count verified",
		"table", table,
		"count_before", before,
		"count_after", after,
		"rows_added", int64(after)-int64(before),
		"rows_sent", sent)
}

// optimize runs a best-effort table optimize. Failure is logged and
// swallowed; compaction is an optimization, not a correctness requirement.
func (p *Pipeline) optimize(ctx context.Context, table string) {
	p.logger.Info("optimizing table", "table", table)
	if err := ch.Optimize(ctx, p.store, table); err != nil {
		p.logger.Warn("table optimize failed", "table", table, "error", err)
	}
}

// ExecuteQueries renders and executes a sequence of SQL files in order,
// stopping at the first failure. This is the plain query-runner mode with no
// reconciliation involved.
func ExecuteQueries(ctx context.Context, store ch.Store, paths []string, vars map[string]string, logger *slog.Logger) error {
	for _, path := range paths {
		sql, err := sqltmpl.LoadFile(path, vars)
		if err != nil {
			return err
		}
		logger.Info("executing query file", "sql_file", path)
		if err := store.Exec(ctx, sql); err != nil {
			return fmt.Errorf("execute %s: %w", path, err)
		}
	}
	return nil
}
