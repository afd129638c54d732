package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/analytics-infra/chrunner/internal/ch"
	"github.com/analytics-infra/chrunner/internal/sqltmpl"
)

// TabularPathIngestor ingests via SQL templates alone: the rendered insert
// statement pulls tabular data through the destination store's own table
// functions (url(), s3()) so no bytes flow through this process. Typically
// used for remote execution results addressed by an execution ID template
// variable.
type TabularPathIngestor struct {
	store       ch.Store
	vars        map[string]string
	createSQL   string
	insertSQL   string
	optimizeSQL string
	logger      *slog.Logger
}

// NewTabularPathIngestor creates the SQL-template-driven ingestor.
// optimizeSQL may be empty when no post-ingestion compaction is wanted.
func NewTabularPathIngestor(store ch.Store, vars map[string]string, createSQL, insertSQL, optimizeSQL string, logger *slog.Logger) *TabularPathIngestor {
	return &TabularPathIngestor{
		store:       store,
		vars:        vars,
		createSQL:   createSQL,
		insertSQL:   insertSQL,
		optimizeSQL: optimizeSQL,
		logger:      logger,
	}
}

// Kind implements Ingestor.
func (t *TabularPathIngestor) Kind() string { return "tabular" }

// Ingest creates the destination table (unless skipped), executes the
// rendered insert statement, and reports the observed row-count delta for
// the table named by the insert.
func (t *TabularPathIngestor) Ingest(ctx context.Context, opts Options) error {
	if t.insertSQL == "" {
		return configErrorf("insert SQL path is required")
	}

	if !opts.SkipTableCreation {
		if t.createSQL == "" {
			return configErrorf("create-table SQL path is required unless table creation is skipped")
		}
		createQuery, err := sqltmpl.LoadFile(t.createSQL, t.vars)
		if err != nil {
			return err
		}
		t.logger.Info("creating table", "sql_file", t.createSQL)
		if err := t.store.Exec(ctx, createQuery); err != nil {
			return fmt.Errorf("create table from %s: %w", t.createSQL, err)
		}
	}

	insertQuery, err := sqltmpl.LoadFile(t.insertSQL, t.vars)
	if err != nil {
		return err
	}

	table := extractTableName(insertQuery)
	var countBefore uint64
	if table != "" {
		if countBefore, err = t.store.RowCount(ctx, table); err != nil {
			return fmt.Errorf("count rows before insert: %w", err)
		}
		t.logger.Info("row count before insert", "table", table, "count", countBefore)
	}

	t.logger.Info("inserting data", "sql_file", t.insertSQL)
	if err := t.store.Exec(ctx, insertQuery); err != nil {
		return fmt.Errorf("insert from %s: %w", t.insertSQL, err)
	}

	if table != "" {
		countAfter, err := t.store.RowCount(ctx, table)
		if err != nil {
			t.logger.Warn("failed to read row count after insert", "table", table, "error", err)
		} else {
			t.logger.Info("row count after insert",
				"table", table, "count", countAfter, "rows_added", int64(countAfter)-int64(countBefore))
		}
	}

	if t.optimizeSQL != "" {
		optimizeQuery, err := sqltmpl.LoadFile(t.optimizeSQL, t.vars)
		if err != nil {
			t.logger.Warn("failed to load optimize SQL", "sql_file", t.optimizeSQL, "error", err)
			return nil
		}
		t.logger.Info("optimizing table", "sql_file", t.optimizeSQL)
		if err := t.store.Exec(ctx, optimizeQuery); err != nil {
			t.logger.Warn("table optimize failed", "sql_file", t.optimizeSQL, "error", err)
		}
	}

	return nil
}
