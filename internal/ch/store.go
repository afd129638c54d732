package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/analytics-infra/chrunner/internal/config"
)

// Store is the destination-store handle the ingestion core operates on.
//
// The methods map onto the operations the core actually performs: DDL/DML
// execution, schema introspection, count/max aggregates, and bulk insertion.
// Implementations are expected to surface driver errors unchanged; retry
// policy, if any, belongs to the driver.
type Store interface {
	// Exec runs a statement with no result set (DDL, INSERT ... SELECT).
	Exec(ctx context.Context, sql string) error

	// Describe returns the destination schema for a table.
	Describe(ctx context.Context, table string) (Schema, error)

	// RowCount returns the current number of rows in a table.
	RowCount(ctx context.Context, table string) (uint64, error)

	// MaxDate returns the latest value of a Date/DateTime column in
	// YYYY-MM-DD form, or "" if the table is empty.
	MaxDate(ctx context.Context, table, column string) (string, error)

	// BulkInsert appends rows under the given column names. A nil cell
	// becomes NULL in the destination.
	BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) error
}

// Client implements Store over the clickhouse-go native-protocol driver.
type Client struct {
	conn   driver.Conn
	logger *slog.Logger
}

// Connect opens a ClickHouse connection from config and verifies it with a
// ping before returning.
func Connect(ctx context.Context, cfg config.ClickHouseConfig, logger *slog.Logger) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
	}
	if cfg.Secure {
		opts.TLS = &tls.Config{InsecureSkipVerify: !cfg.Verify}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info("clickhouse connection established",
		"host", cfg.Host, "port", cfg.Port, "database", cfg.Database, "secure", cfg.Secure)

	return &Client{conn: conn, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Exec runs a statement with no result set.
func (c *Client) Exec(ctx context.Context, sql string) error {
	c.logger.Debug("executing statement", "sql", truncateSQL(sql))
	return c.conn.Exec(ctx, sql)
}

// Describe introspects a table via DESCRIBE TABLE and maps each column's
// ClickHouse type to its semantic type, preserving table column order.
func (c *Client) Describe(ctx context.Context, table string) (Schema, error) {
	rows, err := c.conn.Query(ctx, fmt.Sprintf("DESCRIBE TABLE %s", table))
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	var schema Schema
	for rows.Next() {
		// DESCRIBE TABLE yields seven String columns; only name and type matter.
		var name, chType, defaultType, defaultExpr, comment, codec, ttl string
		if err := rows.Scan(&name, &chType, &defaultType, &defaultExpr, &comment, &codec, &ttl); err != nil {
			return nil, fmt.Errorf("scan describe row for %s: %w", table, err)
		}
		schema = append(schema, Column{Name: name, Type: ParseColumnType(chType)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	return schema, nil
}

// RowCount returns the current row count of a table.
func (c *Client) RowCount(ctx context.Context, table string) (uint64, error) {
	var count uint64
	row := c.conn.QueryRow(ctx, fmt.Sprintf("SELECT count() FROM %s", table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}

// MaxDate returns the latest value of a date column, date part only.
func (c *Client) MaxDate(ctx context.Context, table, column string) (string, error) {
	count, err := c.RowCount(ctx, table)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", nil
	}

	var max time.Time
	row := c.conn.QueryRow(ctx, fmt.Sprintf("SELECT max(%s) FROM %s", column, table))
	if err := row.Scan(&max); err != nil {
		return "", fmt.Errorf("max(%s) on %s: %w", column, table, err)
	}
	return max.Format("2006-01-02"), nil
}

// BulkInsert appends rows via a prepared batch.
func (c *Client) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) error {
	stmt := fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
	batch, err := c.conn.PrepareBatch(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare batch for %s: %w", table, err)
	}
	for i, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("append row %d to batch for %s: %w", i, table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch to %s: %w", table, err)
	}
	return nil
}

// truncateSQL shortens long statements for log output.
func truncateSQL(sql string) string {
	const max = 100
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) <= max {
		return sql
	}
	return sql[:max] + "..."
}
