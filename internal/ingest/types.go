// Package ingest implements the schema-reconciling ingestion engine: source
// selection, tabular parsing, reconciliation of ad-hoc source columns against
// the destination schema, per-cell type coercion, and orchestrated bulk
// insertion into the destination store.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/analytics-infra/chrunner/internal/ch"
)

// DefaultRowCap bounds the number of data rows accepted from one source file.
const DefaultRowCap = 1_000_000

// Sentinel errors for the defined business failures. The orchestrator is the
// single place that translates them into a run outcome; truly unexpected
// conditions (network errors from collaborators) propagate wrapped.
var (
	// ErrNoSources means source resolution produced an empty manifest.
	ErrNoSources = errors.New("no source files matched")

	// ErrNoMatchingColumns means reconciliation found zero overlap between
	// the source header and the destination schema. Treated as a hard error:
	// it almost always indicates a wrong source/table pairing.
	ErrNoMatchingColumns = errors.New("no source columns matched the destination schema")

	// ErrBadConfig marks caller contract violations detected before any
	// external call is made.
	ErrBadConfig = errors.New("invalid ingestion configuration")
)

// configErrorf wraps ErrBadConfig with a formatted cause.
func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadConfig, fmt.Sprintf(format, args...))
}

// RawTable is parsed-but-untyped tabular content: the header as it appeared
// in the source (cleaning is the reconciler's job) and a capped sequence of
// raw rows. Rows may be shorter or longer than the header; downstream stages
// handle raggedness positionally.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// MappedColumn binds one source column position to a destination column.
type MappedColumn struct {
	SourceIndex int
	DestName    string
	DestType    ch.SemanticType
}

// ColumnMapping is the ordered projection from source columns onto the
// destination schema, in first-seen source order. An empty mapping is the
// defined reconciliation-failure value, not an error.
type ColumnMapping []MappedColumn

// DestNames returns the destination column names in mapping order.
func (m ColumnMapping) DestNames() []string {
	names := make([]string, len(m))
	for i, c := range m {
		names[i] = c.DestName
	}
	return names
}

// SourceManifest is the resolved, ordered list of concrete source locations
// for one ingestion run. Order defines processing order.
type SourceManifest []string

// Strategy selects how source files are resolved from the object store.
type Strategy int

const (
	// StrategyLatest picks the single most recent file by filename date.
	StrategyLatest Strategy = iota
	// StrategyForPeriod resolves exactly one file for a given period.
	StrategyForPeriod
	// StrategyAll resolves every matching file.
	StrategyAll
)

// String returns the CLI spelling of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyForPeriod:
		return "period"
	case StrategyAll:
		return "all"
	default:
		return "latest"
	}
}

// ParseStrategy maps a CLI/config value onto a Strategy. "date" is accepted
// as a legacy spelling of "period". Unknown values are a configuration error.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "latest":
		return StrategyLatest, nil
	case "period", "date":
		return StrategyForPeriod, nil
	case "all":
		return StrategyAll, nil
	default:
		return StrategyLatest, configErrorf("unknown ingestion strategy %q (expected latest, period, or all)", s)
	}
}

// Options carries the per-run knobs shared by all ingestor variants.
type Options struct {
	// SkipTableCreation skips the destination-table creation step.
	SkipTableCreation bool

	// Strategy selects source resolution for object-store ingestion.
	Strategy Strategy

	// Period is the period value for StrategyForPeriod (YYYY-MM-DD).
	Period string

	// Optimize runs a best-effort table optimize after a successful run.
	Optimize bool
}

// Ingestor is one source-family ingestion front. Variants share orchestrator
// sequencing, not behavior, so dispatch is by interface rather than
// inheritance.
type Ingestor interface {
	// Kind names the source family for logging ("tabular", "objstore",
	// "download").
	Kind() string

	// Ingest executes one full ingestion run. A nil return means the run
	// succeeded; any error means the run failed at the stage the error
	// describes. Partial per-source effects of a failed multi-source run
	// are not rolled back.
	Ingest(ctx context.Context, opts Options) error
}
