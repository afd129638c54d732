package ingest

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/analytics-infra/chrunner/internal/ch"
)

// reconcile.go matches an uncontrolled source's column names against the
// authoritative destination schema. Sources are third-party exports whose
// headers drift; unmatched source columns are silently dropped rather than
// failing the run, so a superset source still ingests.

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonWordRegex    = regexp.MustCompile(`[^\w]`)
)

// CleanColumnName normalizes a raw header name: strips a leading byte-order
// marker, trims surrounding whitespace, collapses internal whitespace runs to
// a single underscore, and drops any remaining non-word characters.
func CleanColumnName(name string) string {
	name = strings.ReplaceAll(name, "\ufeff", "")
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "_")
	name = nonWordRegex.ReplaceAllString(name, "")
	return name
}

// Reconciler matches source headers against destination schemas.
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler creates a reconciler emitting diagnostics to logger.
func NewReconciler(logger *slog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile produces the column mapping for a raw source header.
//
// Matching runs in two phases. Phase 1 matches cleaned source names against
// destination names exactly (case-sensitive), in source order. Phase 2 runs
// only when phase 1 matched nothing: a lower-cased lookup that maps each
// source column onto the destination's canonical-cased name. Zero matches
// from both phases yields an empty mapping, the defined failure signal.
func (r *Reconciler) Reconcile(rawHeader []string, schema ch.Schema) ColumnMapping {
	cleaned := make([]string, len(rawHeader))
	for i, name := range rawHeader {
		cleaned[i] = CleanColumnName(name)
	}

	var mapping ColumnMapping
	mapped := make(map[string]bool)

	// Phase 1: exact match.
	for i, name := range cleaned {
		if mapped[name] {
			continue
		}
		if destType, ok := schema.TypeOf(name); ok {
			mapping = append(mapping, MappedColumn{SourceIndex: i, DestName: name, DestType: destType})
			mapped[name] = true
		}
	}

	// Phase 2: case-insensitive fallback, only when nothing matched exactly.
	if len(mapping) == 0 {
		lower := make(map[string]ch.Column, len(schema))
		for _, col := range schema {
			lower[strings.ToLower(col.Name)] = col
		}

		for i, name := range cleaned {
			col, ok := lower[strings.ToLower(name)]
			if !ok || mapped[col.Name] {
				continue
			}
			mapping = append(mapping, MappedColumn{SourceIndex: i, DestName: col.Name, DestType: col.Type})
			mapped[col.Name] = true
		}
	}

	if len(mapping) == 0 {
		r.logger.Warn("no matching columns between source and destination",
			"source_columns", cleaned, "dest_columns", schema.Names())
	} else {
		r.logger.Info("reconciled source columns",
			"matched", len(mapping), "source_columns", len(rawHeader), "dest_columns", mapping.DestNames())
	}

	return mapping
}
