package ingest

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/analytics-infra/chrunner/internal/ch"
)

// coerce.go converts raw string cells to destination column types.
//
// Third-party exports routinely contain a few malformed cells; failing a
// multi-million-row batch over one bad timestamp is the wrong trade-off, so
// every coercion failure degrades to a NULL (nil) cell with a warning and the
// run proceeds.

// isoLayoutsZ are tried first for values carrying a trailing UTC marker.
// The marker is stripped and the value treated as naive local time; the
// destination stores it without timezone adjustment.
var isoLayoutsZ = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
}

// timestampLayouts are tried in order; the first successful parse wins.
//
// The DD/MM vs MM/DD ambiguity is deliberately resolved by try order alone:
// sources carry no locale hint, and downstream data depends on the existing
// order. Do not reorder without product-owner review.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Coercer converts raw cells to typed destination values.
type Coercer struct {
	logger *slog.Logger
}

// NewCoercer creates a coercer emitting diagnostics to logger.
func NewCoercer(logger *slog.Logger) *Coercer {
	return &Coercer{logger: logger}
}

// Coerce converts one raw cell to the destination column's semantic type.
//
// An empty raw value is nil (NULL) for every destination type; it never
// becomes a zero or empty-string sentinel. A value that fails to parse is
// also nil, logged at warning level.
func (c *Coercer) Coerce(raw string, destType ch.SemanticType) any {
	if raw == "" {
		return nil
	}

	switch destType {
	case ch.TypeDateTime:
		if ts, ok := parseTimestamp(raw); ok {
			return ts
		}
		c.logger.Warn("failed to parse timestamp", "value", raw)
		return nil

	case ch.TypeDate:
		ts, ok := parseTimestamp(raw)
		if !ok {
			c.logger.Warn("failed to parse date", "value", raw)
			return nil
		}
		// Keep the date component, discard the time.
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())

	case ch.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.logger.Warn("failed to parse integer", "value", raw)
			return nil
		}
		return n

	case ch.TypeUnsignedInteger:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.logger.Warn("failed to parse unsigned integer", "value", raw)
			return nil
		}
		return n

	case ch.TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.logger.Warn("failed to parse float", "value", raw)
			return nil
		}
		return f

	default:
		// Text needs no conversion.
		return raw
	}
}

// CoerceRow projects one raw row through the column mapping, producing a
// fixed-length row aligned to the mapping's destination order. Cells the raw
// row does not carry (ragged input) are nil.
func (c *Coercer) CoerceRow(row []string, mapping ColumnMapping) []any {
	out := make([]any, len(mapping))
	for i, col := range mapping {
		if col.SourceIndex >= len(row) {
			continue
		}
		out[i] = c.Coerce(row[col.SourceIndex], col.DestType)
	}
	return out
}

// parseTimestamp tries the candidate formats in priority order.
func parseTimestamp(s string) (time.Time, bool) {
	if stripped, ok := strings.CutSuffix(s, "Z"); ok {
		for _, layout := range isoLayoutsZ {
			if ts, err := time.Parse(layout, stripped); err == nil {
				return ts, true
			}
		}
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}

	return time.Time{}, false
}
