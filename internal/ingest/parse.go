package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Parse turns raw delimited bytes into a header plus a capped sequence of raw
// rows.
//
// Standard CSV structure: newline records, comma fields, double-quoted fields
// may contain separators and newlines. Ragged records pass through as-is;
// raggedness is handled positionally downstream, not rejected here. Rows past
// rowCap are dropped; truncation is reported once as a warning, never as an
// error.
func Parse(raw []byte, rowCap int, logger *slog.Logger) (RawTable, error) {
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return RawTable{}, errors.New("source is empty: no header row")
	}
	if err != nil {
		return RawTable{}, fmt.Errorf("read header row: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return RawTable{}, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}

		if len(rows) >= rowCap {
			logger.Warn("row cap reached, truncating source", "row_cap", rowCap)
			break
		}
		rows = append(rows, record)
	}

	logger.Info("parsed source", "columns", len(header), "rows", len(rows))
	return RawTable{Header: header, Rows: rows}, nil
}
