package ingest

import (
	"context"
	"fmt"

	"github.com/analytics-infra/chrunner/internal/drive"
)

// FileFetcher is the remote file-download capability the download ingestor
// consumes. Satisfied by *drive.Client.
type FileFetcher interface {
	GetMetadata(ctx context.Context, fileID string) (drive.Metadata, error)
	DownloadMedia(ctx context.Context, fileID string) ([]byte, error)
}

// DownloadIngestor ingests a single spreadsheet-style file fetched from a
// Drive-style download API through the reconciling pipeline.
type DownloadIngestor struct {
	pipeline  *Pipeline
	files     FileFetcher
	fileID    string
	table     string
	createSQL string
}

// NewDownloadIngestor creates the download ingestor for one file and
// destination table.
func NewDownloadIngestor(pipeline *Pipeline, files FileFetcher, fileID, table, createSQL string) *DownloadIngestor {
	return &DownloadIngestor{
		pipeline:  pipeline,
		files:     files,
		fileID:    fileID,
		table:     table,
		createSQL: createSQL,
	}
}

// Kind implements Ingestor.
func (d *DownloadIngestor) Kind() string { return "download" }

// Ingest runs: fetch file → ensure table → parse, reconcile, coerce, insert
// → verify row-count delta → optional optimize.
func (d *DownloadIngestor) Ingest(ctx context.Context, opts Options) error {
	if d.fileID == "" {
		return configErrorf("file id is required")
	}
	if d.table == "" {
		return configErrorf("destination table name is required")
	}

	p := d.pipeline

	meta, err := d.files.GetMetadata(ctx, d.fileID)
	if err != nil {
		return err
	}
	p.logger.Info("downloading file", "file_id", d.fileID, "name", meta.Name)

	raw, err := d.files.DownloadMedia(ctx, d.fileID)
	if err != nil {
		return err
	}
	p.logger.Info("download complete", "name", meta.Name, "bytes", len(raw))

	if err := p.ensureTable(ctx, d.createSQL, opts.SkipTableCreation); err != nil {
		return err
	}

	schema, err := p.store.Describe(ctx, d.table)
	if err != nil {
		return fmt.Errorf("describe destination table %s: %w", d.table, err)
	}

	countBefore, countOK := p.rowCount(ctx, d.table)

	sent, err := p.ingestRaw(ctx, d.table, schema, raw)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", meta.Name, err)
	}

	countAfter, afterOK := p.rowCount(ctx, d.table)
	p.reportDelta(d.table, countBefore, countAfter, countOK && afterOK, sent)

	if opts.Optimize {
		p.optimize(ctx, d.table)
	}

	return nil
}
