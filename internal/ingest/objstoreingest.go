package ingest

import (
	"context"
	"fmt"

	"github.com/analytics-infra/chrunner/internal/objstore"
)

// ObjectStoreIngestor ingests delimited source files from an S3-compatible
// object store: resolve the manifest under the configured strategy, then run
// each file through the reconciling pipeline.
type ObjectStoreIngestor struct {
	pipeline   *Pipeline
	selector   *Selector
	downloader objstore.Downloader
	bucket     string
	pattern    string
	table      string
	createSQL  string
}

// NewObjectStoreIngestor creates the object-store ingestor for one
// destination table and path pattern.
func NewObjectStoreIngestor(pipeline *Pipeline, selector *Selector, downloader objstore.Downloader, bucket, pattern, table, createSQL string) *ObjectStoreIngestor {
	return &ObjectStoreIngestor{
		pipeline:   pipeline,
		selector:   selector,
		downloader: downloader,
		bucket:     bucket,
		pattern:    pattern,
		table:      table,
		createSQL:  createSQL,
	}
}

// Kind implements Ingestor.
func (o *ObjectStoreIngestor) Kind() string { return "objstore" }

// Ingest runs: ensure table → resolve sources → per source: download, parse,
// reconcile, coerce, insert → verify row-count delta → optional optimize.
//
// Sources are processed in manifest order, one at a time. A failure part-way
// through an all-strategy run leaves earlier sources' inserts in place; there
// is no rollback across sources.
func (o *ObjectStoreIngestor) Ingest(ctx context.Context, opts Options) error {
	if o.table == "" {
		return configErrorf("destination table name is required")
	}
	if o.pattern == "" {
		return configErrorf("source path pattern is required")
	}

	p := o.pipeline
	if err := p.ensureTable(ctx, o.createSQL, opts.SkipTableCreation); err != nil {
		return err
	}

	manifest, err := o.selector.Select(ctx, o.pattern, opts.Strategy, opts.Period)
	if err != nil {
		return err
	}

	schema, err := p.store.Describe(ctx, o.table)
	if err != nil {
		return fmt.Errorf("describe destination table %s: %w", o.table, err)
	}

	countBefore, countOK := p.rowCount(ctx, o.table)

	sent := 0
	for _, key := range manifest {
		p.logger.Info("ingesting source", "key", key)

		raw, err := o.downloader.Download(ctx, o.bucket, key)
		if err != nil {
			return err
		}

		n, err := p.ingestRaw(ctx, o.table, schema, raw)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", key, err)
		}
		sent += n
	}

	countAfter, afterOK := p.rowCount(ctx, o.table)
	p.reportDelta(o.table, countBefore, countAfter, countOK && afterOK, sent)

	if opts.Optimize {
		p.optimize(ctx, o.table)
	}

	return nil
}
