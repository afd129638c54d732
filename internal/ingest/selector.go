package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/analytics-infra/chrunner/internal/dates"
	"github.com/analytics-infra/chrunner/internal/objstore"
)

// periodPlaceholder is the token in a path pattern substituted with the
// period value under StrategyForPeriod.
const periodPlaceholder = "{{DATE}}"

// Selector resolves which object-store source files one ingestion run reads.
type Selector struct {
	lister objstore.Lister
	bucket string
	logger *slog.Logger
}

// NewSelector creates a selector listing from one bucket.
func NewSelector(lister objstore.Lister, bucket string, logger *slog.Logger) *Selector {
	return &Selector{lister: lister, bucket: bucket, logger: logger}
}

// Select resolves the manifest of object keys to ingest.
//
// Latest lists under the pattern's directory prefix, filters to the pattern's
// file extension, and picks the single key with the highest filename-embedded
// YYYY-MM-DD date (unparseable dates sort earliest, never crash). ForPeriod
// substitutes the mandatory period value into the pattern's placeholder
// without any listing. All returns every extension-matching key in listing
// order. An empty result is ErrNoSources.
func (s *Selector) Select(ctx context.Context, pattern string, strategy Strategy, period string) (SourceManifest, error) {
	switch strategy {
	case StrategyForPeriod:
		if period == "" {
			return nil, configErrorf("period is required for the period strategy")
		}
		key := strings.ReplaceAll(pattern, periodPlaceholder, period)
		s.logger.Info("resolved source for period", "period", period, "key", s.locator(key))
		return SourceManifest{key}, nil

	case StrategyLatest:
		keys, err := s.listMatching(ctx, pattern)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: bucket %s pattern %s", ErrNoSources, s.bucket, pattern)
		}

		sort.Slice(keys, func(i, j int) bool {
			di, dj := filenameDate(keys[i]), filenameDate(keys[j])
			if di.Equal(dj) {
				return keys[i] > keys[j]
			}
			return di.After(dj)
		})

		s.logger.Info("resolved latest source", "candidates", len(keys), "key", s.locator(keys[0]))
		return SourceManifest{keys[0]}, nil

	case StrategyAll:
		keys, err := s.listMatching(ctx, pattern)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: bucket %s pattern %s", ErrNoSources, s.bucket, pattern)
		}

		s.logger.Info("resolved all sources", "count", len(keys))
		return SourceManifest(keys), nil

	default:
		return nil, configErrorf("unknown strategy %d", strategy)
	}
}

// listMatching lists keys under the pattern's directory prefix and filters
// them to the pattern's file extension (no filter when the pattern has none).
func (s *Selector) listMatching(ctx context.Context, pattern string) ([]string, error) {
	prefix := ""
	if idx := strings.LastIndex(pattern, "/"); idx >= 0 {
		prefix = pattern[:idx]
	}

	keys, err := s.lister.List(ctx, s.bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list sources under %s/%s: %w", s.bucket, prefix, err)
	}

	ext := path.Ext(path.Base(pattern))
	if ext == "" {
		return keys, nil
	}

	var matching []string
	for _, key := range keys {
		if strings.HasSuffix(key, ext) {
			matching = append(matching, key)
		}
	}
	return matching, nil
}

// filenameDate extracts the YYYY-MM-DD date embedded in a key's final path
// segment. Keys without a parseable date sort as the earliest possible value.
func filenameDate(key string) time.Time {
	base := path.Base(key)
	stem := strings.TrimSuffix(base, path.Ext(base))

	ts, err := time.Parse(dates.Layout, stem)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// locator renders a key as a fully qualified object path for logging.
func (s *Selector) locator(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}
