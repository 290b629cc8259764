package store

import (
	"context"
	"time"

	"github.com/reputrack/reputrack/internal/models"
)

// Store is the narrow persistence contract the pipeline depends on.
// Implementations must return all rows in range from QueryRange; aggregation
// correctness depends on completeness.
type Store interface {
	// InsertMentions bulk-inserts a batch. Any row failure fails the batch.
	InsertMentions(ctx context.Context, mentions []models.Mention) error

	// ExistsByURL reports whether a mention with this exact URL is already
	// stored for the target. Used as the dedup probe.
	ExistsByURL(ctx context.Context, url, target string) (bool, error)

	// QueryRange returns all mentions for a target created at or after
	// since, optionally restricted to one source (empty source means all).
	QueryRange(ctx context.Context, target, source string, since time.Time) ([]models.Mention, error)

	// DeleteMetricBuckets removes all buckets for a (target, source) scope.
	DeleteMetricBuckets(ctx context.Context, target, source string) error

	// InsertMetricBuckets writes freshly computed buckets.
	InsertMetricBuckets(ctx context.Context, buckets []models.MetricBucket) error

	// SearchMentions returns recent mentions whose text contains q
	// (case-insensitive), newest first.
	SearchMentions(ctx context.Context, q, target string, since time.Time, limit int) ([]models.Mention, error)

	// MetricBuckets returns stored buckets for a scope at or after since,
	// newest first (empty source means all sources).
	MetricBuckets(ctx context.Context, target, source string, since time.Time) ([]models.MetricBucket, error)
}
