package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/reputrack/reputrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mention(target, source, url, text string, createdAt time.Time) models.Mention {
	return models.Mention{
		CreatedAt: createdAt,
		Source:    source,
		Target:    target,
		Text:      text,
		URL:       url,
		Sentiment: models.SentimentNeutral,
		Score:     50,
		Topic:     models.TopicOther,
		Lang:      "es",
	}
}

func TestInsertAndQueryRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)

	err := s.InsertMentions(ctx, []models.Mention{
		mention("ayuntamiento", "rss", "https://a.com/1", "primera nota", base),
		mention("ayuntamiento", "rss", "https://a.com/2", "segunda nota", base.Add(time.Hour)),
		mention("ayuntamiento", "demo", "https://a.com/3", "tercera nota", base.Add(2*time.Hour)),
		mention("otro", "rss", "https://a.com/4", "otra entidad", base),
	})
	require.NoError(t, err)

	all, err := s.QueryRange(ctx, "ayuntamiento", "", base)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rssOnly, err := s.QueryRange(ctx, "ayuntamiento", "rss", base)
	require.NoError(t, err)
	assert.Len(t, rssOnly, 2)

	later, err := s.QueryRange(ctx, "ayuntamiento", "", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, later, 2)

	// Rows come back oldest first with UTC timestamps restored.
	require.NotEmpty(t, all)
	assert.Equal(t, base, all[0].CreatedAt)
	assert.Equal(t, "primera nota", all[0].Text)
	assert.NotZero(t, all[0].ID)
}

func TestInsertMentions_EmptyBatch(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.InsertMentions(context.Background(), nil))
}

func TestExistsByURL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.InsertMentions(ctx, []models.Mention{
		mention("ayuntamiento", "rss", "https://a.com/nota", "texto", now),
	}))

	exists, err := s.ExistsByURL(ctx, "https://a.com/nota", "ayuntamiento")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ExistsByURL(ctx, "https://a.com/otra", "ayuntamiento")
	require.NoError(t, err)
	assert.False(t, exists)

	// Same URL under a different target is not a duplicate.
	exists, err = s.ExistsByURL(ctx, "https://a.com/nota", "otro")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSearchMentions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertMentions(ctx, []models.Mention{
		mention("ayuntamiento", "rss", "https://a.com/1", "Fuga de agua en el centro", base),
		mention("ayuntamiento", "rss", "https://a.com/2", "nueva queja por el AGUA", base.Add(time.Hour)),
		mention("ayuntamiento", "rss", "https://a.com/3", "nota sin relacion", base.Add(2*time.Hour)),
	}))

	results, err := s.SearchMentions(ctx, "agua", "ayuntamiento", base, 50)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Newest first.
	assert.Equal(t, "nueva queja por el AGUA", results[0].Text)

	limited, err := s.SearchMentions(ctx, "agua", "", base, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMetricBucketsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)

	buckets := []models.MetricBucket{
		{
			BucketStart:      start,
			Target:           "ayuntamiento",
			Source:           "rss",
			MentionsCount:    3,
			PosCount:         2,
			NeuCount:         0,
			NegCount:         1,
			ReputationIndex:  67,
			TopNegativeTopic: "servicios",
			TopPositiveTopic: "seguridad",
		},
		{
			BucketStart:     start.Add(time.Hour),
			Target:          "ayuntamiento",
			Source:          "rss",
			MentionsCount:   1,
			NeuCount:        1,
			ReputationIndex: 50,
		},
	}
	require.NoError(t, s.InsertMetricBuckets(ctx, buckets))

	stored, err := s.MetricBuckets(ctx, "ayuntamiento", "rss", start)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// Newest first.
	assert.Equal(t, start.Add(time.Hour), stored[0].BucketStart)
	assert.Equal(t, 67, stored[1].ReputationIndex)
	assert.Equal(t, "servicios", stored[1].TopNegativeTopic)
}

func TestDeleteMetricBucketsScope(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertMetricBuckets(ctx, []models.MetricBucket{
		{BucketStart: start, Target: "ayuntamiento", Source: "rss", MentionsCount: 1, NeuCount: 1, ReputationIndex: 50},
		{BucketStart: start, Target: "ayuntamiento", Source: "demo", MentionsCount: 1, NeuCount: 1, ReputationIndex: 50},
	}))

	require.NoError(t, s.DeleteMetricBuckets(ctx, "ayuntamiento", "rss"))

	remaining, err := s.MetricBuckets(ctx, "ayuntamiento", "", start)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "demo", remaining[0].Source)
}

func TestInsertMetricBuckets_ReplaceAfterDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC)

	first := []models.MetricBucket{
		{BucketStart: start, Target: "ayuntamiento", Source: "rss", MentionsCount: 1, NeuCount: 1, ReputationIndex: 50},
	}
	require.NoError(t, s.InsertMetricBuckets(ctx, first))

	require.NoError(t, s.DeleteMetricBuckets(ctx, "ayuntamiento", "rss"))
	second := []models.MetricBucket{
		{BucketStart: start, Target: "ayuntamiento", Source: "rss", MentionsCount: 2, PosCount: 2, ReputationIndex: 100},
	}
	require.NoError(t, s.InsertMetricBuckets(ctx, second))

	stored, err := s.MetricBuckets(ctx, "ayuntamiento", "rss", start)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 100, stored[0].ReputationIndex)
}
