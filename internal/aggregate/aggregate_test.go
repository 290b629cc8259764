package aggregate

import (
	"testing"
	"time"

	"github.com/reputrack/reputrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mk(hour, minute, second int, sentiment, topic string) models.Mention {
	return models.Mention{
		CreatedAt: time.Date(2026, 8, 10, hour, minute, second, 0, time.UTC),
		Sentiment: sentiment,
		Topic:     topic,
	}
}

func TestAggregate_HourFlooring(t *testing.T) {
	mentions := []models.Mention{
		mk(14, 37, 22, models.SentimentNeutral, models.TopicOther),
		mk(14, 5, 1, models.SentimentNeutral, models.TopicOther),
		mk(15, 0, 0, models.SentimentNeutral, models.TopicOther),
	}

	buckets := Aggregate(mentions, "ayuntamiento", "rss")
	require.Len(t, buckets, 2)

	assert.Equal(t, time.Date(2026, 8, 10, 14, 0, 0, 0, time.UTC), buckets[0].BucketStart)
	assert.Equal(t, 2, buckets[0].MentionsCount)
	assert.Equal(t, time.Date(2026, 8, 10, 15, 0, 0, 0, time.UTC), buckets[1].BucketStart)
	assert.Equal(t, 1, buckets[1].MentionsCount)
}

func TestAggregate_SparseBuckets(t *testing.T) {
	mentions := []models.Mention{
		mk(8, 0, 0, models.SentimentPositive, "seguridad"),
		mk(20, 0, 0, models.SentimentNegative, "servicios"),
	}

	buckets := Aggregate(mentions, "ayuntamiento", "rss")
	require.Len(t, buckets, 2, "hours without mentions must not produce buckets")
}

func TestAggregate_CountsAddUp(t *testing.T) {
	mentions := []models.Mention{
		mk(10, 1, 0, models.SentimentPositive, "seguridad"),
		mk(10, 2, 0, models.SentimentPositive, "servicios"),
		mk(10, 3, 0, models.SentimentNeutral, models.TopicOther),
		mk(10, 4, 0, models.SentimentNegative, "impuestos"),
	}

	buckets := Aggregate(mentions, "ayuntamiento", "rss")
	require.Len(t, buckets, 1)

	b := buckets[0]
	assert.Equal(t, 2, b.PosCount)
	assert.Equal(t, 1, b.NeuCount)
	assert.Equal(t, 1, b.NegCount)
	assert.Equal(t, b.MentionsCount, b.PosCount+b.NeuCount+b.NegCount)
	assert.Equal(t, "ayuntamiento", b.Target)
	assert.Equal(t, "rss", b.Source)
}

func TestAggregate_TopTopics(t *testing.T) {
	mentions := []models.Mention{
		mk(10, 1, 0, models.SentimentNegative, "servicios"),
		mk(10, 2, 0, models.SentimentNegative, "servicios"),
		mk(10, 3, 0, models.SentimentNegative, "impuestos"),
		mk(10, 4, 0, models.SentimentPositive, "seguridad"),
	}

	buckets := Aggregate(mentions, "ayuntamiento", "rss")
	require.Len(t, buckets, 1)

	assert.Equal(t, "servicios", buckets[0].TopNegativeTopic)
	assert.Equal(t, "seguridad", buckets[0].TopPositiveTopic)
}

func TestAggregate_TopTopicTieBreak(t *testing.T) {
	// "impuestos" and "servicios" tie at one negative mention each; the
	// alphabetically first topic must win regardless of map iteration order.
	mentions := []models.Mention{
		mk(10, 1, 0, models.SentimentNegative, "servicios"),
		mk(10, 2, 0, models.SentimentNegative, "impuestos"),
	}

	for i := 0; i < 20; i++ {
		buckets := Aggregate(mentions, "ayuntamiento", "rss")
		require.Len(t, buckets, 1)
		assert.Equal(t, "impuestos", buckets[0].TopNegativeTopic)
	}
}

func TestAggregate_NoTopTopicWithoutSentiment(t *testing.T) {
	mentions := []models.Mention{
		mk(10, 1, 0, models.SentimentNeutral, "servicios"),
	}

	buckets := Aggregate(mentions, "ayuntamiento", "rss")
	require.Len(t, buckets, 1)
	assert.Empty(t, buckets[0].TopPositiveTopic)
	assert.Empty(t, buckets[0].TopNegativeTopic)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, "ayuntamiento", "rss"))
}

func TestReputationIndex(t *testing.T) {
	tests := []struct {
		name     string
		pos      int
		neu      int
		neg      int
		expected int
	}{
		{"Empty bucket", 0, 0, 0, 50},
		{"All neutral", 0, 7, 0, 50},
		{"All positive", 10, 0, 0, 100},
		{"All negative", 0, 0, 10, 0},
		{"Balanced", 5, 0, 5, 50},
		{"Mostly positive", 3, 0, 1, 75},
		{"Mostly negative", 1, 0, 3, 25},
		{"Diluted by neutral", 1, 2, 1, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReputationIndex(tt.pos, tt.neu, tt.neg))
		})
	}
}

func TestReputationIndex_Bounds(t *testing.T) {
	for pos := 0; pos <= 5; pos++ {
		for neu := 0; neu <= 5; neu++ {
			for neg := 0; neg <= 5; neg++ {
				index := ReputationIndex(pos, neu, neg)
				assert.GreaterOrEqual(t, index, 0)
				assert.LessOrEqual(t, index, 100)
			}
		}
	}
}
