package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/reputrack/reputrack/internal/models"
)

// Aggregate buckets mentions into hour-aligned UTC windows and computes
// sentiment mix, top topics and the reputation index per bucket. Hours with
// no mentions produce no bucket. Buckets come back ordered by start time.
func Aggregate(mentions []models.Mention, target, source string) []models.MetricBucket {
	type tally struct {
		pos, neu, neg  int
		positiveTopics map[string]int
		negativeTopics map[string]int
	}

	tallies := make(map[time.Time]*tally)
	for _, m := range mentions {
		key := m.CreatedAt.UTC().Truncate(time.Hour)
		t, ok := tallies[key]
		if !ok {
			t = &tally{
				positiveTopics: make(map[string]int),
				negativeTopics: make(map[string]int),
			}
			tallies[key] = t
		}

		switch m.Sentiment {
		case models.SentimentPositive:
			t.pos++
			t.positiveTopics[m.Topic]++
		case models.SentimentNegative:
			t.neg++
			t.negativeTopics[m.Topic]++
		default:
			t.neu++
		}
	}

	buckets := make([]models.MetricBucket, 0, len(tallies))
	for start, t := range tallies {
		buckets = append(buckets, models.MetricBucket{
			BucketStart:      start,
			Target:           target,
			Source:           source,
			MentionsCount:    t.pos + t.neu + t.neg,
			PosCount:         t.pos,
			NeuCount:         t.neu,
			NegCount:         t.neg,
			ReputationIndex:  ReputationIndex(t.pos, t.neu, t.neg),
			TopPositiveTopic: topTopic(t.positiveTopics),
			TopNegativeTopic: topTopic(t.negativeTopics),
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].BucketStart.Before(buckets[j].BucketStart)
	})

	return buckets
}

// ReputationIndex maps a sentiment mix onto 0-100: 50 for all-neutral or
// empty, 100 for all-positive, 0 for all-negative.
func ReputationIndex(pos, neu, neg int) int {
	total := pos + neu + neg
	if total < 1 {
		total = 1
	}

	raw := (float64(pos-neg)/float64(total) + 1) * 50
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	return int(math.Round(raw))
}

// topTopic returns the most frequent topic, breaking count ties by topic
// name ascending so the result is deterministic.
func topTopic(counts map[string]int) string {
	best := ""
	bestCount := 0
	for topic, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || topic < best)) {
			best = topic
			bestCount = count
		}
	}
	return best
}
