package models

import "time"

// Sentiment labels assigned by the classifier.
const (
	SentimentPositive = "pos"
	SentimentNeutral  = "neu"
	SentimentNegative = "neg"
)

// TopicOther is the catch-all topic when no configured rule matches.
const TopicOther = "otros"

// MaxTextLength is the cap applied to mention text before persistence.
const MaxTextLength = 2000

// Mention represents one observed piece of text about a monitored target.
// Mentions are immutable once stored.
type Mention struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"` // always UTC
	Source    string    `json:"source"`     // "rss", "demo", ...
	Country   string    `json:"country"`
	City      string    `json:"city"`
	Platform  string    `json:"platform"`
	Target    string    `json:"target"`
	Author    string    `json:"author,omitempty"`
	Title     string    `json:"title,omitempty"`
	Text      string    `json:"text"`
	URL       string    `json:"url,omitempty"` // dedup key when present
	Sentiment string    `json:"sentiment"`     // "pos", "neu" or "neg"
	Score     int       `json:"score"`         // heuristic intensity, 0-100
	Topic     string    `json:"topic"`
	Lang      string    `json:"lang"`
}

// MetricBucket aggregates mentions for one target/source over one
// hour-aligned window.
type MetricBucket struct {
	BucketStart      time.Time `json:"bucket_start"` // floored to the hour, UTC
	Target           string    `json:"target"`
	Source           string    `json:"source"`
	MentionsCount    int       `json:"mentions_count"`
	PosCount         int       `json:"pos_count"`
	NeuCount         int       `json:"neu_count"`
	NegCount         int       `json:"neg_count"`
	ReputationIndex  int       `json:"reputation_index"` // 0-100
	TopNegativeTopic string    `json:"top_negative_topic,omitempty"`
	TopPositiveTopic string    `json:"top_positive_topic,omitempty"`
}

// IngestionResult summarizes one ingestion run.
type IngestionResult struct {
	SourcesUsed int `json:"sources_used"`
	Inserted    int `json:"inserted"`
	Skipped     int `json:"skipped"`
}

// AggregationResult summarizes one aggregation run.
type AggregationResult struct {
	BucketsWritten int `json:"buckets_written"`
}

// Report is the payload sent through notification channels after an
// aggregation run trips the reputation alert threshold.
type Report struct {
	GeneratedAt     time.Time              `json:"generated_at"`
	Target          string                 `json:"target"`
	Source          string                 `json:"source"`
	ReputationIndex int                    `json:"reputation_index"`
	TotalMentions   int                    `json:"total_mentions"`
	Buckets         []MetricBucket         `json:"buckets"`
	Summary         map[string]interface{} `json:"summary"`
}
