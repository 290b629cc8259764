package classify

import (
	"strings"

	"github.com/reputrack/reputrack/internal/config"
	"github.com/reputrack/reputrack/internal/models"
)

// Classifier assigns a sentiment label and a topic to a text blob using
// keyword heuristics. It is a pure function of its input: the same text
// always yields the same result.
type Classifier struct {
	positive []string
	negative []string
	topics   []config.TopicRule
}

// Result holds the outcome of classifying one text blob.
type Result struct {
	Sentiment string
	Score     int // heuristic intensity, 0-100
	Topic     string
}

// New creates a Classifier from the given keyword tables.
func New(rules config.Rules) *Classifier {
	return &Classifier{
		positive: lowerAll(rules.Positive),
		negative: lowerAll(rules.Negative),
		topics:   rules.Topics,
	}
}

// Classify tags text with a sentiment and a topic. Every input maps to
// exactly one sentiment; empty text is neutral with the catch-all topic.
func (c *Classifier) Classify(text string) Result {
	lowered := strings.ToLower(text)

	net := countMatches(lowered, c.positive) - countMatches(lowered, c.negative)

	sentiment := models.SentimentNeutral
	switch {
	case net >= 1:
		sentiment = models.SentimentPositive
	case net <= -1:
		sentiment = models.SentimentNegative
	}

	return Result{
		Sentiment: sentiment,
		Score:     intensityScore(net),
		Topic:     c.topic(lowered),
	}
}

// topic returns the first configured rule with any keyword present in the
// lowered text. Rule order is significant: earlier rules win on overlap.
func (c *Classifier) topic(lowered string) string {
	for _, rule := range c.topics {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				return rule.Name
			}
		}
	}
	return models.TopicOther
}

// countMatches counts keywords present in the text. Each keyword counts at
// most once regardless of how often it occurs.
func countMatches(lowered string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			count++
		}
	}
	return count
}

// intensityScore maps the net keyword balance onto 0-100, centered at 50.
func intensityScore(net int) int {
	score := 50 + net*10
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
