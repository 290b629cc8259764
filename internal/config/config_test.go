package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ayuntamiento", cfg.Target)
	assert.Equal(t, 20, cfg.PerFeedLimit)
	assert.Equal(t, 72, cfg.AggregateWindowHours)
}

func TestLoad_PerFeedLimitClamped(t *testing.T) {
	t.Setenv("PER_FEED_LIMIT", "500")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MaxPerFeedLimit, cfg.PerFeedLimit)
}

func TestLoad_InvalidPerFeedLimit(t *testing.T) {
	t.Setenv("PER_FEED_LIMIT", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EmailRequiresSMTP(t *testing.T) {
	t.Setenv("NOTIFICATION_EMAIL", "alerts@example.com")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FeedURLs(t *testing.T) {
	t.Setenv("FEED_URLS", "https://a.com/rss, https://b.com/rss")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/rss", "https://b.com/rss"}, cfg.FeedURLs)
}

func TestDefaultRules_TopicOrder(t *testing.T) {
	rules := DefaultRules()

	require.NotEmpty(t, rules.Topics)
	// servicios (agua) must come before impuestos so overlapping texts
	// resolve to servicios.
	var serviciosIdx, impuestosIdx int
	for i, rule := range rules.Topics {
		switch rule.Name {
		case "servicios":
			serviciosIdx = i
		case "impuestos":
			impuestosIdx = i
		}
	}
	assert.Less(t, serviciosIdx, impuestosIdx)
}

func TestLoadRules_EmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestLoadRules_OverlaysFile(t *testing.T) {
	content := `
positive: [bueno, genial]
topics:
  - name: parques
    keywords: [parque, jardin]
feeds:
  - https://example.com/rss
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"bueno", "genial"}, rules.Positive)
	require.Len(t, rules.Topics, 1)
	assert.Equal(t, "parques", rules.Topics[0].Name)
	assert.Equal(t, []string{"https://example.com/rss"}, rules.Feeds)

	// Sections absent from the file keep their defaults.
	assert.Equal(t, DefaultRules().Negative, rules.Negative)
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules("/nonexistent/rules.yaml")
	assert.Error(t, err)
}
