package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reputrack/reputrack/internal/aggregate"
	"github.com/reputrack/reputrack/internal/archive"
	"github.com/reputrack/reputrack/internal/classify"
	"github.com/reputrack/reputrack/internal/config"
	"github.com/reputrack/reputrack/internal/models"
	"github.com/reputrack/reputrack/internal/notifications"
	"github.com/reputrack/reputrack/internal/sources"
	"github.com/reputrack/reputrack/internal/store"
)

// ErrScopeInconsistent reports that a metric scope was deleted but the
// replacement buckets could not be written. The scope is left empty until a
// retry succeeds; retries are the caller's responsibility.
var ErrScopeInconsistent = errors.New("metric scope deleted but new buckets not written")

// textSeparator joins an entry's title and summary into one text blob.
const textSeparator = " - "

// Service wires fetch, classification, deduplication, persistence and
// aggregation into the two pipeline operations.
type Service struct {
	config     *config.Config
	store      store.Store
	classifier *classify.Classifier
	notifier   notifications.Notifier
	archiver   archive.Archiver
	sources    []sources.Source

	metrics *Metrics
	mu      sync.RWMutex

	// insertMu serializes the dedup-and-insert phase so the existence
	// probe stays effective across overlapping runs.
	insertMu sync.Mutex

	// scopeMu guards scopeLocks; each scope lock serializes aggregation
	// for one (target, source) since delete-then-insert is not atomic.
	scopeMu    sync.Mutex
	scopeLocks map[string]*sync.Mutex

	now func() time.Time
}

// Metrics holds run counters exposed on the metrics endpoint.
type Metrics struct {
	LastIngestion         time.Time      `json:"last_ingestion"`
	LastIngestionDuration string         `json:"last_ingestion_duration"`
	Inserted              int            `json:"inserted"`
	Skipped               int            `json:"skipped"`
	SourcesUsed           int            `json:"sources_used"`
	SourceCounts          map[string]int `json:"source_counts"`
	SentimentBreakdown    map[string]int `json:"sentiment_breakdown"`
	SourceErrors          int            `json:"source_errors"`
	LastAggregation       time.Time      `json:"last_aggregation"`
	BucketsWritten        int            `json:"buckets_written"`
}

// NewService creates a pipeline service over the given collaborators.
func NewService(cfg *config.Config, st store.Store, classifier *classify.Classifier,
	notifier notifications.Notifier, archiver archive.Archiver, srcs []sources.Source) *Service {
	return &Service{
		config:     cfg,
		store:      st,
		classifier: classifier,
		notifier:   notifier,
		archiver:   archiver,
		sources:    srcs,
		metrics: &Metrics{
			SourceCounts:       make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
		scopeLocks: make(map[string]*sync.Mutex),
		now:        time.Now,
	}
}

type sourceResult struct {
	name    string
	entries []sources.Entry
}

// RunIngestion fetches all configured sources, classifies and deduplicates
// their entries and persists the surviving batch. A failing source is
// counted and skipped; a failing batch insert fails the run.
func (s *Service) RunIngestion(ctx context.Context) (models.IngestionResult, error) {
	start := s.now()
	logrus.Infof("Starting ingestion run for target %q across %d sources", s.config.Target, len(s.sources))

	results, sourceErrors := s.fetchAll(ctx)

	var candidates []models.Mention
	var bySource []models.Mention // scratch, reused per source
	skipped := 0
	for _, result := range results {
		bySource = bySource[:0]
		for _, entry := range result.entries {
			mention, ok := s.buildMention(entry, result.name)
			if !ok {
				skipped++
				continue
			}
			bySource = append(bySource, mention)
		}
		candidates = append(candidates, bySource...)
	}

	inserted, duplicates, err := s.dedupAndInsert(ctx, candidates)
	skipped += duplicates
	if err != nil {
		return models.IngestionResult{}, fmt.Errorf("persisting batch: %w", err)
	}

	result := models.IngestionResult{
		SourcesUsed: len(results),
		Inserted:    len(inserted),
		Skipped:     skipped,
	}

	s.updateIngestionMetrics(inserted, result, time.Since(start), sourceErrors)
	s.archiveRun(ctx, inserted, result)

	logrus.Infof("Ingestion run finished: %d inserted, %d skipped, %d/%d sources ok (%v)",
		result.Inserted, result.Skipped, result.SourcesUsed, len(s.sources), time.Since(start))
	return result, nil
}

// fetchAll queries every source concurrently, each under its own timeout so
// one hanging feed cannot stall the run.
func (s *Service) fetchAll(ctx context.Context) ([]sourceResult, int) {
	var wg sync.WaitGroup
	resultsChan := make(chan sourceResult, len(s.sources))
	errorsChan := make(chan error, len(s.sources))

	timeout := time.Duration(s.config.FeedTimeout) * time.Second

	for _, source := range s.sources {
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			entries, err := src.Fetch(fetchCtx, s.config.PerFeedLimit)
			if err != nil {
				logrus.Errorf("Error fetching from %s: %v", src.Name(), err)
				errorsChan <- err
				return
			}

			logrus.Debugf("Fetched %d entries from %s", len(entries), src.Name())
			resultsChan <- sourceResult{name: src.Name(), entries: entries}
		}(source)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
		close(errorsChan)
	}()

	var results []sourceResult
	for result := range resultsChan {
		results = append(results, result)
	}

	errorCount := 0
	for range errorsChan {
		errorCount++
	}

	return results, errorCount
}

// buildMention normalizes one feed entry into a classified candidate.
// Entries with no usable text are rejected.
func (s *Service) buildMention(entry sources.Entry, sourceName string) (models.Mention, bool) {
	blob := strings.TrimSpace(entry.Title)
	summary := strings.TrimSpace(entry.Summary)
	if blob != "" && summary != "" {
		blob = blob + textSeparator + summary
	} else if blob == "" {
		blob = summary
	}

	if blob == "" {
		return models.Mention{}, false
	}
	if len(blob) > models.MaxTextLength {
		blob = blob[:models.MaxTextLength]
	}

	createdAt := s.now().UTC()
	if entry.Published != nil {
		createdAt = entry.Published.UTC()
	}

	classified := s.classifier.Classify(blob)

	return models.Mention{
		CreatedAt: createdAt,
		Source:    sourceName,
		Country:   s.config.Country,
		City:      s.config.City,
		Platform:  sourceName,
		Target:    s.config.Target,
		Author:    entry.Author,
		Title:     strings.TrimSpace(entry.Title),
		Text:      blob,
		URL:       entry.URL,
		Sentiment: classified.Sentiment,
		Score:     classified.Score,
		Topic:     classified.Topic,
		Lang:      s.config.Lang,
	}, true
}

// dedupAndInsert drops candidates whose URL is already stored, then inserts
// the rest as one batch. A failing existence probe does not drop the
// candidate: forward progress is preferred over a possible duplicate row.
func (s *Service) dedupAndInsert(ctx context.Context, candidates []models.Mention) ([]models.Mention, int, error) {
	s.insertMu.Lock()
	defer s.insertMu.Unlock()

	var batch []models.Mention
	duplicates := 0
	for _, candidate := range candidates {
		if candidate.URL != "" {
			exists, err := s.store.ExistsByURL(ctx, candidate.URL, candidate.Target)
			if err != nil {
				logrus.Warnf("Dedup check failed for %s, inserting anyway: %v", candidate.URL, err)
			} else if exists {
				duplicates++
				continue
			}
		}
		batch = append(batch, candidate)
	}

	if err := s.store.InsertMentions(ctx, batch); err != nil {
		return nil, duplicates, err
	}
	return batch, duplicates, nil
}

// RunAggregation recomputes the metric buckets for one (target, source)
// scope from since onward; a zero since falls back to the configured
// window. Runs for the same scope are serialized; the delete-then-insert
// replacement is not atomic across failures.
func (s *Service) RunAggregation(ctx context.Context, target, source string, since time.Time) (models.AggregationResult, error) {
	lock := s.scopeLock(target, source)
	lock.Lock()
	defer lock.Unlock()

	if since.IsZero() {
		since = s.now().UTC().Add(-time.Duration(s.config.AggregateWindowHours) * time.Hour)
	}
	logrus.Infof("Aggregating mentions for %s/%s since %s", target, source, since.Format(time.RFC3339))

	mentions, err := s.store.QueryRange(ctx, target, source, since)
	if err != nil {
		return models.AggregationResult{}, fmt.Errorf("reading mentions for aggregation: %w", err)
	}

	buckets := aggregate.Aggregate(mentions, target, source)

	if err := s.store.DeleteMetricBuckets(ctx, target, source); err != nil {
		return models.AggregationResult{}, fmt.Errorf("clearing previous buckets: %w", err)
	}
	if err := s.store.InsertMetricBuckets(ctx, buckets); err != nil {
		return models.AggregationResult{}, fmt.Errorf("%w: %v", ErrScopeInconsistent, err)
	}

	s.mu.Lock()
	s.metrics.LastAggregation = s.now()
	s.metrics.BucketsWritten = len(buckets)
	s.mu.Unlock()

	s.maybeAlert(mentions, buckets, target, source)

	logrus.Infof("Aggregation for %s/%s wrote %d buckets from %d mentions",
		target, source, len(buckets), len(mentions))
	return models.AggregationResult{BucketsWritten: len(buckets)}, nil
}

func (s *Service) scopeLock(target, source string) *sync.Mutex {
	s.scopeMu.Lock()
	defer s.scopeMu.Unlock()

	key := target + "|" + source
	lock, ok := s.scopeLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.scopeLocks[key] = lock
	}
	return lock
}

// maybeAlert sends a reputation report when the window-wide index falls
// below the configured threshold. Alert delivery is best-effort and never
// fails the aggregation run.
func (s *Service) maybeAlert(mentions []models.Mention, buckets []models.MetricBucket, target, source string) {
	if s.notifier == nil || len(buckets) == 0 {
		return
	}

	pos, neu, neg := 0, 0, 0
	for _, m := range mentions {
		switch m.Sentiment {
		case models.SentimentPositive:
			pos++
		case models.SentimentNegative:
			neg++
		default:
			neu++
		}
	}

	index := aggregate.ReputationIndex(pos, neu, neg)
	if index >= s.config.AlertThreshold {
		return
	}

	report := &models.Report{
		GeneratedAt:     s.now(),
		Target:          target,
		Source:          source,
		ReputationIndex: index,
		TotalMentions:   len(mentions),
		Buckets:         buckets,
		Summary: map[string]interface{}{
			"pos":                pos,
			"neu":                neu,
			"neg":                neg,
			"top_negative_topic": buckets[len(buckets)-1].TopNegativeTopic,
			"window_hours":       s.config.AggregateWindowHours,
		},
	}

	if err := s.notifier.SendReport(report); err != nil {
		logrus.Errorf("Failed to send reputation alert for %s/%s: %v", target, source, err)
	} else {
		logrus.Infof("Sent reputation alert for %s/%s (index %d)", target, source, index)
	}
}

// archiveRun stores a JSON snapshot of the run outcome. Best-effort: an
// archive failure is logged, never surfaced.
func (s *Service) archiveRun(ctx context.Context, inserted []models.Mention, result models.IngestionResult) {
	if s.archiver == nil {
		return
	}

	snapshot := struct {
		RunAt    time.Time              `json:"run_at"`
		Target   string                 `json:"target"`
		Result   models.IngestionResult `json:"result"`
		Mentions []models.Mention       `json:"mentions"`
	}{
		RunAt:    s.now().UTC(),
		Target:   s.config.Target,
		Result:   result,
		Mentions: inserted,
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		logrus.Errorf("Failed to marshal run snapshot: %v", err)
		return
	}

	name := fmt.Sprintf("runs/%s/%s.json", s.config.Target, s.now().UTC().Format("2006-01-02-15-04-05"))
	if err := s.archiver.Store(ctx, name, data); err != nil {
		logrus.Errorf("Failed to archive run snapshot %s: %v", name, err)
	}
}

func (s *Service) updateIngestionMetrics(inserted []models.Mention, result models.IngestionResult,
	duration time.Duration, sourceErrors int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastIngestion = s.now()
	s.metrics.LastIngestionDuration = duration.String()
	s.metrics.Inserted = result.Inserted
	s.metrics.Skipped = result.Skipped
	s.metrics.SourcesUsed = result.SourcesUsed
	s.metrics.SourceErrors = sourceErrors

	s.metrics.SourceCounts = make(map[string]int)
	s.metrics.SentimentBreakdown = make(map[string]int)
	for _, mention := range inserted {
		s.metrics.SourceCounts[mention.Source]++
		s.metrics.SentimentBreakdown[mention.Sentiment]++
	}
}

// MetricsJSON returns the current run metrics as indented JSON.
func (s *Service) MetricsJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
