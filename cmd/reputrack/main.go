package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/reputrack/reputrack/internal/archive"
	"github.com/reputrack/reputrack/internal/classify"
	"github.com/reputrack/reputrack/internal/config"
	"github.com/reputrack/reputrack/internal/notifications"
	"github.com/reputrack/reputrack/internal/pipeline"
	"github.com/reputrack/reputrack/internal/scheduler"
	"github.com/reputrack/reputrack/internal/sources"
	"github.com/reputrack/reputrack/internal/store"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting reputrack for target %q", cfg.Target)

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logrus.Fatalf("Failed to load classifier rules: %v", err)
	}

	st, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logrus.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	var archiver archive.Archiver = archive.NoopArchive{}
	if cfg.StorageAccount != "" {
		archiver, err = archive.NewAzureArchive(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize archive: %v", err)
		}
	}

	var notifier notifications.Notifier
	if cfg.TeamsWebhookURL != "" || cfg.NotificationEmail != "" {
		notifier = notifications.NewService(cfg)
	}

	pipelineService := pipeline.NewService(cfg, st, classify.New(rules), notifier, archiver, buildSources(cfg, rules))

	schedulerService := scheduler.NewService(cfg, pipelineService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(pipelineService)).Methods("GET")
	router.HandleFunc("/trigger/ingest", triggerIngestHandler(pipelineService)).Methods("POST")
	router.HandleFunc("/trigger/aggregate", triggerAggregateHandler(pipelineService, cfg)).Methods("POST")
	router.HandleFunc("/search", searchHandler(st)).Methods("GET")
	router.HandleFunc("/trending", trendingHandler(st, cfg)).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// buildSources assembles the feed list: RULES_FILE feeds win over FEED_URLS,
// and with neither configured the demo source keeps the pipeline usable.
func buildSources(cfg *config.Config, rules config.Rules) []sources.Source {
	feedURLs := cfg.FeedURLs
	if len(rules.Feeds) > 0 {
		feedURLs = rules.Feeds
	}

	var srcs []sources.Source
	for _, feedURL := range feedURLs {
		srcs = append(srcs, sources.NewRSSSource(feedURL))
	}
	if len(srcs) == 0 {
		logrus.Warn("No feeds configured, falling back to the demo source")
		srcs = append(srcs, sources.NewDemoSource())
	}
	return srcs
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}

func metricsHandler(p *pipeline.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(p.MetricsJSON()))
	}
}

func triggerIngestHandler(p *pipeline.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := p.RunIngestion(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, result)
	}
}

func triggerAggregateHandler(p *pipeline.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("target")
		if target == "" {
			target = cfg.Target
		}
		source := r.URL.Query().Get("source")

		var since time.Time
		if hours := queryInt(r, "since_hours", 0, 1, 720); hours > 0 {
			since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
		}

		result, err := p.RunAggregation(r.Context(), target, source, since)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, result)
	}
}

func searchHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if len(q) < 2 {
			writeError(w, http.StatusBadRequest, "q must be at least 2 characters")
			return
		}

		target := r.URL.Query().Get("target")
		limit := queryInt(r, "limit", 50, 1, 200)
		sinceHours := queryInt(r, "since_hours", 24, 1, 720)
		since := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)

		items, err := st.SearchMentions(r.Context(), q, target, since, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, map[string]interface{}{
			"q":     q,
			"count": len(items),
			"items": items,
		})
	}
}

func trendingHandler(st store.Store, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("target")
		if target == "" {
			target = cfg.Target
		}
		source := r.URL.Query().Get("source")
		sinceHours := queryInt(r, "since_hours", 24, 1, 720)
		since := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)

		buckets, err := st.MetricBuckets(r.Context(), target, source, since)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, map[string]interface{}{
			"target":  target,
			"count":   len(buckets),
			"buckets": buckets,
		})
	}
}

func queryInt(r *http.Request, key string, def, min, max int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < min || parsed > max {
		return def
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
