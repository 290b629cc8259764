// Command seed-demo fills a local database with synthetic mentions and runs
// one aggregation pass, so dashboards have data without real feeds.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/reputrack/reputrack/internal/classify"
	"github.com/reputrack/reputrack/internal/config"
	"github.com/reputrack/reputrack/internal/pipeline"
	"github.com/reputrack/reputrack/internal/sources"
	"github.com/reputrack/reputrack/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatalf("Failed to load classifier rules: %v", err)
	}

	st, err := store.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	svc := pipeline.NewService(cfg, st, classify.New(rules), nil, nil,
		[]sources.Source{sources.NewDemoSource()})

	ctx := context.Background()

	ingested, err := svc.RunIngestion(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logrus.Infof("Seeded %d demo mentions (%d skipped)", ingested.Inserted, ingested.Skipped)

	aggregated, err := svc.RunAggregation(ctx, cfg.Target, "demo", time.Time{})
	if err != nil {
		log.Fatalf("Aggregation failed: %v", err)
	}
	logrus.Infof("Wrote %d metric buckets for %s/demo", aggregated.BucketsWritten, cfg.Target)
}
