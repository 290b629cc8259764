package sources

import (
	"context"
	"time"
)

// Entry is one raw feed item before classification. All fields except the
// name of the source are optional; entries with no usable text are skipped
// downstream.
type Entry struct {
	Title     string
	Summary   string
	URL       string
	Author    string
	Published *time.Time
}

// Source interface defines the contract for all feed sources
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]Entry, error)
}
