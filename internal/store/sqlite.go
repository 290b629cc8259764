package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reputrack/reputrack/internal/models"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

const timeLayout = time.RFC3339

const schema = `
CREATE TABLE IF NOT EXISTS mentions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    source TEXT NOT NULL,
    country TEXT,
    city TEXT,
    platform TEXT,
    target TEXT NOT NULL,
    author TEXT,
    title TEXT,
    text TEXT NOT NULL,
    url TEXT,
    sentiment TEXT NOT NULL,
    score INTEGER NOT NULL,
    topic TEXT NOT NULL,
    lang TEXT
);

CREATE INDEX IF NOT EXISTS idx_mentions_target_url ON mentions(target, url);
CREATE INDEX IF NOT EXISTS idx_mentions_target_created ON mentions(target, created_at);

CREATE TABLE IF NOT EXISTS metric_buckets (
    bucket_start TEXT NOT NULL,
    target TEXT NOT NULL,
    source TEXT NOT NULL,
    mentions_count INTEGER NOT NULL,
    pos_count INTEGER NOT NULL,
    neu_count INTEGER NOT NULL,
    neg_count INTEGER NOT NULL,
    reputation_index INTEGER NOT NULL,
    top_negative_topic TEXT,
    top_positive_topic TEXT,
    PRIMARY KEY (target, source, bucket_start)
);
`

// Open creates or opens the SQLite database at the given path and ensures
// the schema exists.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// InsertMentions inserts the batch inside one transaction. A failing row
// rolls back the whole batch; the caller decides whether to retry.
func (s *SQLiteStore) InsertMentions(ctx context.Context, mentions []models.Mention) error {
	if len(mentions) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (created_at, source, country, city, platform, target,
			author, title, text, url, sentiment, score, topic, lang)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range mentions {
		_, err := stmt.ExecContext(ctx,
			m.CreatedAt.UTC().Format(timeLayout), m.Source, m.Country, m.City,
			m.Platform, m.Target, m.Author, m.Title, m.Text, m.URL,
			m.Sentiment, m.Score, m.Topic, m.Lang)
		if err != nil {
			return fmt.Errorf("inserting mention %q: %w", m.URL, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ExistsByURL(ctx context.Context, url, target string) (bool, error) {
	var exists int
	err := s.conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM mentions WHERE url = ? AND target = ?)",
		url, target).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking url existence: %w", err)
	}
	return exists != 0, nil
}

func (s *SQLiteStore) QueryRange(ctx context.Context, target, source string, since time.Time) ([]models.Mention, error) {
	query := `SELECT id, created_at, source, country, city, platform, target,
		author, title, text, url, sentiment, score, topic, lang
		FROM mentions WHERE target = ? AND created_at >= ?`
	args := []any{target, since.UTC().Format(timeLayout)}

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying mentions: %w", err)
	}
	defer rows.Close()
	return scanMentions(rows)
}

func (s *SQLiteStore) DeleteMetricBuckets(ctx context.Context, target, source string) error {
	_, err := s.conn.ExecContext(ctx,
		"DELETE FROM metric_buckets WHERE target = ? AND source = ?", target, source)
	if err != nil {
		return fmt.Errorf("deleting metric buckets: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertMetricBuckets(ctx context.Context, buckets []models.MetricBucket) error {
	if len(buckets) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO metric_buckets (bucket_start, target, source, mentions_count,
			pos_count, neu_count, neg_count, reputation_index,
			top_negative_topic, top_positive_topic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range buckets {
		_, err := stmt.ExecContext(ctx,
			b.BucketStart.UTC().Format(timeLayout), b.Target, b.Source,
			b.MentionsCount, b.PosCount, b.NeuCount, b.NegCount,
			b.ReputationIndex, b.TopNegativeTopic, b.TopPositiveTopic)
		if err != nil {
			return fmt.Errorf("inserting bucket %s: %w", b.BucketStart.Format(timeLayout), err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SearchMentions(ctx context.Context, q, target string, since time.Time, limit int) ([]models.Mention, error) {
	query := `SELECT id, created_at, source, country, city, platform, target,
		author, title, text, url, sentiment, score, topic, lang
		FROM mentions WHERE text LIKE ? AND created_at >= ?`
	args := []any{"%" + q + "%", since.UTC().Format(timeLayout)}

	if target != "" {
		query += " AND target = ?"
		args = append(args, target)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching mentions: %w", err)
	}
	defer rows.Close()
	return scanMentions(rows)
}

func (s *SQLiteStore) MetricBuckets(ctx context.Context, target, source string, since time.Time) ([]models.MetricBucket, error) {
	query := `SELECT bucket_start, target, source, mentions_count, pos_count,
		neu_count, neg_count, reputation_index, top_negative_topic, top_positive_topic
		FROM metric_buckets WHERE target = ? AND bucket_start >= ?`
	args := []any{target, since.UTC().Format(timeLayout)}

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY bucket_start DESC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying metric buckets: %w", err)
	}
	defer rows.Close()

	var buckets []models.MetricBucket
	for rows.Next() {
		var b models.MetricBucket
		var start string
		if err := rows.Scan(&start, &b.Target, &b.Source, &b.MentionsCount,
			&b.PosCount, &b.NeuCount, &b.NegCount, &b.ReputationIndex,
			&b.TopNegativeTopic, &b.TopPositiveTopic); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, start)
		if err != nil {
			return nil, fmt.Errorf("parsing bucket_start %q: %w", start, err)
		}
		b.BucketStart = parsed.UTC()
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func scanMentions(rows *sql.Rows) ([]models.Mention, error) {
	var mentions []models.Mention
	for rows.Next() {
		var m models.Mention
		var createdAt string
		if err := rows.Scan(&m.ID, &createdAt, &m.Source, &m.Country, &m.City,
			&m.Platform, &m.Target, &m.Author, &m.Title, &m.Text, &m.URL,
			&m.Sentiment, &m.Score, &m.Topic, &m.Lang); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		m.CreatedAt = parsed.UTC()
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}
