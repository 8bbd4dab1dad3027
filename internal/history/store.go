package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"taggerd/internal/config"
	"taggerd/internal/logging"
	"taggerd/internal/tagger"
)

// Entry is one recorded interrogation.
type Entry struct {
	ID        int64
	Queue     string
	Name      string
	Model     string
	TagCount  int
	TopTag    string
	TopScore  float64
	CreatedAt time.Time
}

// Store manages interrogation history persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	keep   int
	logger *slog.Logger
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	dbPath := cfg.HistoryDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   dbPath,
		keep:   cfg.History.Keep,
		logger: logger.With(logging.String("component", "history")),
	}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record implements batch.Recorder. Failures are logged, never propagated:
// history is best-effort and must not fail an interrogation.
func (s *Store) Record(queue, name, model string, res tagger.Result) {
	topTag, topScore := "", 0.0
	for tag, score := range res.Tags {
		if score > topScore {
			topTag, topScore = tag, score
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO interrogations (queue, name, model, tag_count, top_tag, top_score, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		queue, name, model, len(res.Tags), topTag, topScore, now,
	)
	if err != nil {
		s.logger.Warn("record interrogation", logging.Error(err))
		return
	}
	s.prune()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, queue, name, model, tag_count, top_tag, top_score, created_at
         FROM interrogations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Queue, &e.Name, &e.Model, &e.TagCount, &e.TopTag, &e.TopScore, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) prune() {
	if s.keep <= 0 {
		return
	}
	_, err := s.db.Exec(
		`DELETE FROM interrogations WHERE id NOT IN
           (SELECT id FROM interrogations ORDER BY id DESC LIMIT ?)`, s.keep)
	if err != nil {
		s.logger.Warn("prune history", logging.Error(err))
	}
}
