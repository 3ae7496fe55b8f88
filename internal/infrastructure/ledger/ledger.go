package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"PrintScout/internal/domain"
	"PrintScout/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_items (
	item_id      TEXT PRIMARY KEY,
	shortcode    TEXT,
	post_id      TEXT,
	owner        TEXT,
	source_url   TEXT,
	status       TEXT NOT NULL,
	processed_at TEXT NOT NULL,
	analysis     TEXT,
	local_path   TEXT
)`

// Ledger records per-item processing outcomes. The in-memory map is the
// authority for membership checks; the SQLite file is a write-through replica
// loaded once at startup. Database write failures are logged, never surfaced,
// so a broken disk cannot stall a run.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]domain.LedgerEntry

	db     *sql.DB
	clock  ports.Clock
	logger *slog.Logger
}

var _ ports.Ledger = (*Ledger)(nil)

// Open creates or loads the ledger database at path. The parent directory is
// created if missing.
func Open(path string, clock ports.Clock, logger *slog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	l := New(db, clock, logger)
	if err := l.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// New wires a ledger over an existing database handle. A nil db keeps the
// ledger purely in memory.
func New(db *sql.DB, clock ports.Clock, logger *slog.Logger) *Ledger {
	return &Ledger{
		entries: make(map[string]domain.LedgerEntry),
		db:      db,
		clock:   clock,
		logger:  logger,
	}
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) now() time.Time {
	if l.clock != nil {
		return l.clock.Now()
	}
	return time.Now()
}

func (l *Ledger) load() error {
	rows, err := sq.Select("item_id", "shortcode", "post_id", "owner", "source_url",
		"status", "processed_at", "analysis", "local_path").
		From("processed_items").
		RunWith(l.db).
		Query()
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		var status, processedAt string
		var analysis sql.NullString
		if err := rows.Scan(&e.ItemID, &e.ShortCode, &e.PostID, &e.Owner, &e.SourceURL,
			&status, &processedAt, &analysis, &e.LocalPath); err != nil {
			return fmt.Errorf("scanning ledger row: %w", err)
		}

		e.Status = domain.ProcessingStatus(status)
		// An unparseable timestamp loads as the zero time, which Cleanup treats
		// as older than any cutoff.
		if ts, parseErr := time.Parse(time.RFC3339, processedAt); parseErr == nil {
			e.ProcessedAt = ts
		} else if l.logger != nil {
			l.logger.Warn("ledger: unparseable processed_at", "itemId", e.ItemID, "value", processedAt)
		}
		if analysis.Valid && analysis.String != "" {
			var summary domain.AnalysisSummary
			if jsonErr := json.Unmarshal([]byte(analysis.String), &summary); jsonErr == nil {
				e.Analysis = &summary
			}
		}

		l.entries[e.ItemID] = e
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating ledger rows: %w", err)
	}

	if l.logger != nil {
		l.logger.Info("ledger loaded", "entries", len(l.entries))
	}
	return nil
}

// IsProcessed reports whether the item id has a terminal outcome recorded.
func (l *Ledger) IsProcessed(itemID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[itemID]
	return ok
}

// MarkProcessed records the outcome for an item, overwriting any previous
// entry for the same id.
func (l *Ledger) MarkProcessed(item domain.ContentItem, status domain.ProcessingStatus, analysis *domain.AnalysisSummary, localPath string) {
	entry := domain.LedgerEntry{
		ItemID:      item.ItemID,
		ShortCode:   item.ShortCode,
		PostID:      item.PostID,
		Owner:       item.Owner,
		SourceURL:   item.SourceURL,
		Status:      status,
		ProcessedAt: l.now(),
		Analysis:    analysis,
		LocalPath:   localPath,
	}

	l.mu.Lock()
	l.entries[entry.ItemID] = entry
	l.mu.Unlock()

	l.persist(entry)
}

func (l *Ledger) persist(e domain.LedgerEntry) {
	if l.db == nil {
		return
	}

	analysisJSON := ""
	if e.Analysis != nil {
		if raw, err := json.Marshal(e.Analysis); err == nil {
			analysisJSON = string(raw)
		}
	}

	_, err := sq.Insert("processed_items").
		Columns("item_id", "shortcode", "post_id", "owner", "source_url",
			"status", "processed_at", "analysis", "local_path").
		Values(e.ItemID, e.ShortCode, e.PostID, e.Owner, e.SourceURL,
			string(e.Status), e.ProcessedAt.Format(time.RFC3339), analysisJSON, e.LocalPath).
		Suffix(`ON CONFLICT(item_id) DO UPDATE SET
			status = excluded.status,
			processed_at = excluded.processed_at,
			analysis = excluded.analysis,
			local_path = excluded.local_path`).
		RunWith(l.db).
		Exec()
	if err != nil && l.logger != nil {
		l.logger.Warn("ledger: persist failed", "itemId", e.ItemID, "error", err)
	}
}

// Unprocessed filters the input down to items with no recorded outcome,
// preserving order.
func (l *Ledger) Unprocessed(items []domain.ContentItem) []domain.ContentItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fresh := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		if _, ok := l.entries[item.ItemID]; !ok {
			fresh = append(fresh, item)
		}
	}
	return fresh
}

// AcceptedCount returns the number of accepted entries.
func (l *Ledger) AcceptedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if e.Status == domain.StatusAccepted {
			n++
		}
	}
	return n
}

// Stats summarizes the ledger by status.
func (l *Ledger) Stats() domain.LedgerStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := domain.LedgerStats{Total: len(l.entries)}
	for _, e := range l.entries {
		switch e.Status {
		case domain.StatusAccepted:
			stats.Accepted++
		case domain.StatusRejected:
			stats.Rejected++
		case domain.StatusError:
			stats.Errors++
		}
	}
	if stats.Total > 0 {
		stats.AcceptanceRate = float64(stats.Accepted) / float64(stats.Total)
	}
	return stats
}

// Cleanup removes entries processed before the cutoff, including entries whose
// timestamp failed to parse at load time. Returns the number removed.
func (l *Ledger) Cleanup(olderThanDays int) int {
	cutoff := l.now().AddDate(0, 0, -olderThanDays)

	l.mu.Lock()
	var removed []string
	for id, e := range l.entries {
		if e.ProcessedAt.Before(cutoff) {
			delete(l.entries, id)
			removed = append(removed, id)
		}
	}
	l.mu.Unlock()

	if l.db != nil && len(removed) > 0 {
		_, err := sq.Delete("processed_items").
			Where(sq.Eq{"item_id": removed}).
			RunWith(l.db).
			Exec()
		if err != nil && l.logger != nil {
			l.logger.Warn("ledger: cleanup delete failed", "count", len(removed), "error", err)
		}
	}

	if l.logger != nil {
		l.logger.Info("ledger cleanup", "removed", len(removed), "olderThanDays", olderThanDays)
	}
	return len(removed)
}
