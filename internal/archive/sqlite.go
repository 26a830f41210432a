// Package archive persists every notification the sync engine has seen
// into a local SQLite database, so the history stays browsable offline.
// The live inbox never renders from the archive; it is a journal, not a
// cache.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/coffeemeet/internal/model"
)

// Filter controls filtering and pagination for archive queries.
type Filter struct {
	// Unread filters by read state when non-nil.
	Unread *bool

	// Type filters by notification type when non-nil.
	Type *model.NotificationType

	Limit  int
	Offset int
}

// Archive is a local SQLite journal of notifications.
type Archive struct {
	db *sqlx.DB
}

// Open opens (or creates) the archive database at dbPath, enables WAL
// mode, and runs any pending schema migrations. Parent directories are
// created as needed.
func Open(dbPath string) (*Archive, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	a := &Archive{db: db}
	if err := a.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return a, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (a *Archive) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := a.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = a.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := a.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertNotifications inserts or replaces a batch of notifications.
// Re-archiving the same record updates its read state in place.
func (a *Archive) UpsertNotifications(ctx context.Context, items []model.Notification) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO notifications (
			id, type, title, message, is_read, created_at, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, n := range items {
		_, err := stmt.ExecContext(ctx,
			n.ID, string(n.Type), n.Title, n.Message,
			boolToInt(n.IsRead), n.CreatedAt.UTC(), now,
		)
		if err != nil {
			return fmt.Errorf("upserting notification %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// GetNotifications queries the archive, newest first.
func (a *Archive) GetNotifications(ctx context.Context, f Filter) ([]model.Notification, error) {
	var (
		conds []string
		args  []interface{}
	)

	if f.Unread != nil {
		conds = append(conds, "is_read = ?")
		args = append(args, boolToInt(!*f.Unread))
	}
	if f.Type != nil {
		conds = append(conds, "type = ?")
		args = append(args, string(*f.Type))
	}

	query := "SELECT id, type, title, message, is_read, created_at FROM notifications"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := a.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var items []model.Notification
	for rows.Next() {
		var (
			n      model.Notification
			rawTyp string
			isRead int
		)
		if err := rows.Scan(
			&n.ID, &rawTyp, &n.Title, &n.Message, &isRead, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning archive row: %w", err)
		}
		n.Type = model.ParseNotificationType(rawTyp)
		n.IsRead = isRead != 0
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating archive rows: %w", err)
	}

	return items, nil
}

// Count returns the number of archived notifications.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	err := a.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications")
	if err != nil {
		return 0, fmt.Errorf("counting archive: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
