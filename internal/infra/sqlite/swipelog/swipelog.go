package infra_sqlite_swipelog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const InMemoryPath = ":memory:"

type Driver struct {
	db      *sqlx.DB
	session string
	logger  *slog.Logger
}

type swipeDTO struct {
	UserID    string `db:"user_id"`
	RecipeID  string `db:"recipe_id"`
	Direction string `db:"direction"`
	Timestamp int64  `db:"timestamp"`
}

// Open creates the database file if needed and applies the schema.
func Open(path string, session string, logger *slog.Logger) (*Driver, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	// One writer; also keeps a ":memory:" database alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{db: db, session: session, logger: logger}, nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}

func (d *Driver) Upsert(ctx context.Context, rec model.SwipeRecord) error {
	const (
		q = `
		INSERT INTO swipes (session_id, user_id, recipe_id, direction, timestamp)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, user_id, recipe_id)
		DO UPDATE SET direction = excluded.direction, timestamp = excluded.timestamp
		`
	)
	_, err := d.db.ExecContext(ctx, q,
		d.session,
		string(rec.UserID),
		rec.RecipeID,
		string(rec.Direction),
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert swipe: %w", err)
	}
	return nil
}

func (d *Driver) LoadByUser(ctx context.Context, user model.UserID) (model.Snapshot, error) {
	const (
		q = `
		SELECT user_id, recipe_id, direction, timestamp
		FROM swipes
		WHERE session_id = ? AND user_id = ?
		ORDER BY timestamp
		`
	)
	var rows []swipeDTO
	if err := d.db.SelectContext(ctx, &rows, q, d.session, string(user)); err != nil {
		return nil, fmt.Errorf("failed to load swipes of %s: %w", user, err)
	}
	return d.toSnapshot(rows), nil
}

func (d *Driver) LoadAll(ctx context.Context) (model.Snapshot, error) {
	const (
		q = `
		SELECT user_id, recipe_id, direction, timestamp
		FROM swipes
		WHERE session_id = ?
		ORDER BY timestamp
		`
	)
	var rows []swipeDTO
	if err := d.db.SelectContext(ctx, &rows, q, d.session); err != nil {
		return nil, fmt.Errorf("failed to load swipes: %w", err)
	}
	return d.toSnapshot(rows), nil
}

func (d *Driver) DeleteAll(ctx context.Context) error {
	const (
		q = `DELETE FROM swipes WHERE session_id = ?`
	)
	if _, err := d.db.ExecContext(ctx, q, d.session); err != nil {
		return fmt.Errorf("failed to delete swipes: %w", err)
	}
	return nil
}

func (d *Driver) toSnapshot(rows []swipeDTO) model.Snapshot {
	snap := make(model.Snapshot, 0, len(rows))
	for _, row := range rows {
		rec, err := model.ParseSwipeRecord(row.UserID, row.RecipeID, row.Direction, row.Timestamp)
		if err != nil {
			d.logger.Warn("skipping malformed swipe", slog.String("error", err.Error()))
			continue
		}
		snap = append(snap, rec)
	}
	return snap
}
