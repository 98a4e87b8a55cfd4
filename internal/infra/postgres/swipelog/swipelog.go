package infra_postgres_swipelog

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

type Driver struct {
	db      *sqlx.DB
	session string
	logger  *slog.Logger
}

func New(
	db *sqlx.DB,
	session string,
	logger *slog.Logger,
) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		db:      db,
		session: session,
		logger:  logger,
	}
}

type swipeDTO struct {
	SessionID string `db:"session_id"`
	UserID    string `db:"user_id"`
	RecipeID  string `db:"recipe_id"`
	Direction string `db:"direction"`
	Timestamp int64  `db:"timestamp"`
}

func (d *Driver) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, schemaSQL)
	return err
}

func (d *Driver) Upsert(ctx context.Context, rec model.SwipeRecord) error {
	const (
		q = `
		INSERT INTO swipes (session_id, user_id, recipe_id, direction, timestamp)
		VALUES (:session_id, :user_id, :recipe_id, :direction, :timestamp)
		ON CONFLICT (session_id, user_id, recipe_id)
		DO UPDATE SET direction = EXCLUDED.direction, timestamp = EXCLUDED.timestamp
		`
	)
	_, err := d.db.NamedExecContext(ctx, q, swipeDTO{
		SessionID: d.session,
		UserID:    string(rec.UserID),
		RecipeID:  rec.RecipeID,
		Direction: string(rec.Direction),
		Timestamp: rec.Timestamp,
	})
	return err
}

func (d *Driver) LoadByUser(ctx context.Context, user model.UserID) (model.Snapshot, error) {
	const (
		q = `
		SELECT session_id, user_id, recipe_id, direction, timestamp
		FROM swipes
		WHERE session_id = $1 AND user_id = $2
		ORDER BY timestamp, recipe_id
		`
	)
	var rows []swipeDTO
	if err := d.db.SelectContext(ctx, &rows, q, d.session, string(user)); err != nil {
		return nil, err
	}
	return d.toSnapshot(rows), nil
}

func (d *Driver) LoadAll(ctx context.Context) (model.Snapshot, error) {
	const (
		q = `
		SELECT session_id, user_id, recipe_id, direction, timestamp
		FROM swipes
		WHERE session_id = $1
		ORDER BY timestamp, user_id, recipe_id
		`
	)
	var rows []swipeDTO
	if err := d.db.SelectContext(ctx, &rows, q, d.session); err != nil {
		return nil, err
	}
	return d.toSnapshot(rows), nil
}

func (d *Driver) DeleteAll(ctx context.Context) error {
	const (
		q = `DELETE FROM swipes WHERE session_id = $1`
	)
	_, err := d.db.ExecContext(ctx, q, d.session)
	return err
}

func (d *Driver) toSnapshot(rows []swipeDTO) model.Snapshot {
	snap := make(model.Snapshot, 0, len(rows))
	for _, row := range rows {
		rec, err := model.ParseSwipeRecord(row.UserID, row.RecipeID, row.Direction, row.Timestamp)
		if err != nil {
			d.logger.Warn("skipping malformed swipe",
				slog.String("session", row.SessionID),
				slog.String("error", err.Error()))
			continue
		}
		snap = append(snap, rec)
	}
	return snap
}
