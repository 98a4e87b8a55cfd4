package infra_redis_swipelog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/go-redis/redis"
)

// Driver keeps one hash per session; every field is "<user>:<recipe>".
type Driver struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func New(
	client *redis.Client,
	session string,
	logger *slog.Logger,
) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		client: client,
		key:    HashKey(session),
		logger: logger,
	}
}

func HashKey(session string) string {
	return "futarigohan:" + session + ":swipes"
}

func (d *Driver) Upsert(ctx context.Context, rec model.SwipeRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return d.client.WithContext(ctx).HSet(d.key, rec.Key(), raw).Err()
}

func (d *Driver) LoadByUser(ctx context.Context, user model.UserID) (model.Snapshot, error) {
	all, err := d.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	snap := make(model.Snapshot, 0, len(all))
	for _, rec := range all {
		if rec.UserID == user {
			snap = append(snap, rec)
		}
	}
	return snap, nil
}

func (d *Driver) LoadAll(ctx context.Context) (model.Snapshot, error) {
	fields, err := d.client.WithContext(ctx).HGetAll(d.key).Result()
	if err != nil {
		if err == redis.Nil {
			return model.Snapshot{}, nil
		}
		return nil, err
	}

	snap := make(model.Snapshot, 0, len(fields))
	for field, raw := range fields {
		var dto struct {
			UserID    string `json:"userId"`
			RecipeID  string `json:"recipeId"`
			Direction string `json:"direction"`
			Timestamp int64  `json:"timestamp"`
		}
		if err := json.Unmarshal([]byte(raw), &dto); err != nil {
			d.logger.Warn("skipping malformed swipe",
				slog.String("field", field),
				slog.String("error", err.Error()))
			continue
		}
		rec, err := model.ParseSwipeRecord(dto.UserID, dto.RecipeID, dto.Direction, dto.Timestamp)
		if err != nil {
			d.logger.Warn("skipping malformed swipe",
				slog.String("field", field),
				slog.String("error", err.Error()))
			continue
		}
		snap = append(snap, rec)
	}

	sort.SliceStable(snap, func(i, j int) bool {
		if snap[i].Timestamp != snap[j].Timestamp {
			return snap[i].Timestamp < snap[j].Timestamp
		}
		return snap[i].Key() < snap[j].Key()
	})
	return snap, nil
}

func (d *Driver) DeleteAll(ctx context.Context) error {
	return d.client.WithContext(ctx).Del(d.key).Err()
}
