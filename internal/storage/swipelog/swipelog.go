package storage_swipelog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
)

var ErrNotRecorded = errors.New("swipe not recorded")

//go:generate mockery --name=Repository --output=./mocks --filename=repository.go
type Repository interface {
	Upsert(ctx context.Context, rec model.SwipeRecord) error
	LoadByUser(ctx context.Context, user model.UserID) (model.Snapshot, error)
	LoadAll(ctx context.Context) (model.Snapshot, error)
	DeleteAll(ctx context.Context) error
}

// Notifier fans change events out to every client sharing the log.
// Listen channels are closed once ctx is done.
//
//go:generate mockery --name=Notifier --output=./mocks --filename=notifier.go
type Notifier interface {
	Publish(ctx context.Context) error
	Listen(ctx context.Context) (<-chan struct{}, error)
}

type Metrics interface {
	SwipeRecorded(dir model.Direction)
	SwipeWriteFailed()
	StorageReadFailed()
}

type Storage struct {
	repo     Repository
	notifier Notifier

	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time

	// Bounds each snapshot read triggered by a notification.
	readTimeout time.Duration
}

type Option func(*Storage)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// WithNotifier turns the storage into the shared variant.
func WithNotifier(n Notifier) Option {
	return func(s *Storage) {
		s.notifier = n
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Storage) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

func New(repo Repository, opts ...Option) *Storage {
	s := &Storage{
		repo:        repo,
		logger:      slog.Default(),
		now:         time.Now,
		readTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) Local() bool {
	return s.notifier == nil
}

func (s *Storage) Record(ctx context.Context, user model.UserID, recipeID model.RecipeID, dir model.Direction) error {
	rec := model.SwipeRecord{
		UserID:    user,
		RecipeID:  recipeID,
		Direction: dir,
		Timestamp: s.now().UnixMilli(),
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		s.logger.Error("failed to record swipe",
			slog.String("user", string(user)),
			slog.String("recipe_id", recipeID),
			slog.String("direction", string(dir)),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.SwipeWriteFailed()
		}
		return fmt.Errorf("%w: %w", ErrNotRecorded, err)
	}
	if s.metrics != nil {
		s.metrics.SwipeRecorded(dir)
	}

	s.publish(ctx)
	return nil
}

func (s *Storage) SwipedIDs(ctx context.Context, user model.UserID) model.IDSet {
	ids := model.NewIDSet()
	recs, err := s.repo.LoadByUser(ctx, user)
	if err != nil {
		s.readFailed("failed to load swiped ids", err)
		return ids
	}
	for _, rec := range recs {
		ids.Add(rec.RecipeID)
	}
	return ids
}

func (s *Storage) AllRecords(ctx context.Context) model.Snapshot {
	recs, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.readFailed("failed to load swipe log", err)
		return model.Snapshot{}
	}
	return recs
}

func (s *Storage) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		s.logger.Error("failed to clear swipe log", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("swipe log cleared")

	s.publish(ctx)
	return nil
}

// Subscribe calls onChange with the current snapshot right away. The local
// variant never calls it again; the shared one calls it with a fresh
// snapshot after every change from any writer, own writes included.
func (s *Storage) Subscribe(onChange func(model.Snapshot)) (unsubscribe func()) {
	initCtx, cancelInit := context.WithTimeout(context.Background(), s.readTimeout)
	onChange(s.AllRecords(initCtx))
	cancelInit()

	if s.notifier == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := s.notifier.Listen(ctx)
	if err != nil {
		cancel()
		s.logger.Warn("live updates unavailable, snapshot delivered once",
			slog.String("error", err.Error()),
		)
		return func() {}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range events {
			readCtx, cancelRead := context.WithTimeout(ctx, s.readTimeout)
			snap := s.AllRecords(readCtx)
			cancelRead()
			if ctx.Err() != nil {
				return
			}
			onChange(snap)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

func (s *Storage) publish(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx); err != nil {
		s.logger.Warn("failed to publish swipe log change", slog.String("error", err.Error()))
	}
}

func (s *Storage) readFailed(msg string, err error) {
	s.logger.Error(msg, slog.String("error", err.Error()))
	if s.metrics != nil {
		s.metrics.StorageReadFailed()
	}
}
