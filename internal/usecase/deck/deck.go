package usecase_deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/KentaroHashi12/Futarigohan/internal/service/progress"
)

var ErrNothingToSwipe = errors.New("nothing to swipe")

type SwipeLog interface {
	Record(ctx context.Context, user model.UserID, recipeID model.RecipeID, dir model.Direction) error
	SwipedIDs(ctx context.Context, user model.UserID) model.IDSet
	AllRecords(ctx context.Context) model.Snapshot
	Clear(ctx context.Context) error
	Subscribe(onChange func(model.Snapshot)) (unsubscribe func())
	Local() bool
}

type View struct {
	Identity  model.UserID      `json:"identity"`
	State     State             `json:"state"`
	Card      *model.Recipe     `json:"card,omitempty"`
	Remaining int               `json:"remaining"`
	Fallback  bool              `json:"fallback"`
	Matches   []model.Recipe    `json:"matches"`
	Self      progress.Progress `json:"self"`
	Partner   progress.Progress `json:"partner"`
	Live      bool              `json:"live"`
}

// Listener is called with the lock held after every state change; it must
// not call back into the Usecase.
type Listener func(v View, celebrated []model.Recipe)

// Usecase is one client instance: an acting identity, its deck session and
// a subscription to the shared swipe log.
type Usecase struct {
	mu sync.Mutex

	swipes  SwipeLog
	catalog *model.Catalog

	logger   *slog.Logger
	metrics  Metrics
	listener Listener
	shuffle  func(n int, swap func(i, j int))

	user        model.UserID
	session     *Session
	last        model.Snapshot
	unsubscribe func()
	closed      bool
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(u *Usecase) {
		u.metrics = m
	}
}

func WithListener(l Listener) Option {
	return func(u *Usecase) {
		u.listener = l
	}
}

func WithIdentity(user model.UserID) Option {
	return func(u *Usecase) {
		u.user = user
	}
}

// WithShuffle replaces rand.Shuffle for the regular deck draw.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(u *Usecase) {
		u.shuffle = shuffle
	}
}

func New(swipes SwipeLog, catalog *model.Catalog, opts ...Option) *Usecase {
	u := &Usecase{
		swipes:  swipes,
		catalog: catalog,
		logger:  slog.Default(),
		user:    model.UserA,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Start deals the first deck and subscribes to the swipe log. The initial
// snapshot is observed before Start returns.
func (u *Usecase) Start(ctx context.Context) View {
	u.mu.Lock()
	if u.unsubscribe != nil || u.closed {
		defer u.mu.Unlock()
		return u.viewLocked()
	}
	u.newSessionLocked(ctx)
	u.mu.Unlock()

	// Subscribe calls back synchronously, so the lock must be released.
	unsubscribe := u.swipes.Subscribe(u.onChange)

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		unsubscribe()
		return u.viewLocked()
	}
	u.unsubscribe = unsubscribe
	return u.viewLocked()
}

func (u *Usecase) Swipe(ctx context.Context, dir model.Direction) (View, error) {
	if !dir.Valid() {
		return View{}, fmt.Errorf("%w: %q", model.ErrInvalidDirection, dir)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.session.State() == StateMatched {
		return u.viewLocked(), ErrNothingToSwipe
	}
	card, ok := u.session.Front()
	if !ok {
		return u.viewLocked(), ErrNothingToSwipe
	}

	// A failed write is already logged by the store; the card still goes.
	if err := u.swipes.Record(ctx, u.user, card.ID, dir); err != nil {
		u.logger.Debug("swipe dropped",
			slog.String("recipe_id", card.ID),
			slog.String("error", err.Error()))
	}
	u.session.Pop()

	u.observeLocked(u.swipes.AllRecords(ctx))
	return u.viewLocked(), nil
}

// SwitchIdentity starts over as user. The swipe log is left as is.
func (u *Usecase) SwitchIdentity(ctx context.Context, user model.UserID) (View, error) {
	if !user.Valid() {
		return View{}, fmt.Errorf("%w: %q", model.ErrInvalidUser, user)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.user = user
	u.newSessionLocked(ctx)
	u.observeLocked(u.swipes.AllRecords(ctx))
	return u.viewLocked(), nil
}

// Refresh rebuilds the session for the current identity, e.g. after the
// log was cleared by another client.
func (u *Usecase) Refresh(ctx context.Context) View {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.newSessionLocked(ctx)
	u.observeLocked(u.swipes.AllRecords(ctx))
	return u.viewLocked()
}

// Reset wipes the whole shared log and rebuilds the session.
func (u *Usecase) Reset(ctx context.Context) View {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.swipes.Clear(ctx); err != nil {
		u.logger.Warn("reset left swipe log intact", slog.String("error", err.Error()))
	}
	u.newSessionLocked(ctx)
	u.observeLocked(u.swipes.AllRecords(ctx))
	return u.viewLocked()
}

func (u *Usecase) View() View {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.viewLocked()
}

func (u *Usecase) Identity() model.UserID {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.user
}

func (u *Usecase) Close() {
	u.mu.Lock()
	u.closed = true
	unsubscribe := u.unsubscribe
	u.unsubscribe = nil
	u.mu.Unlock()

	// The subscription goroutine may be waiting on the lock.
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (u *Usecase) onChange(snap model.Snapshot) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed || u.session == nil {
		return
	}
	u.observeLocked(snap)
}

func (u *Usecase) newSessionLocked(ctx context.Context) {
	u.session = NewSession(u.catalog, u.user, u.shuffle, u.metrics)
	u.session.Deal(u.swipes.SwipedIDs(ctx, u.user))
	u.last = nil

	u.logger.Info("deck dealt",
		slog.String("identity", string(u.user)),
		slog.Int("cards", u.session.Remaining()))
}

func (u *Usecase) observeLocked(snap model.Snapshot) {
	before := u.session.State()
	u.last = snap
	celebrated := u.session.Observe(snap)

	for _, r := range celebrated {
		u.logger.Info("match", slog.String("recipe_id", r.ID), slog.String("name", r.Name))
	}
	if after := u.session.State(); after != before {
		u.logger.Debug("deck state changed",
			slog.String("identity", string(u.user)),
			slog.String("from", string(before)),
			slog.String("to", string(after)))
	}

	if u.listener != nil {
		u.listener(u.viewLocked(), celebrated)
	}
}

func (u *Usecase) viewLocked() View {
	v := View{
		Identity: u.user,
		Matches:  []model.Recipe{},
		Live:     !u.swipes.Local(),
	}
	if u.session == nil {
		return v
	}

	v.State = u.session.State()
	v.Remaining = u.session.Remaining()
	v.Fallback = u.session.FallbackLoaded()
	if card, ok := u.session.Front(); ok {
		v.Card = &card
	}
	v.Matches = u.catalog.Resolve(u.session.Matches().Sorted())

	regular := u.catalog.RegularIDs()
	v.Self = progress.Summarize(u.last, u.user, regular)
	v.Partner = progress.Summarize(u.last, u.user.Partner(), regular)
	return v
}
