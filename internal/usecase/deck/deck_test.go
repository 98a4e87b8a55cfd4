package usecase_deck

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	infra_sqlite_swipelog "github.com/KentaroHashi12/Futarigohan/internal/infra/sqlite/swipelog"
	storage_swipelog "github.com/KentaroHashi12/Futarigohan/internal/storage/swipelog"
	"github.com/google/uuid"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type DeckUsecaseSuite struct {
	suite.Suite
}

type failingRepo struct {
	storage_swipelog.Repository
}

func (failingRepo) Upsert(context.Context, model.SwipeRecord) error {
	return errors.New("disk full")
}

type recorder struct {
	mu         sync.Mutex
	celebrated []string
	views      []View
}

func (r *recorder) listen(v View, celebrated []model.Recipe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	for _, c := range celebrated {
		r.celebrated = append(r.celebrated, c.ID)
	}
}

func (r *recorder) celebrations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.celebrated...)
}

type env struct {
	repo    *infra_sqlite_swipelog.Driver
	storage *storage_swipelog.Storage
	catalog *model.Catalog
	ctx     context.Context
}

func newEnv(t provider.T, shared bool, regular int) *env {
	repo, err := infra_sqlite_swipelog.Open(infra_sqlite_swipelog.InMemoryPath, "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	var opts []storage_swipelog.Option
	if shared {
		opts = append(opts, storage_swipelog.WithNotifier(storage_swipelog.NewBroadcast()))
	}
	return &env{
		repo:    repo,
		storage: storage_swipelog.New(repo, opts...),
		catalog: testCatalog(regular),
		ctx:     context.Background(),
	}
}

func (e *env) client(t provider.T, user model.UserID, opts ...Option) *Usecase {
	opts = append([]Option{WithIdentity(user), WithShuffle(noShuffle)}, opts...)
	u := New(e.storage, e.catalog, opts...)
	u.Start(e.ctx)
	t.Cleanup(u.Close)
	return u
}

func swipeN(t provider.T, ctx context.Context, u *Usecase, dir model.Direction, n int) View {
	var v View
	for i := 0; i < n; i++ {
		var err error
		v, err = u.Swipe(ctx, dir)
		require.NoError(t, err)
	}
	return v
}

func (s *DeckUsecaseSuite) TestStart(t provider.T) {
	e := newEnv(t, false, 12)
	u := e.client(t, model.UserA)

	v := u.View()

	assert.Equal(t, model.UserA, v.Identity)
	assert.Equal(t, StateDealing, v.State)
	assert.Equal(t, 10, v.Remaining)
	require.NotNil(t, v.Card)
	assert.Equal(t, "r01", v.Card.ID)
	assert.False(t, v.Live)
	assert.Empty(t, v.Matches)
}

func (s *DeckUsecaseSuite) TestSwipe(t provider.T) {
	t.Parallel()

	t.Run("Should record the front card and advance", func(t provider.T) {
		e := newEnv(t, false, 12)
		u := e.client(t, model.UserA)

		v, err := u.Swipe(e.ctx, model.Like)

		require.NoError(t, err)
		assert.Equal(t, 9, v.Remaining)
		assert.Equal(t, "r02", v.Card.ID)
		assert.Equal(t, 1, v.Self.Swiped)
		assert.Equal(t, 1, v.Self.Liked)

		log, err := e.repo.LoadAll(e.ctx)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, "r01", log[0].RecipeID)
		assert.Equal(t, model.Like, log[0].Direction)
	})

	t.Run("Should reject invalid direction", func(t provider.T) {
		e := newEnv(t, false, 12)
		u := e.client(t, model.UserA)

		_, err := u.Swipe(e.ctx, model.Direction("up"))

		assert.ErrorIs(t, err, model.ErrInvalidDirection)
		assert.Equal(t, 10, u.View().Remaining)
	})

	t.Run("Should drop the card even when the write fails", func(t provider.T) {
		e := newEnv(t, false, 12)
		st := storage_swipelog.New(failingRepo{Repository: e.repo})
		u := New(st, e.catalog, WithShuffle(noShuffle))
		u.Start(e.ctx)
		defer u.Close()

		v, err := u.Swipe(e.ctx, model.Like)

		require.NoError(t, err)
		assert.Equal(t, 9, v.Remaining)
		assert.Equal(t, 0, v.Self.Swiped)
	})

	t.Run("Should refuse to swipe with no cards left", func(t provider.T) {
		e := newEnv(t, false, 2)
		u := e.client(t, model.UserA)
		swipeN(t, e.ctx, u, model.Pass, 2)

		v, err := u.Swipe(e.ctx, model.Pass)

		assert.ErrorIs(t, err, ErrNothingToSwipe)
		assert.Equal(t, StateWaitingForPartner, v.State)
	})
}

func (s *DeckUsecaseSuite) TestLocalTwoIdentities(t provider.T) {
	e := newEnv(t, false, 12)
	rec := &recorder{}
	u := e.client(t, model.UserA, WithListener(rec.listen))

	v := swipeN(t, e.ctx, u, model.Pass, 10)
	require.Equal(t, StateWaitingForPartner, v.State)

	v, err := u.SwitchIdentity(e.ctx, model.UserB)
	require.NoError(t, err)
	assert.Equal(t, 10, v.Remaining)
	assert.True(t, v.Partner.Finished)

	v = swipeN(t, e.ctx, u, model.Pass, 10)
	assert.Equal(t, StateFallbackDealing, v.State)
	assert.True(t, v.Fallback)
	assert.Equal(t, 3, v.Remaining)

	v, err = u.SwitchIdentity(e.ctx, model.UserA)
	require.NoError(t, err)
	assert.Equal(t, StateFallbackDealing, v.State)
	assert.Equal(t, "j1", v.Card.ID)

	v = swipeN(t, e.ctx, u, model.Pass, 3)
	assert.Equal(t, StateEmpty, v.State)
	assert.Nil(t, v.Card)
}

func (s *DeckUsecaseSuite) TestSwitchIdentityResumes(t provider.T) {
	e := newEnv(t, false, 12)
	u := e.client(t, model.UserA)
	swipeN(t, e.ctx, u, model.Like, 3)

	_, err := u.SwitchIdentity(e.ctx, model.UserB)
	require.NoError(t, err)
	v, err := u.SwitchIdentity(e.ctx, model.UserA)
	require.NoError(t, err)

	assert.Equal(t, 7, v.Remaining)
	assert.Equal(t, "r04", v.Card.ID)

	_, err = u.SwitchIdentity(e.ctx, model.UserID("C"))
	assert.ErrorIs(t, err, model.ErrInvalidUser)
}

func (s *DeckUsecaseSuite) TestSharedMatchCelebratedOnce(t provider.T) {
	e := newEnv(t, true, 12)
	recA := &recorder{}
	a := e.client(t, model.UserA, WithListener(recA.listen))
	b := e.client(t, model.UserB)

	v, err := a.Swipe(e.ctx, model.Like)
	require.NoError(t, err)
	assert.Equal(t, StateDealing, v.State)

	_, err = b.Swipe(e.ctx, model.Like)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return a.View().State == StateMatched
	}, 2*time.Second, 10*time.Millisecond)

	// Duplicate notifications for the same change.
	a.onChange(e.storage.AllRecords(e.ctx))
	a.onChange(e.storage.AllRecords(e.ctx))

	assert.Equal(t, []string{"r01"}, recA.celebrations())
	assert.Equal(t, "r01", a.View().Matches[0].ID)

	_, err = a.Swipe(e.ctx, model.Like)
	assert.ErrorIs(t, err, ErrNothingToSwipe)
}

func (s *DeckUsecaseSuite) TestSharedWaitingUnlocksFallback(t provider.T) {
	e := newEnv(t, true, 12)
	a := e.client(t, model.UserA)
	b := e.client(t, model.UserB)

	v := swipeN(t, e.ctx, a, model.Pass, 10)
	require.Equal(t, StateWaitingForPartner, v.State)

	swipeN(t, e.ctx, b, model.Pass, 9)
	assert.Equal(t, StateWaitingForPartner, a.View().State)

	_, err := b.Swipe(e.ctx, model.Pass)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return a.View().State == StateFallbackDealing
	}, 2*time.Second, 10*time.Millisecond)
	v = a.View()
	assert.Equal(t, 3, v.Remaining)
	assert.Equal(t, "j1", v.Card.ID)
}

func (s *DeckUsecaseSuite) TestReset(t provider.T) {
	e := newEnv(t, false, 12)
	u := e.client(t, model.UserA)
	swipeN(t, e.ctx, u, model.Like, 2)
	_, err := u.SwitchIdentity(e.ctx, model.UserB)
	require.NoError(t, err)
	v := swipeN(t, e.ctx, u, model.Like, 1)
	require.Equal(t, StateMatched, v.State)

	v = u.Reset(e.ctx)

	assert.Equal(t, model.UserB, v.Identity)
	assert.Equal(t, StateDealing, v.State)
	assert.Equal(t, 10, v.Remaining)
	assert.Empty(t, v.Matches)
	assert.Equal(t, 0, e.storage.SwipedIDs(e.ctx, model.UserA).Len())
	assert.Equal(t, 0, e.storage.SwipedIDs(e.ctx, model.UserB).Len())
}

func (s *DeckUsecaseSuite) TestClose(t provider.T) {
	e := newEnv(t, true, 12)
	rec := &recorder{}
	u := e.client(t, model.UserA, WithListener(rec.listen))
	other := e.client(t, model.UserB)

	u.Close()
	rec.mu.Lock()
	seen := len(rec.views)
	rec.mu.Unlock()

	_, err := other.Swipe(e.ctx, model.Like)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, seen, len(rec.views))
	assert.NotPanics(t, u.Close)
}

func (s *DeckUsecaseSuite) TestPool(t provider.T) {
	e := newEnv(t, false, 12)
	var mu sync.Mutex
	events := map[uuid.UUID]int{}
	p := NewPool(e.storage, e.catalog,
		WithClientOptions(WithShuffle(noShuffle)),
		WithClientListener(func(id uuid.UUID, _ View, _ []model.Recipe) {
			mu.Lock()
			defer mu.Unlock()
			events[id]++
		}),
	)
	defer p.CloseAll()

	id, u, v := p.Open(e.ctx, model.UserB)
	assert.Equal(t, model.UserB, v.Identity)
	assert.Equal(t, 1, p.Len())

	got, err := p.Get(id)
	require.NoError(t, err)
	assert.Same(t, u, got)

	_, err = p.Get(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownClient)

	_, err = u.Swipe(e.ctx, model.Like)
	require.NoError(t, err)
	require.NoError(t, p.ResetAll(e.ctx))
	assert.Equal(t, 10, u.View().Remaining)
	assert.Equal(t, 0, e.storage.SwipedIDs(e.ctx, model.UserB).Len())

	mu.Lock()
	assert.GreaterOrEqual(t, events[id], 2)
	mu.Unlock()

	require.NoError(t, p.Close(id))
	assert.ErrorIs(t, p.Close(id), ErrUnknownClient)
	assert.Equal(t, 0, p.Len())
}

func TestDeckUsecaseSuite(t *testing.T) {
	suite.RunSuite(t, new(DeckUsecaseSuite))
}
