package usecase_deck

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SessionUnitSuite struct {
	suite.Suite
}

// Object Mother

func testCatalog(regular int) *model.Catalog {
	recipes := make([]model.Recipe, 0, regular+3)
	for i := 1; i <= regular; i++ {
		recipes = append(recipes, model.Recipe{
			ID:       fmt.Sprintf("r%02d", i),
			Name:     fmt.Sprintf("Recipe %d", i),
			Category: "main",
		})
	}
	for i := 1; i <= 3; i++ {
		recipes = append(recipes, model.Recipe{
			ID:       fmt.Sprintf("j%d", i),
			Name:     fmt.Sprintf("Joker %d", i),
			Category: model.JokerCategory,
		})
	}
	return model.NewCatalog(recipes)
}

// Keeps catalog order so decks are predictable.
func noShuffle(int, func(i, j int)) {}

type countingSessionMetrics struct {
	celebrated int
	fallbacks  int
}

func (m *countingSessionMetrics) MatchCelebrated() { m.celebrated++ }
func (m *countingSessionMetrics) FallbackDealt()   { m.fallbacks++ }

type logBuilder struct {
	log model.Snapshot
	ts  int64
}

func newLog() *logBuilder {
	return &logBuilder{log: model.Snapshot{}}
}

func (b *logBuilder) swipe(user model.UserID, id string, dir model.Direction) *logBuilder {
	b.ts++
	b.log = append(b.log, model.SwipeRecord{UserID: user, RecipeID: id, Direction: dir, Timestamp: b.ts})
	return b
}

// passes records n passes r01..rNN for user.
func (b *logBuilder) passes(user model.UserID, n int) *logBuilder {
	for i := 1; i <= n; i++ {
		b.swipe(user, fmt.Sprintf("r%02d", i), model.Pass)
	}
	return b
}

func (b *logBuilder) build() model.Snapshot {
	return append(model.Snapshot(nil), b.log...)
}

func drain(s *Session) []string {
	var ids []string
	for {
		r, ok := s.Pop()
		if !ok {
			return ids
		}
		ids = append(ids, r.ID)
	}
}

func (suite *SessionUnitSuite) TestDeal(t provider.T) {
	t.Parallel()

	t.Run("Should draw at most ten regular cards", func(t provider.T) {
		s := NewSession(testCatalog(14), model.UserA, noShuffle, nil)
		s.Deal(model.NewIDSet())

		assert.Equal(t, StateDealing, s.State())
		assert.Equal(t, 10, s.Remaining())
		front, ok := s.Front()
		require.True(t, ok)
		assert.Equal(t, "r01", front.ID)
	})

	t.Run("Should draw distinct regular cards with a real shuffle", func(t provider.T) {
		rnd := rand.New(rand.NewSource(7))
		s := NewSession(testCatalog(14), model.UserA, rnd.Shuffle, nil)
		s.Deal(model.NewIDSet())

		ids := drain(s)
		assert.Len(t, ids, 10)
		assert.Len(t, model.NewIDSet(ids...), 10)
		for _, id := range ids {
			assert.NotContains(t, id, "j")
		}
	})

	t.Run("Should skip already swiped cards on resume", func(t provider.T) {
		s := NewSession(testCatalog(5), model.UserA, noShuffle, nil)
		s.Deal(model.NewIDSet("r02", "r04"))

		assert.Equal(t, []string{"r01", "r03", "r05"}, drain(s))
	})

	t.Run("Should start exhausted when everything was swiped", func(t provider.T) {
		s := NewSession(testCatalog(2), model.UserA, noShuffle, nil)
		s.Deal(model.NewIDSet("r01", "r02"))

		assert.Equal(t, StateRegularExhausted, s.State())
		_, ok := s.Front()
		assert.False(t, ok)
	})
}

func (suite *SessionUnitSuite) TestRegularExhaustion(t provider.T) {
	t.Parallel()

	t.Run("Should wait while partner is still swiping", func(t provider.T) {
		s := NewSession(testCatalog(12), model.UserA, noShuffle, nil)
		s.Deal(model.NewIDSet())
		drain(s)
		require.Equal(t, StateRegularExhausted, s.Phase())

		s.Observe(newLog().passes(model.UserA, 10).passes(model.UserB, 4).build())

		assert.Equal(t, StateWaitingForPartner, s.State())
		assert.False(t, s.FallbackLoaded())
	})

	t.Run("Should deal all jokers once partner reaches ten swipes", func(t provider.T) {
		m := &countingSessionMetrics{}
		s := NewSession(testCatalog(12), model.UserA, noShuffle, m)
		s.Deal(model.NewIDSet())
		drain(s)

		log := newLog().passes(model.UserA, 10).passes(model.UserB, 9)
		s.Observe(log.build())
		require.Equal(t, StateWaitingForPartner, s.State())

		log.swipe(model.UserB, "r10", model.Pass)
		s.Observe(log.build())

		assert.Equal(t, StateFallbackDealing, s.State())
		assert.True(t, s.FallbackLoaded())
		assert.Equal(t, []string{"j1", "j2", "j3"}, drain(s))
		assert.Equal(t, 1, m.fallbacks)
	})

	t.Run("Should go straight to jokers when partner already finished", func(t provider.T) {
		s := NewSession(testCatalog(3), model.UserB, noShuffle, nil)
		s.Deal(model.NewIDSet())
		drain(s)

		s.Observe(newLog().passes(model.UserA, 3).passes(model.UserB, 3).build())

		assert.Equal(t, StateFallbackDealing, s.State())
	})

	t.Run("Should hide jokers this identity already swiped", func(t provider.T) {
		s := NewSession(testCatalog(2), model.UserA, noShuffle, nil)
		log := newLog().passes(model.UserA, 2).passes(model.UserB, 2).swipe(model.UserA, "j2", model.Pass)
		s.Deal(model.NewIDSet("r01", "r02"))

		s.Observe(log.build())

		assert.Equal(t, []string{"j1", "j3"}, drain(s))
	})

	t.Run("Should treat an empty regular catalog as finished", func(t provider.T) {
		s := NewSession(testCatalog(0), model.UserA, noShuffle, nil)
		s.Deal(model.NewIDSet())

		s.Observe(model.Snapshot{})

		assert.Equal(t, StateFallbackDealing, s.State())
		assert.Equal(t, 3, s.Remaining())
	})
}

func (suite *SessionUnitSuite) TestFallbackLoadsOnce(t provider.T) {
	m := &countingSessionMetrics{}
	s := NewSession(testCatalog(2), model.UserA, noShuffle, m)
	s.Deal(model.NewIDSet())
	drain(s)

	finished := newLog().passes(model.UserA, 2).passes(model.UserB, 2).build()
	s.Observe(finished)
	require.Equal(t, StateFallbackDealing, s.State())
	drain(s)
	require.Equal(t, StateFallbackExhausted, s.Phase())

	s.Observe(finished)
	assert.Equal(t, StateEmpty, s.State())

	// Partner flips between finished and not (e.g. after a partial reset).
	s.Observe(newLog().passes(model.UserA, 2).build())
	s.Observe(finished)
	s.Observe(finished)

	assert.Equal(t, StateEmpty, s.State())
	assert.Equal(t, 0, s.Remaining())
	assert.Equal(t, 1, m.fallbacks)
}

func (suite *SessionUnitSuite) TestFallbackWithNothingLeftEndsEmpty(t provider.T) {
	s := NewSession(testCatalog(1), model.UserA, noShuffle, nil)
	s.Deal(model.NewIDSet("r01"))

	s.Observe(newLog().
		swipe(model.UserA, "r01", model.Pass).
		swipe(model.UserB, "r01", model.Pass).
		swipe(model.UserA, "j1", model.Pass).
		swipe(model.UserA, "j2", model.Pass).
		swipe(model.UserA, "j3", model.Pass).
		build())

	assert.Equal(t, StateEmpty, s.State())
	assert.True(t, s.FallbackLoaded())
}

func (suite *SessionUnitSuite) TestCelebration(t provider.T) {
	t.Parallel()

	t.Run("Should celebrate a match exactly once under duplicate snapshots", func(t provider.T) {
		m := &countingSessionMetrics{}
		s := NewSession(testCatalog(12), model.UserA, noShuffle, m)
		s.Deal(model.NewIDSet())

		log := newLog().swipe(model.UserA, "r03", model.Like)
		assert.Empty(t, s.Observe(log.build()))
		assert.Empty(t, s.Matches())

		log.swipe(model.UserB, "r03", model.Like)
		first := s.Observe(log.build())
		second := s.Observe(log.build())

		require.Len(t, first, 1)
		assert.Equal(t, "r03", first[0].ID)
		assert.Empty(t, second)
		assert.Equal(t, 1, m.celebrated)
	})

	t.Run("Should report matched even with cards left", func(t provider.T) {
		s := NewSession(testCatalog(12), model.UserA, noShuffle, nil)
		s.Deal(model.NewIDSet())

		s.Observe(newLog().
			swipe(model.UserA, "r05", model.Like).
			swipe(model.UserB, "r05", model.Like).
			build())

		assert.Equal(t, StateMatched, s.State())
		assert.Equal(t, StateDealing, s.Phase())
		assert.Equal(t, 10, s.Remaining())
	})

	t.Run("Should not re-announce a match that disappears and comes back", func(t provider.T) {
		s := NewSession(testCatalog(12), model.UserA, noShuffle, nil)
		s.Deal(model.NewIDSet())
		matched := newLog().
			swipe(model.UserA, "r01", model.Like).
			swipe(model.UserB, "r01", model.Like).
			build()

		require.Len(t, s.Observe(matched), 1)
		s.Observe(model.Snapshot{})
		assert.NotEqual(t, StateMatched, s.State())

		assert.Empty(t, s.Observe(matched))
		assert.Equal(t, StateMatched, s.State())
	})
}

func TestSessionUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(SessionUnitSuite))
}
