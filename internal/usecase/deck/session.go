package usecase_deck

import (
	"math/rand"
	"slices"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/KentaroHashi12/Futarigohan/internal/service/progress"
)

type Metrics interface {
	MatchCelebrated()
	FallbackDealt()
}

// Session is the per-client deck state for one identity. It does no I/O;
// callers feed it the swiped ids and log snapshots it needs.
type Session struct {
	catalog *model.Catalog
	user    model.UserID
	shuffle func(n int, swap func(i, j int))
	metrics Metrics

	cards  []model.Recipe
	cursor int
	phase  State

	fallbackLoaded  bool
	celebrated      model.IDSet
	matches         model.IDSet
	partnerFinished bool
}

func NewSession(
	catalog *model.Catalog,
	user model.UserID,
	shuffle func(n int, swap func(i, j int)),
	metrics Metrics,
) *Session {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Session{
		catalog:    catalog,
		user:       user,
		shuffle:    shuffle,
		metrics:    metrics,
		phase:      StateRegularExhausted,
		celebrated: model.NewIDSet(),
		matches:    model.NewIDSet(),
	}
}

func (s *Session) User() model.UserID {
	return s.user
}

// Deal draws up to progress.DeckSize regular recipes at random and drops
// the ones this identity already swiped.
func (s *Session) Deal(swiped model.IDSet) {
	drawn := slices.Clone(s.catalog.Regular)
	s.shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})
	drawn = drawn[:min(progress.DeckSize, len(drawn))]

	s.cards = slices.DeleteFunc(drawn, func(r model.Recipe) bool {
		return swiped.Has(r.ID)
	})
	s.cursor = 0

	if len(s.cards) > 0 {
		s.phase = StateDealing
	} else {
		s.phase = StateRegularExhausted
	}
}

func (s *Session) Front() (model.Recipe, bool) {
	if s.cursor >= len(s.cards) {
		return model.Recipe{}, false
	}
	return s.cards[s.cursor], true
}

func (s *Session) Pop() (model.Recipe, bool) {
	card, ok := s.Front()
	if !ok {
		return model.Recipe{}, false
	}
	s.cursor++

	if s.cursor == len(s.cards) {
		if s.fallbackLoaded {
			s.phase = StateFallbackExhausted
		} else {
			s.phase = StateRegularExhausted
		}
	}
	return card, true
}

func (s *Session) Remaining() int {
	return len(s.cards) - s.cursor
}

// State reports StateMatched as long as any match is known.
func (s *Session) State() State {
	if s.matches.Len() > 0 {
		return StateMatched
	}
	return s.phase
}

// Phase is the deck position regardless of matches.
func (s *Session) Phase() State {
	return s.phase
}

func (s *Session) FallbackLoaded() bool {
	return s.fallbackLoaded
}

func (s *Session) PartnerFinished() bool {
	return s.partnerFinished
}

func (s *Session) Matches() model.IDSet {
	return s.matches
}

// Observe folds a fresh log snapshot into the session and returns the
// recipes that just became matches. A recipe is returned at most once per
// session no matter how often the same snapshot is observed.
func (s *Session) Observe(log model.Snapshot) []model.Recipe {
	s.matches = progress.Matches(log)
	s.partnerFinished = progress.HasFinishedRegular(log, s.user.Partner(), s.catalog.RegularIDs())

	var fresh []model.RecipeID
	for _, id := range s.matches.Sorted() {
		if s.celebrated.Has(id) {
			continue
		}
		s.celebrated.Add(id)
		fresh = append(fresh, id)
		if s.metrics != nil {
			s.metrics.MatchCelebrated()
		}
	}

	s.settle(log)
	return s.catalog.Resolve(fresh)
}

func (s *Session) settle(log model.Snapshot) {
	switch s.phase {
	case StateRegularExhausted, StateWaitingForPartner:
		if s.partnerFinished && !s.fallbackLoaded {
			s.loadFallback(log)
		} else {
			s.phase = StateWaitingForPartner
		}
	}

	if s.phase == StateFallbackExhausted {
		s.phase = StateEmpty
	}
}

func (s *Session) loadFallback(log model.Snapshot) {
	s.fallbackLoaded = true
	if s.metrics != nil {
		s.metrics.FallbackDealt()
	}

	swiped := progress.SwipedIDs(log, s.user)
	s.cards = slices.DeleteFunc(slices.Clone(s.catalog.Fallback), func(r model.Recipe) bool {
		return swiped.Has(r.ID)
	})
	s.cursor = 0

	if len(s.cards) > 0 {
		s.phase = StateFallbackDealing
	} else {
		s.phase = StateFallbackExhausted
	}
}
