package infra_metrics

import (
	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use through a nil pointer; every method is a no-op then.
type Metrics struct {
	SwipesRecorded      *prometheus.CounterVec
	SwipeWriteFailures  prometheus.Counter
	StorageReadFailures prometheus.Counter
	MatchesCelebrated   prometheus.Counter
	FallbackDecksDealt  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SwipesRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "futarigohan_swipes_recorded_total",
			Help: "Swipes written to the swipe log by direction",
		}, []string{"direction"}),

		SwipeWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "futarigohan_swipe_write_failures_total",
			Help: "Swipes that could not be written to the swipe log",
		}),

		StorageReadFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "futarigohan_storage_read_failures_total",
			Help: "Swipe log reads that failed and degraded to an empty result",
		}),

		MatchesCelebrated: f.NewCounter(prometheus.CounterOpts{
			Name: "futarigohan_matches_celebrated_total",
			Help: "Matches announced to a client session",
		}),

		FallbackDecksDealt: f.NewCounter(prometheus.CounterOpts{
			Name: "futarigohan_fallback_decks_dealt_total",
			Help: "Joker decks dealt after both users finished the regular deck",
		}),
	}
}

func (m *Metrics) SwipeRecorded(dir model.Direction) {
	if m != nil {
		m.SwipesRecorded.WithLabelValues(string(dir)).Inc()
	}
}

func (m *Metrics) SwipeWriteFailed() {
	if m != nil {
		m.SwipeWriteFailures.Inc()
	}
}

func (m *Metrics) StorageReadFailed() {
	if m != nil {
		m.StorageReadFailures.Inc()
	}
}

func (m *Metrics) MatchCelebrated() {
	if m != nil {
		m.MatchesCelebrated.Inc()
	}
}

func (m *Metrics) FallbackDealt() {
	if m != nil {
		m.FallbackDecksDealt.Inc()
	}
}
