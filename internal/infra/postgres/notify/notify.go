package infra_postgres_notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const Channel = "futarigohan_swipes"

type listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// Notifier publishes through pg_notify and receives through a dedicated
// pq.Listener connection. Payload is the swipe session id.
type Notifier struct {
	db          *sqlx.DB
	session     string
	logger      *slog.Logger
	newListener func() listener
}

type Option func(*Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func withListener(fn func() listener) Option {
	return func(n *Notifier) {
		n.newListener = fn
	}
}

func New(db *sqlx.DB, dsn string, session string, opts ...Option) *Notifier {
	n := &Notifier{
		db:      db,
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.newListener == nil {
		n.newListener = func() listener {
			return pq.NewListener(dsn, time.Second, time.Minute, n.onListenerEvent)
		}
	}
	return n
}

func (n *Notifier) Publish(ctx context.Context) error {
	const (
		q = `SELECT pg_notify($1, $2)`
	)
	_, err := n.db.ExecContext(ctx, q, Channel, n.session)
	return err
}

// Listen returns a channel that fires on every notification for this
// session. A reconnect also fires it since notifications may have been
// missed meanwhile. The channel is closed once ctx is done.
func (n *Notifier) Listen(ctx context.Context) (<-chan struct{}, error) {
	l := n.newListener()
	if err := l.Listen(Channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("listen %s: %w", Channel, err)
	}

	events := make(chan struct{}, 1)
	notifications := l.NotificationChannel()

	go func() {
		defer close(events)
		defer l.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-notifications:
				if !ok {
					return
				}
				if msg != nil && msg.Extra != n.session {
					continue
				}
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events, nil
}

func (n *Notifier) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		n.logger.Warn("postgres listener connection problem", slog.Any("error", err))
	case pq.ListenerEventReconnected:
		n.logger.Info("postgres listener reconnected")
	}
}
