package infra_redis_pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis"
)

const changedMessage = "changed"

// Notifier announces swipe log changes over a Redis channel.
type Notifier struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func New(
	client *redis.Client,
	session string,
	logger *slog.Logger,
) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		client:  client,
		channel: Channel(session),
		logger:  logger,
	}
}

func Channel(session string) string {
	return "futarigohan:" + session + ":changes"
}

func (n *Notifier) Publish(ctx context.Context) error {
	return n.client.WithContext(ctx).Publish(n.channel, changedMessage).Err()
}

// Listen subscribes to the change channel. The returned channel is closed
// once ctx is done.
func (n *Notifier) Listen(ctx context.Context) (<-chan struct{}, error) {
	ps := n.client.Subscribe(n.channel)
	if _, err := ps.Receive(); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	events := make(chan struct{}, 1)
	messages := ps.Channel()

	go func() {
		defer close(events)
		defer ps.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					n.logger.Warn("redis subscription closed", slog.String("channel", n.channel))
					return
				}
				// Coalesce: a pending event already triggers a full re-read.
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events, nil
}
