package usecase_deck

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/google/uuid"
)

var ErrUnknownClient = errors.New("unknown client")

// ClientListener is Listener tagged with the client it came from.
type ClientListener func(id uuid.UUID, v View, celebrated []model.Recipe)

// Pool keeps the client instances hosted by one process.
type Pool struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Usecase

	swipes   SwipeLog
	catalog  *model.Catalog
	opts     []Option
	listener ClientListener
	logger   *slog.Logger
}

type PoolOption func(*Pool)

func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

func WithClientListener(l ClientListener) PoolOption {
	return func(p *Pool) {
		p.listener = l
	}
}

// WithClientOptions is applied to every client the pool opens.
func WithClientOptions(opts ...Option) PoolOption {
	return func(p *Pool) {
		p.opts = append(p.opts, opts...)
	}
}

func NewPool(swipes SwipeLog, catalog *model.Catalog, opts ...PoolOption) *Pool {
	p := &Pool{
		clients: make(map[uuid.UUID]*Usecase),
		swipes:  swipes,
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Open(ctx context.Context, user model.UserID) (uuid.UUID, *Usecase, View) {
	id := uuid.New()

	opts := append([]Option{WithLogger(p.logger.With(slog.String("client_id", id.String())))}, p.opts...)
	opts = append(opts, WithIdentity(user))
	if p.listener != nil {
		l := p.listener
		opts = append(opts, WithListener(func(v View, celebrated []model.Recipe) {
			l(id, v, celebrated)
		}))
	}

	u := New(p.swipes, p.catalog, opts...)

	p.mu.Lock()
	p.clients[id] = u
	p.mu.Unlock()

	v := u.Start(ctx)
	p.logger.Info("client opened", slog.String("client_id", id.String()), slog.String("identity", string(user)))
	return id, u, v
}

func (p *Pool) Get(id uuid.UUID) (*Usecase, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	u, ok := p.clients[id]
	if !ok {
		return nil, ErrUnknownClient
	}
	return u, nil
}

func (p *Pool) Close(id uuid.UUID) error {
	p.mu.Lock()
	u, ok := p.clients[id]
	delete(p.clients, id)
	p.mu.Unlock()

	if !ok {
		return ErrUnknownClient
	}
	u.Close()
	p.logger.Info("client closed", slog.String("client_id", id.String()))
	return nil
}

func (p *Pool) CloseAll() {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[uuid.UUID]*Usecase)
	p.mu.Unlock()

	for _, u := range clients {
		u.Close()
	}
}

// ResetAll clears the shared log once and rebuilds every open client.
func (p *Pool) ResetAll(ctx context.Context) error {
	if err := p.swipes.Clear(ctx); err != nil {
		return err
	}

	p.mu.RLock()
	clients := make([]*Usecase, 0, len(p.clients))
	for _, u := range p.clients {
		clients = append(clients, u)
	}
	p.mu.RUnlock()

	for _, u := range clients {
		u.Refresh(ctx)
	}
	return nil
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.clients)
}
