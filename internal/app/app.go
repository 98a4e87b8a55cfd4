package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KentaroHashi12/Futarigohan/internal/config"
	http_client "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/client"
	http_init "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/init"
	http_metrics "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/metrics"
	http_access_middleware "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/middleware/access"
	http_recipe "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/recipe"
	http_swipes "github.com/KentaroHashi12/Futarigohan/internal/delivery/http/swipes"
	ws_client "github.com/KentaroHashi12/Futarigohan/internal/delivery/ws/client"
	infra_catalog "github.com/KentaroHashi12/Futarigohan/internal/infra/catalog"
	infra_metrics "github.com/KentaroHashi12/Futarigohan/internal/infra/metrics"
	storage_swipelog "github.com/KentaroHashi12/Futarigohan/internal/storage/swipelog"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func Go(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg); err != nil {
		slog.Error("app stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// Run serves the HTTP API until ctx is done.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog, err := infra_catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded",
		slog.Int("regular", len(catalog.Regular)),
		slog.Int("fallback", len(catalog.Fallback)))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra_metrics.New(reg)

	// Clients hosted here still see each other over a local backing.
	swipeLog, closeSwipeLog := OpenSwipeLog(ctx, cfg, logger, metrics,
		storage_swipelog.WithNotifier(storage_swipelog.NewBroadcast()))
	defer closeSwipeLog()

	hub := ws_client.New(logger.With(slog.String("component", "ws")))
	pool := usecase_deck.NewPool(swipeLog, catalog,
		usecase_deck.WithPoolLogger(logger.With(slog.String("component", "deck"))),
		usecase_deck.WithClientOptions(usecase_deck.WithMetrics(metrics)),
		usecase_deck.WithClientListener(hub.Publish),
	)

	controllerPool := http_init.NewControllerPool(
		http_init.WithLogger(logger.With(slog.String("component", "http"))),
		http_init.WithMiddleware(http_access_middleware.ReadOnlyBadGatewayMiddleware(cfg.HTTP.Mode)),
	)
	controllerPool.Add(http_recipe.New(catalog))
	controllerPool.Add(http_client.New(pool, http_client.WithCloser(hub)))
	controllerPool.Add(http_swipes.New(swipeLog, pool, catalog))
	controllerPool.Add(ws_client.NewController(hub, pool))
	controllerPool.Add(http_metrics.New(reg))
	controllerPool.Register()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return controllerPool.RunAll(gctx, cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		pool.CloseAll()
		return nil
	})
	return g.Wait()
}
