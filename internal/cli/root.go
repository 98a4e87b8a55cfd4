package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/KentaroHashi12/Futarigohan/internal/app"
	"github.com/KentaroHashi12/Futarigohan/internal/config"
	infra_catalog "github.com/KentaroHashi12/Futarigohan/internal/infra/catalog"
	"github.com/KentaroHashi12/Futarigohan/internal/model"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the I/O every command uses.
type RootOptions struct {
	ConfigPath  string
	CatalogPath string

	In  io.Reader
	Out io.Writer

	// Open builds the runtime; replaced in tests.
	Open func(ctx context.Context, opts *RootOptions) (*Runtime, error)
	// DeckOptions are applied to interactive sessions.
	DeckOptions []usecase_deck.Option
}

type Runtime struct {
	Catalog  *model.Catalog
	SwipeLog usecase_deck.SwipeLog
	Close    func()
}

func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{
		In:   os.Stdin,
		Out:  os.Stdout,
		Open: OpenRuntime,
	})
}

func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "futarigohan",
		Short:         "Futarigohan - swipe recipes together, eat what you both like",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(opts.In)
	cmd.SetOut(opts.Out)

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path env file")
	cmd.PersistentFlags().StringVar(&opts.CatalogPath, "catalog", "", "recipe catalog file (overrides CATALOG_PATH)")

	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewSwipeCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewMatchesCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))

	return cmd
}

// OpenRuntime loads the config and opens the configured swipe log.
func OpenRuntime(ctx context.Context, opts *RootOptions) (*Runtime, error) {
	cfg, err := config.LoadFrom(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.CatalogPath != "" {
		cfg.Catalog.Path = opts.CatalogPath
	}

	logger := app.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	catalog, err := infra_catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	swipeLog, closeFn := app.OpenSwipeLog(ctx, cfg, logger, nil)

	return &Runtime{
		Catalog:  catalog,
		SwipeLog: swipeLog,
		Close:    closeFn,
	}, nil
}

func withRuntime(opts *RootOptions, fn func(cmd *cobra.Command, rt *Runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		rt, err := opts.Open(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, rt)
	}
}
