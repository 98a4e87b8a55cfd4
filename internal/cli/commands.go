package cli

import (
	"errors"
	"fmt"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/KentaroHashi12/Futarigohan/internal/service/progress"
	"github.com/spf13/cobra"
)

var ErrResetNotConfirmed = errors.New("refusing to reset without --yes")

func NewCatalogCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the recipes, regular deck first",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, rt *Runtime) error {
			return renderCatalog(cmd.OutOrStdout(), rt.Catalog)
		}),
	}
}

func NewSwipeCommand(opts *RootOptions) *cobra.Command {
	var user, recipeID, direction string

	cmd := &cobra.Command{
		Use:   "swipe",
		Short: "Record one swipe without the interactive deck",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, rt *Runtime) error {
			u, err := model.ParseUserID(user)
			if err != nil {
				return err
			}
			dir, err := model.ParseDirection(direction)
			if err != nil {
				return err
			}
			r, err := rt.Catalog.Get(recipeID)
			if err != nil {
				return err
			}

			if err := rt.SwipeLog.Record(cmd.Context(), u, r.ID, dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (%s)\n", u, dir, r.ID, r.Name)

			matches := progress.Matches(rt.SwipeLog.AllRecords(cmd.Context()))
			if dir == model.Like && matches.Has(r.ID) {
				fmt.Fprintf(cmd.OutOrStdout(), "It's a match! %s\n", r.Name)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&user, "user", "A", "acting identity (A|B)")
	cmd.Flags().StringVar(&recipeID, "recipe", "", "recipe id")
	cmd.Flags().StringVar(&direction, "direction", "", "like|pass")
	_ = cmd.MarkFlagRequired("recipe")
	_ = cmd.MarkFlagRequired("direction")
	return cmd
}

func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show both identities' progress and the current matches",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, rt *Runtime) error {
			log := rt.SwipeLog.AllRecords(cmd.Context())
			regular := rt.Catalog.RegularIDs()

			var ps []progress.Progress
			for _, u := range model.Users {
				ps = append(ps, progress.Summarize(log, u, regular))
			}
			matches := rt.Catalog.Resolve(progress.Matches(log).Sorted())
			return renderStatus(cmd.OutOrStdout(), ps, matches)
		}),
	}
}

func NewMatchesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "matches",
		Short: "List recipes both identities liked",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, rt *Runtime) error {
			ids := progress.Matches(rt.SwipeLog.AllRecords(cmd.Context())).Sorted()
			return renderMatches(cmd.OutOrStdout(), rt.Catalog.Resolve(ids))
		}),
	}
}

func NewResetCommand(opts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the whole swipe history of the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return ErrResetNotConfirmed
			}
			return withRuntime(opts, func(cmd *cobra.Command, rt *Runtime) error {
				if err := rt.SwipeLog.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "swipe history cleared")
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every swipe")
	return cmd
}
