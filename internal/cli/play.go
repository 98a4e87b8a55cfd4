package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
	"github.com/spf13/cobra"
)

const playHelp = "r = like, l = pass, s = switch identity, x = reset all, q = quit"

func NewPlayCommand(opts *RootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Swipe through today's deck interactively",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, rt *Runtime) error {
			identity, err := model.ParseUserID(user)
			if err != nil {
				return err
			}
			return play(cmd, rt, identity, opts.DeckOptions)
		}),
	}

	cmd.Flags().StringVar(&user, "user", "A", "identity to start as (A|B)")
	return cmd
}

func play(cmd *cobra.Command, rt *Runtime, identity model.UserID, extra []usecase_deck.Option) error {
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	// Live updates from a partner arrive between prompts.
	announce := func(_ usecase_deck.View, celebrated []model.Recipe) {
		for _, r := range celebrated {
			fmt.Fprintf(out, "It's a match! %s  %s\n", r.Name, r.SearchURL())
		}
	}
	opts := append([]usecase_deck.Option{
		usecase_deck.WithIdentity(identity),
		usecase_deck.WithListener(announce),
	}, extra...)

	deck := usecase_deck.New(rt.SwipeLog, rt.Catalog, opts...)
	defer deck.Close()

	ctx := cmd.Context()
	v := deck.Start(ctx)
	fmt.Fprintln(out, playHelp)

	for {
		renderView(out, v)
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "r", "right", "like":
			v, err = deck.Swipe(ctx, model.Like)
		case "l", "left", "pass":
			v, err = deck.Swipe(ctx, model.Pass)
		case "s":
			v, err = deck.SwitchIdentity(ctx, v.Identity.Partner())
		case "x":
			if confirm(out, in) {
				v = deck.Reset(ctx)
			}
		case "q", "quit":
			return nil
		case "":
			v = deck.View()
		default:
			fmt.Fprintln(out, playHelp)
		}

		if errors.Is(err, usecase_deck.ErrNothingToSwipe) {
			fmt.Fprintln(out, "nothing to swipe")
		} else if err != nil {
			return err
		}
	}
}

func confirm(out io.Writer, in *bufio.Scanner) bool {
	fmt.Fprint(out, "delete all swipes for both identities? [y/N] ")
	if !in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(in.Text()))
	return answer == "y" || answer == "yes"
}
