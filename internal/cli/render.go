package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/KentaroHashi12/Futarigohan/internal/model"
	"github.com/KentaroHashi12/Futarigohan/internal/service/progress"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
)

func renderCatalog(w io.Writer, c *model.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "REGULAR (%d)\n", len(c.Regular))
	for _, r := range c.Regular {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.ID, r.Name, strings.Join(r.Tags, ", "))
	}
	fmt.Fprintf(tw, "JOKER (%d)\n", len(c.Fallback))
	for _, r := range c.Fallback {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.ID, r.Name, strings.Join(r.Tags, ", "))
	}
	return tw.Flush()
}

func renderStatus(w io.Writer, ps []progress.Progress, matches []model.Recipe) error {
	for _, p := range ps {
		state := "swiping"
		if p.Finished {
			state = "finished"
		}
		fmt.Fprintf(w, "%s: swiped %d, liked %d, %s\n", p.User, p.Swiped, p.Liked, state)
	}
	return renderMatches(w, matches)
}

func renderMatches(w io.Writer, matches []model.Recipe) error {
	if len(matches) == 0 {
		_, err := fmt.Fprintln(w, "no matches yet")
		return err
	}
	fmt.Fprintf(w, "matches (%d):\n", len(matches))
	for _, r := range matches {
		fmt.Fprintf(w, "  %s %s\n    %s\n", r.ID, r.Name, r.SearchURL())
	}
	return nil
}

func renderView(w io.Writer, v usecase_deck.View) {
	fmt.Fprintf(w, "[%s] %s", v.Identity, v.State)
	if v.Fallback {
		fmt.Fprint(w, " (joker deck)")
	}
	fmt.Fprintln(w)

	switch v.State {
	case usecase_deck.StateMatched:
		for _, r := range v.Matches {
			fmt.Fprintf(w, "  matched: %s %s\n", r.ID, r.Name)
		}
		fmt.Fprintln(w, "  press x to start over")
	case usecase_deck.StateWaitingForPartner:
		fmt.Fprintf(w, "  waiting for %s to finish (%d swiped)\n", v.Partner.User, v.Partner.Swiped)
	case usecase_deck.StateEmpty:
		fmt.Fprintln(w, "  no cards left")
	default:
		if v.Card != nil {
			fmt.Fprintf(w, "  %s %s  (%d left)\n", v.Card.ID, v.Card.Name, v.Remaining)
		}
	}
}
