package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"10"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Root, root.Config)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryPath(root.Root))
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION\tRENDERED\tSKIPPED\tDELETED\tFAILED\tFORCED")
	for _, r := range runs {
		forced := ""
		if r.Forced {
			forced = "yes"
		}
		fmt.Fprintf(w, "%s\t%dms\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.DurationMS, r.Rendered, r.Skipped, r.Deleted, r.Failed, forced)
	}
	return w.Flush()
}
