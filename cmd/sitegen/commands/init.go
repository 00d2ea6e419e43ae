package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	slog.Info("Initializing site", "root", root.Root, "force", i.Force)
	if err := config.Init(root.Root, i.Force); err != nil {
		return err
	}
	slog.Info("Site initialized", "root", root.Root)
	return nil
}
