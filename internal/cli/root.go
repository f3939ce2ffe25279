package cli

import (
	"context"
	"os"

	"liner-cli/internal/backend"
	"liner-cli/internal/bridge"
	"liner-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigDir string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "liner",
		Short:        "Local-first outliner CLI + TUI",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr(backend.ConfigDirEnv, ""),
		"Path to the config dir holding the workspace database (default: ~/.float-liner)")

	cmd.AddCommand(newWorkspaceCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newSaveCmd(app))
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (app *App) dir() (string, error) {
	if app.ConfigDir != "" {
		return app.ConfigDir, nil
	}
	return backend.ConfigDir()
}

func (app *App) openBackend(ctx context.Context) (*backend.Local, error) {
	dir, err := app.dir()
	if err != nil {
		return nil, err
	}
	return backend.Open(ctx, dir)
}

func runTUI(ctx context.Context, app *App) error {
	local, err := app.openBackend(ctx)
	if err != nil {
		return err
	}
	br := bridge.New(local, bridge.DefaultDebounce)
	defer br.Close()
	if _, err := br.Start(ctx); err != nil {
		return err
	}
	return tui.Run(ctx, br, local.Dir())
}
