package cli

import (
	"fmt"

	"liner-cli/internal/doc"
	"liner-cli/internal/outline"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var rootID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the current workspace as markdown bullets",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			state, err := l.LoadInitialState(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := doc.DecodeState(state)
			if err != nil {
				return err
			}
			if rootID != "" {
				if _, ok := snap.Blocks[rootID]; !ok {
					return fmt.Errorf("block %q not found", rootID)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), outline.Markdown(snap, rootID))
			return nil
		},
	}
	cmd.Flags().StringVar(&rootID, "root", "", "Export only the subtree under this block id")
	return cmd
}

func newSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Persist the current workspace to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			if err := l.Save(cmd.Context()); err != nil {
				return err
			}
			current, err := l.CurrentWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved workspace %q\n", current)
			return nil
		},
	}
}
