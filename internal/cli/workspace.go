package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWorkspaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage named workspaces",
	}
	cmd.AddCommand(newWorkspaceListCmd(app))
	cmd.AddCommand(newWorkspaceCurrentCmd(app))
	cmd.AddCommand(newWorkspaceNewCmd(app))
	cmd.AddCommand(newWorkspaceSwitchCmd(app))
	cmd.AddCommand(newWorkspaceClearCmd(app))
	return cmd
}

func newWorkspaceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			names, err := l.ListWorkspaces(cmd.Context())
			if err != nil {
				return err
			}
			current, err := l.CurrentWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				marker := "  "
				if n == current {
					marker = "* "
				}
				fmt.Fprintln(cmd.OutOrStdout(), marker+n)
			}
			return nil
		},
	}
}

func newWorkspaceCurrentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			current, err := l.CurrentWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		},
	}
}

func newWorkspaceNewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create a workspace and switch to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := l.NewWorkspace(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to new workspace %q\n", args[0])
			return nil
		},
	}
}

func newWorkspaceSwitchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Switch the current workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := l.LoadWorkspace(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to workspace %q\n", args[0])
			return nil
		},
	}
}

func newWorkspaceClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the current workspace to its starter content",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := l.ClearWorkspace(cmd.Context()); err != nil {
				return err
			}
			current, err := l.CurrentWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared workspace %q\n", current)
			return nil
		},
	}
}
