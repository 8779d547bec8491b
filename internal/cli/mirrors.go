package cli

import (
	"github.com/spf13/cobra"

	"apms/internal/app"
	"apms/internal/types"
)

type mirrorAddOptions struct {
	Priority uint8
	Disabled bool
}

func newMirrorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirrors",
		Short: "Show and manage package mirrors",
	}
	cmd.AddCommand(newMirrorsListCommand())
	cmd.AddCommand(newMirrorsAddCommand())
	cmd.AddCommand(newMirrorsRemoveCommand())
	cmd.AddCommand(newMirrorsToggleCommand("enable", true))
	cmd.AddCommand(newMirrorsToggleCommand("disable", false))
	return cmd
}

func newMirrorsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mirrors in the order installs try them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := newAppService().Mirrors(cmd.Context())
			if err != nil {
				return err
			}
			printMirrors(cmd, result)
			return nil
		},
	}
}

func newMirrorsAddCommand() *cobra.Command {
	opts := mirrorAddOptions{}
	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a mirror to the system configuration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newAppService().AddMirror(cmd.Context(), app.MirrorAddRequest{
				Name:     args[0],
				URL:      args[1],
				Priority: opts.Priority,
				Enabled:  !opts.Disabled,
			})
			if err != nil {
				return err
			}
			printMirrors(cmd, result)
			return nil
		},
	}
	cmd.Flags().Uint8Var(&opts.Priority, "priority", types.DefaultMirrorPriority, "Mirror priority (higher is tried first)")
	cmd.Flags().BoolVar(&opts.Disabled, "disabled", false, "Add the mirror disabled")
	return cmd
}

func newMirrorsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a mirror from the system configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newAppService().RemoveMirror(cmd.Context(), app.MirrorRemoveRequest{Name: args[0]})
			if err != nil {
				return err
			}
			printMirrors(cmd, result)
			return nil
		},
	}
}

func newMirrorsToggleCommand(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: "Mark a mirror as " + use + "d in the system configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newAppService().SetMirrorEnabled(cmd.Context(), app.MirrorToggleRequest{
				Name:    args[0],
				Enabled: enabled,
			})
			if err != nil {
				return err
			}
			printMirrors(cmd, result)
			return nil
		},
	}
}

func printMirrors(cmd *cobra.Command, result app.MirrorsResult) {
	source := string(result.Source)
	if result.Path != "" {
		source += " " + result.Path
	}
	printf(cmd, "mirrors (%s):\n", source)
	for i, mirror := range result.Ordered {
		printf(cmd, "%d. %s %s (priority %d)\n", i+1, mirror.Name, mirror.URL, mirror.Priority)
	}
	for _, mirror := range result.All {
		if !mirror.Enabled {
			printf(cmd, "-  %s %s (priority %d, disabled)\n", mirror.Name, mirror.URL, mirror.Priority)
		}
	}
}
