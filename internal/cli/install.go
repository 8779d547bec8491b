package cli

import (
	"github.com/spf13/cobra"

	"apms/internal/app"
)

func newInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package with APMS",
		Args:  exactlyOnePackage,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			_, err := service.Install(cmd.Context(), app.InstallRequest{Name: args[0]})
			return err
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <package>",
		Aliases: []string{"remove"},
		Short:   "Delete a package installed with APMS",
		Args:    exactlyOnePackage,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			_, err := service.Delete(cmd.Context(), app.DeleteRequest{Name: args[0]})
			return err
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := newAppService()
			result, err := service.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(result.Packages) == 0 {
				printf(cmd, "no packages installed\n")
				return nil
			}
			for _, pkg := range result.Packages {
				printf(cmd, "%s %s (%s)\n", pkg.Name, pkg.Version, pkg.InstallDir)
			}
			return nil
		},
	}
}
