package cli

import (
	"signalconfig/internal/app"
	"signalconfig/internal/clock"
	"signalconfig/internal/config"

	"github.com/spf13/cobra"
)

// ServeCmd starts the HTTP service until SIGINT/SIGTERM.
func ServeCmd(flags *configFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the editor HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.FromCLI(flags.file, flags.dir)
			if err != nil {
				return err
			}
			service, err := app.NewService(source, clock.RealClock{})
			if err != nil {
				return err
			}
			return service.Run(cmd.Context())
		},
	}
}
