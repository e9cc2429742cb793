package cli

import (
	"github.com/paulexconde/together/internal/config"
	"github.com/paulexconde/together/internal/log"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Debug      bool

	// Config is loaded before any subcommand runs.
	Config config.Config
}

// NewRootCommand creates the root command for the together CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "together",
		Short: "Daily check-ins for two",
		Long:  "Private daily mood check-ins with a shared question, revealed once both partners have answered.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = opts.Debug
			}
			log.SetOutput(cmd.ErrOrStderr())
			if cfg.Debug {
				log.SetLevel(log.DebugLevel)
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "log at DEBUG level")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewRemindCommand(opts))

	return cmd
}
