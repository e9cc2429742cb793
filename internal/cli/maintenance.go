package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/paulexconde/together/internal/catalog"
	"github.com/paulexconde/together/internal/database"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply database migrations",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(rootOpts.Config.DB.Driver, rootOpts.Config.DB.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		},
	}
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load the question catalog into an empty database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadCatalog(file)
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context(), rootOpts.Config)
			if err != nil {
				return err
			}
			defer closeApp(app)

			n, err := app.Questions.Seed(cmd.Context(), entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d questions\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML catalog to load instead of the built-in one")

	return cmd
}

func NewRemindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "remind",
		Short:        "Run the check-in reminder once",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts.Config)
			if err != nil {
				return err
			}
			defer closeApp(app)

			n, err := app.Reminders.Remind(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reminded %d participants\n", n)
			return nil
		},
	}
}

func loadCatalog(file string) ([]catalog.Entry, error) {
	if file == "" {
		return catalog.Load()
	}
	return catalog.LoadFile(file)
}

func closeApp(app *App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.Close(ctx)
}
