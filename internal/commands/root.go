// Package commands implements the financectl operator CLI.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"financepro/internal/config"
	applog "financepro/internal/log"
	"financepro/internal/services"
)

// App is what every command runs against.
type App struct {
	Config *config.Config
	Logger *applog.Logger
	// Open returns the finance service and a function releasing it. Receipt
	// recognition is only set up when withOCR is true.
	Open func(ctx context.Context, withOCR bool) (*services.FinanceService, func(), error)
	// Migrate applies pending schema migrations for the configured store.
	Migrate func(ctx context.Context) error
	Out     io.Writer
}

// NewRootCommand creates the root command with all subcommands registered.
func NewRootCommand(app *App) *cobra.Command {
	if app.Out == nil {
		app.Out = os.Stdout
	}

	var userID string
	rootCmd := &cobra.Command{
		Use:   "financectl",
		Short: "Operate a financepro deployment from the shell",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&userID, "user", "local", "owner id of the records to operate on")
	rootCmd.SetOut(app.Out)

	rootCmd.AddCommand(
		newScanCommand(app),
		newSummaryCommand(app, &userID),
		newExportCommand(app, &userID),
		newMigrateCommand(app),
	)
	return rootCmd
}

// withFinance opens the service for the duration of fn.
func withFinance(ctx context.Context, app *App, withOCR bool, fn func(*services.FinanceService) error) error {
	svc, release, err := app.Open(ctx, withOCR)
	if err != nil {
		return err
	}
	defer release()
	return fn(svc)
}
