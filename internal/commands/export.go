package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"financepro/internal/services"
)

func newExportCommand(app *App, userID *string) *cobra.Command {
	var dir string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the CSV report for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFinance(cmd.Context(), app, false, func(svc *services.FinanceService) error {
				var buf bytes.Buffer
				name, err := svc.Export(cmd.Context(), *userID, &buf)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				if stdout {
					_, err := buf.WriteTo(cmd.OutOrStdout())
					return err
				}
				path := filepath.Join(dir, name)
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the report into")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write the report to standard output")
	return cmd
}
