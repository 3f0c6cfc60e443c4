package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"financepro/internal/core"
	"financepro/internal/ocr"
	"financepro/internal/services"
)

func newScanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image>",
		Short: "Recognize a receipt photo and print the prefilled transaction form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := readImage(args[0])
			if err != nil {
				return err
			}
			return withFinance(cmd.Context(), app, true, func(svc *services.FinanceService) error {
				form, err := svc.ScanReceipt(cmd.Context(), image, core.NewTransactionForm(svc.Today()))
				if err != nil {
					return fmt.Errorf("scan %s: %w", args[0], err)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(form)
			})
		},
	}
}

func readImage(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if info.Size() > ocr.MaxImageBytes {
		return nil, fmt.Errorf("%w: %s", ocr.ErrImageTooLarge, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return b, nil
}
