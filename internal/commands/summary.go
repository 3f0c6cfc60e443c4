package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financepro/internal/aggregate"
	"financepro/internal/core"
	"financepro/internal/services"
)

func newSummaryCommand(app *App, userID *string) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard totals for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFinance(cmd.Context(), app, false, func(svc *services.FinanceService) error {
				p := svc.CurrentPeriod()
				if period != "" {
					var err error
					if p, err = aggregate.ParsePeriod(period); err != nil {
						return err
					}
				}
				d, err := svc.Dashboard(cmd.Context(), *userID, p)
				if err != nil {
					return fmt.Errorf("build dashboard: %w", err)
				}
				return printSummary(cmd.OutOrStdout(), d)
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "month as YYYY-MM (default: current month)")
	return cmd
}

func printSummary(out io.Writer, d aggregate.Dashboard) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s\n", d.Period)
	fmt.Fprintf(tw, "Income\t%s\n", core.FormatCurrency(d.Summary.Income))
	fmt.Fprintf(tw, "Expense\t%s\n", core.FormatCurrency(d.Summary.Expense))
	fmt.Fprintf(tw, "Net\t%s\n", core.FormatCurrency(d.Summary.Net))

	if len(d.ByCategory) > 0 {
		fmt.Fprintln(tw, "\nExpenses by category")
		for _, c := range d.ByCategory {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Category, core.FormatCurrency(c.Amount))
		}
	}

	if inv := d.Investments; inv != nil {
		fmt.Fprintln(tw, "\nInvestments")
		fmt.Fprintf(tw, "  Invested\t%s\n", core.FormatCurrency(inv.Summary.TotalInvested))
		fmt.Fprintf(tw, "  Current\t%s\n", core.FormatCurrency(inv.Summary.TotalCurrent))
		fmt.Fprintf(tw, "  Yield\t%s\n", core.FormatPercent(inv.Summary.YieldPercent))
	}

	if len(d.Goals) > 0 {
		fmt.Fprintln(tw, "\nGoals")
		for _, g := range d.Goals {
			status := core.FormatPercent(g.Progress.Percent)
			if g.Overdue {
				status += " (overdue)"
			}
			fmt.Fprintf(tw, "  %s\t%s\n", g.Title, status)
		}
	}
	return tw.Flush()
}
