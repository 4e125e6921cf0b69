package main

import (
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [month]",
		Short: "Show a monthly income/expense summary",
		Long: `Show income, expenses, net and balances for one month.

The month is given as YYYY-MM; the current month is the default.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSummary,
	}
	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, facade, err := openManager(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = facade.Close() }()
	defer m.Close()

	monthKey := ""
	if len(args) > 0 {
		monthKey = args[0]
	}

	sum := m.GetMonthlySummary(monthKey)
	currency := m.State().Currency

	cmd.Printf("Summary for %s\n", sum.MonthKey)
	cmd.Printf("  Starting balance: %12.2f %s\n", sum.StartingBalance, currency)
	cmd.Printf("  Income:           %12.2f %s\n", sum.Income, currency)
	cmd.Printf("  Expenses:         %12.2f %s\n", sum.Expenses, currency)
	cmd.Printf("  Net:              %12.2f %s\n", sum.Net, currency)
	cmd.Printf("  Ending balance:   %12.2f %s\n", sum.EndingBalance, currency)
	return nil
}
