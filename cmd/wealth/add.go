package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wealthcommand/wealth-command/internal/common"
	"github.com/wealthcommand/wealth-command/internal/model"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record an income or expense transaction.

Example:
  wealth add --amount 4.50 --desc "Coffee" --category Food
  wealth add --type income --amount 85000 --desc "Monthly pay" --category Salary`,
		RunE: runAdd,
	}

	cmd.Flags().Float64("amount", 0, "transaction amount (required, positive)")
	cmd.Flags().String("desc", "", "description (required)")
	cmd.Flags().String("type", "expense", "transaction type (income, expense)")
	cmd.Flags().String("category", "", "category name (required)")
	cmd.Flags().String("date", "", "ISO date (default: today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("desc")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	amount, _ := cmd.Flags().GetFloat64("amount")
	desc, _ := cmd.Flags().GetString("desc")
	txType, _ := cmd.Flags().GetString("type")
	category, _ := cmd.Flags().GetString("category")
	date, _ := cmd.Flags().GetString("date")

	// The state manager never validates business rules; commands do.
	if amount <= 0 {
		return common.NewUserError(fmt.Sprintf("amount must be positive, got %v", amount), nil)
	}
	if len(strings.TrimSpace(desc)) < 2 {
		return common.NewUserError("description must be at least 2 characters", nil)
	}
	if txType != string(model.TypeIncome) && txType != string(model.TypeExpense) {
		return common.NewUserError(fmt.Sprintf("type must be income or expense, got %q", txType), nil)
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return common.NewUserError(fmt.Sprintf("invalid date %q", date), err)
	}

	ctx := cmd.Context()
	m, facade, err := openManager(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = facade.Close() }()
	defer m.Close()

	t := m.AddTransaction(model.Transaction{
		Date:        date,
		Description: desc,
		Type:        model.TransactionType(txType),
		Category:    category,
		Amount:      amount,
	})

	cmd.Printf("Recorded %s %s %.2f (%s) on %s [%s]\n",
		t.Type, m.State().Currency, t.Amount, t.Category, t.Date, t.ID)
	return nil
}
