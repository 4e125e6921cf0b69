package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wealthcommand/wealth-command/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}
	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())
	cmd.AddCommand(categoriesDeleteCmd())
	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, facade, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = facade.Close() }()
			defer m.Close()

			for _, c := range m.State().Categories {
				marker := " "
				if c.IsDefault {
					marker = "*"
				}
				cmd.Printf("%s %-20s %-8s %s\n", marker, c.Name, c.Type, c.ID)
			}
			return nil
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catType, _ := cmd.Flags().GetString("type")
			color, _ := cmd.Flags().GetString("color")
			icon, _ := cmd.Flags().GetString("icon")

			if catType != string(model.TypeIncome) && catType != string(model.TypeExpense) {
				return fmt.Errorf("type must be income or expense, got %q", catType)
			}

			m, facade, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = facade.Close() }()
			defer m.Close()

			c := m.AddCategory(model.Category{
				Name:  args[0],
				Type:  model.TransactionType(catType),
				Color: color,
				Icon:  icon,
			})
			cmd.Printf("Category %q (%s) [%s]\n", c.Name, c.Type, c.ID)
			return nil
		},
	}
	cmd.Flags().String("type", "expense", "category type (income, expense)")
	cmd.Flags().String("color", "#9e9e9e", "display color")
	cmd.Flags().String("icon", "tag", "display icon")
	return cmd
}

func categoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category by id.

Transactions referencing the deleted category are kept and reassigned to
the fallback category for their type (Salary for income, General for
expenses).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, facade, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = facade.Close() }()
			defer m.Close()

			if !m.DeleteCategory(args[0]) {
				return fmt.Errorf("no category with id %q", args[0])
			}
			cmd.Println("Category deleted; referencing transactions reassigned")
			return nil
		},
	}
}
