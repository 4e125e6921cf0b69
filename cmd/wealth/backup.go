package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create or restore full backups",
	}
	cmd.AddCommand(backupCreateCmd())
	cmd.AddCommand(backupRestoreCmd())
	return cmd
}

func backupCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Write a full backup to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := openFacade(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = facade.Close() }()

			backup, err := facade.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(backup, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode backup: %w", err)
			}
			if err := os.WriteFile(args[0], data, 0600); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}

			cmd.Printf("Backup %s written to %s (%d transactions)\n",
				backup.ID, args[0], len(backup.Transactions))
			return nil
		},
	}
	return cmd
}

func backupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore state from a backup file",
		Long: `Restore the full state from a backup file.

The document is validated before anything is applied; an invalid backup
leaves the current data untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) // #nosec G304 - user-supplied backup path
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			facade, err := openFacade(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = facade.Close() }()

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Restoring backup"),
				progressbar.OptionSpinnerType(14),
			)
			restoreErr := facade.RestoreBackup(cmd.Context(), data)
			_ = bar.Finish()
			if restoreErr != nil {
				return restoreErr
			}

			cmd.Println("\nBackup restored")
			return nil
		},
	}
}
