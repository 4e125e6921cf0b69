package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wealthcommand/wealth-command/internal/common"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "wealth",
		Short: "Personal finance tracker",
		Long: `wealth-command: a local-first personal finance tracker that records
income and expenses, tracks loans, and keeps everything in a store on
your own machine. No servers, no accounts.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/wealth/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add commands
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.UserMessage)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/wealth", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WEALTH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	level := parseLogLevel(viper.GetString("logging.level"))
	return common.SetupLogger(level, viper.GetString("logging.format"))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("wealth %s\n", version)
		},
	}
}
