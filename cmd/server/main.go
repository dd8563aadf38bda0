package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rentloop/rentloop-server/internal/app"
	"github.com/rentloop/rentloop-server/internal/config"
	"github.com/rentloop/rentloop-server/internal/log"
	"github.com/rentloop/rentloop-server/internal/store/sqlite"
)

func main() {
	var (
		configPath string
		addr       string
		dbPath     string
	)

	rootCmd := &cobra.Command{
		Use:           "rentloop-server",
		Short:         "Rental platform backend with a realtime messaging channel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := log.New("info")
			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Msg("configuration loaded")

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.Run(ctx)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "database path override")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := log.New("info")
			cfg, _, err := config.Load(bootLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.InitSchema(cmd.Context()); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			bootLogger.Info().Str("path", cfg.DatabasePath).Msg("schema applied")
			return nil
		},
	}
	migrateCmd.Flags().StringVar(&dbPath, "db", "", "database path override")

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
