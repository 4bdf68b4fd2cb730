package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitemaster/internal/config"
	"sitemaster/pkg/db"
	pkglogger "sitemaster/pkg/logger"
	"sitemaster/pkg/mq"
	"sitemaster/pkg/outbox"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := pkglogger.NewLoggerFromConfig(cfg.Log)
			defer logger.Sync()

			pool, err := db.NewConnection(cfg.DB, logger)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer pool.Close()

			return db.Migrate(cmd.Context(), pool, logger)
		},
	}
}

func newOutboxCmd() *cobra.Command {
	outboxCmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and repair the event outbox",
	}

	var eventID int64
	var failed bool
	var limit int

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Republish a parked outbox event, or every failed one with --failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (eventID > 0) == failed {
				return errors.New("exactly one of --id or --failed is required")
			}

			cfg := config.Load()
			logger := pkglogger.NewLoggerFromConfig(cfg.Log)
			defer logger.Sync()

			pool, err := db.NewConnection(cfg.DB, logger)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer pool.Close()

			publisher, err := mq.NewPublisher(cfg.MQ.URL)
			if err != nil {
				return fmt.Errorf("connect mq: %w", err)
			}
			defer publisher.Close()

			replay := outbox.NewReplayService(outbox.NewRepository(pool), publisher, logger)
			if !failed {
				if err := replay.ReplayEvent(cmd.Context(), eventID); err != nil {
					return err
				}
				logger.Info("Outbox event replayed", zap.Int64("event_id", eventID))
				return nil
			}

			n, err := replay.ReplayFailedEvents(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d event(s)\n", n)
			return nil
		},
	}
	replayCmd.Flags().Int64Var(&eventID, "id", 0, "outbox event id to replay")
	replayCmd.Flags().BoolVar(&failed, "failed", false, "replay every failed event")
	replayCmd.Flags().IntVar(&limit, "limit", 100, "maximum events to replay with --failed")

	outboxCmd.AddCommand(replayCmd)
	return outboxCmd
}
