package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	redisInfra "github.com/fastygo/questboard/internal/infrastructure/redis"
	"github.com/fastygo/questboard/internal/storage"
	redisRepo "github.com/fastygo/questboard/repository/redis"
	progressUC "github.com/fastygo/questboard/usecase/progress"
)

var (
	reconcileUser   string
	reconcileDryRun bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild a user's stats and daily progress from completed tasks",
	Long: `Recompute total bonus points, total XP and the daily progress rows of a
user from the rewards stored on their completed tasks. Each reward counts for
the calendar day (APP_TIMEZONE) on which its task was completed.

Examples:
  questctl reconcile --user 7f1c...
  questctl reconcile --user 7f1c... --dry-run`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileUser, "user", "", "user id to reconcile (required)")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "report the recomputed values without writing them")
	_ = reconcileCmd.MarkFlagRequired("user")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if reconcileUser == "" {
		return errors.New("--user is required")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Context.ShutdownTimeout)
	defer cancel()

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close(log)

	opts := []progressUC.Option{progressUC.WithLocation(cfg.Location())}
	if cfg.Progress.CacheEnabled && !reconcileDryRun {
		client, err := redisInfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, cached progress windows may stay stale", zap.Error(err))
		} else {
			defer client.Close()
			opts = append(opts, progressUC.WithCache(redisRepo.NewProgressCache(client, cfg.Progress.CacheTTL)))
		}
	}

	uc := progressUC.New(backend.Store, log, opts...)
	report, err := uc.Reconcile(ctx, reconcileUser, reconcileDryRun)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
