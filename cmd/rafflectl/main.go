// Command rafflectl runs operator tasks against the raffle database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cimillas/charity-raffle/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rafflectl",
		Short:         "Operator tool for the charity raffle service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(drawCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(hashPasswordCmd())
	root.AddCommand(keygenCmd())
	return root
}

type env struct {
	cfg    config.Config
	logger *logrus.Logger
	pool   *pgxpool.Pool
}

// connect loads config and opens the pool. Callers close env.pool.
func connect(ctx context.Context) (*env, error) {
	cfg, _, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger()
	logger.SetOutput(os.Stderr)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &env{cfg: cfg, logger: logger, pool: pool}, nil
}
