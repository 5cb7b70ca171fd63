// Command intentd runs the intent pipeline as an HTTP service, and
// provides one-shot CLI subcommands for driving it locally without a
// server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daqi-oss/intentd/internal/config"
	"github.com/daqi-oss/intentd/internal/executor"
	"github.com/daqi-oss/intentd/internal/facade"
	"github.com/daqi-oss/intentd/internal/history"
	"github.com/daqi-oss/intentd/internal/obslog"
	"github.com/daqi-oss/intentd/internal/planner"
)

var (
	cfgLogFormat    string
	cfgDebug        bool
	cfgBackend      string
	cfgDSN          string
	cfgRetention    int
	cfgListen       string
	cfgHistoryRedis string
	cfgCacheRedis   string
	cfgFile         string
)

var rootCmd = &cobra.Command{
	Use:   "intentd",
	Short: "Parse, plan, and execute structured command intents",
	Long: `intentd turns free-form command-line input into a batched,
conflict-checked execution plan and carries it through dry-run or real
execution, recording every run to a retention-bounded history store.`,
}

func buildConfig() (*config.Config, error) {
	opts := []config.Option{}
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	opts = append(opts,
		config.WithLogFormat(cfgLogFormat),
		config.WithDebugLogging(cfgDebug),
	)
	if cfgHistoryRedis != "" {
		opts = append(opts, config.WithHistoryRedisAddr(cfgHistoryRedis))
	} else if cfgBackend != "" {
		opts = append(opts, config.WithHistoryBackend(cfgBackend, cfgDSN))
	} else if cfgDSN != "" {
		opts = append(opts, config.WithHistoryDSN(cfgDSN))
	}
	if cfgRetention > 0 {
		opts = append(opts, config.WithHistoryRetentionDays(cfgRetention))
	}
	if cfgCacheRedis != "" {
		opts = append(opts, config.WithPlanCacheRedis(cfgCacheRedis))
	}
	return config.New(opts...)
}

func buildFacade(cfg *config.Config) (*facade.Facade, error) {
	logger := obslog.New("intentd", cfg.Logging.Format, cfg.Logging.Debug)
	ctx := context.Background()

	var store history.Store
	switch cfg.History.Backend {
	case "sqlite":
		s, err := history.NewSQLiteStore(cfg.History.DSN, cfg.History.RetentionDays)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history store: %w", err)
		}
		store = s
	case "redis":
		s, err := history.NewRedisStore(ctx, cfg.History.RedisAddr, cfg.History.RetentionDays)
		if err != nil {
			return nil, fmt.Errorf("open redis history store: %w", err)
		}
		store = s
	default:
		store = history.NewInMemoryStore(cfg.History.RetentionDays)
	}

	facadeOpts := []facade.Option{
		facade.WithMaxConcurrency(cfg.MaxConcurrency),
	}
	switch cfg.Cache.Backend {
	case "redis":
		c, err := planner.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.PlanTTL)
		if err != nil {
			return nil, fmt.Errorf("open redis plan cache: %w", err)
		}
		facadeOpts = append(facadeOpts, facade.WithPlanCache(c))
	default:
		facadeOpts = append(facadeOpts, facade.WithPlanCacheTTL(cfg.Cache.PlanTTL))
	}

	f := facade.New(
		executor.MockDispatcher{},
		store,
		logger,
		0,
		facadeOpts...,
	)
	return f, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a JSON or YAML config file merged over env, before flags")
	rootCmd.PersistentFlags().StringVar(&cfgLogFormat, "log-format", "json", "log output format: json or text")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVar(&cfgBackend, "history-backend", "", "history store backend: memory, sqlite, or redis (default from INTENTD_HISTORY_BACKEND or memory)")
	rootCmd.PersistentFlags().StringVar(&cfgDSN, "history-dsn", "", "sqlite history store file path")
	rootCmd.PersistentFlags().StringVar(&cfgHistoryRedis, "history-redis-addr", "", "redis history store address (selects the redis backend)")
	rootCmd.PersistentFlags().IntVar(&cfgRetention, "history-retention-days", 0, "history retention window in days")
	rootCmd.PersistentFlags().StringVar(&cfgCacheRedis, "plan-cache-redis-addr", "", "redis plan cache address (selects the redis backend)")

	serveCmd.Flags().StringVar(&cfgListen, "listen", ":8080", "HTTP listen address")

	rootCmd.AddCommand(serveCmd, parseCmd, dryRunCmd, executeCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
