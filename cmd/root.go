// Package cmd provides the conekt-build command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/yumyai/conektbuild/internal/config"
	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/build"
	"github.com/yumyai/conektbuild/pkg/db"
	"go.uber.org/zap"
)

const Version = "0.1.0"

var (
	configFile string
	dbPath     string
	logLevel   string
	batchSize  int
)

// runEnv is what every command gets once the persistent pre-run has finished.
type runEnv struct {
	cfg     *config.Config
	db      *db.ConektDB
	builder *build.Builder
	runID   string
}

var env *runEnv

var rootCmd = &cobra.Command{
	Use:   "conekt-build",
	Short: "Compute derived annotations for a CoNekT database",
	Long: `conekt-build runs the batch jobs that fill the derived tables of a CoNekT
database: expression specificity, coexpression clusters, GO enrichment of
clusters and gene tree reconciliation.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pflags := rootCmd.PersistentFlags()
	pflags.StringVar(&configFile, "config", "", "YAML settings file (default $CONEKT_CONFIG)")
	pflags.StringVar(&dbPath, "db", "", "SQLite database (default $CONEKT_DB or $CONEKT_DATA/db/conekt.db)")
	pflags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	pflags.IntVar(&batchSize, "batch-size", 0, "rows written per transaction")

	rootCmd.Version = Version
}

// Execute runs the command line. The context is cancelled on SIGINT and SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx)
}

// execute runs rootCmd and releases the run environment whether or not the command
// failed. Cobra skips post-run hooks after an error.
func execute(ctx context.Context) error {
	env = nil
	defer teardown()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig resolves settings with command line flags taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = batchSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.InitLogger(logger.ParseLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	runID := "run-" + uuid.NewString()
	logger.With(zap.String("run_id", runID), zap.String("command", cmd.Name()))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("Open database on", zap.String("DB_LOC", cfg.Database), zap.String("version", Version))

	builder := build.NewBuilder(conn)
	builder.BatchSize = cfg.BatchSize
	builder.NumBins = cfg.Specificity.NumBins
	builder.Categories = cfg.Specificity.Categories
	builder.CladeCacheSize = cfg.CladeCacheSize

	env = &runEnv{cfg: cfg, db: conn, builder: builder, runID: runID}
	return nil
}

func teardown() {
	if env != nil && env.db != nil {
		if err := env.db.Close(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	logger.Sync()
}
