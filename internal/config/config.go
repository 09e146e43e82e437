// Package config resolves the settings of a build run from defaults, an optional
// YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/build"
	"github.com/yumyai/conektbuild/pkg/db"
	"github.com/yumyai/conektbuild/pkg/hcca"
	"github.com/yumyai/conektbuild/pkg/phylo"
	"github.com/yumyai/conektbuild/pkg/stats"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	EnvData       = "CONEKT_DATA"
	EnvDB         = "CONEKT_DB"
	EnvConfig     = "CONEKT_CONFIG"
	EnvLogLevel   = "CONEKT_LOG_LEVEL"
	EnvBatchSize  = "CONEKT_BATCH_SIZE"
	defaultData   = "./data"
	defaultDBFile = "db/conekt.db"
)

type Specificity struct {
	NumBins    int      `yaml:"num_bins"`
	Categories []string `yaml:"categories"`
}

type Config struct {
	Database       string      `yaml:"database"`
	LogLevel       string      `yaml:"log_level"`
	BatchSize      int         `yaml:"batch_size"`
	HCCA           hcca.Params `yaml:"hcca"`
	Specificity    Specificity `yaml:"specificity"`
	CladeCacheSize int         `yaml:"clade_cache_size"`
}

func Default() *Config {
	return &Config{
		LogLevel:  "info",
		BatchSize: db.DefaultBatchSize,
		HCCA:      hcca.DefaultParams(),
		Specificity: Specificity{
			NumBins:    stats.DefaultNumBins,
			Categories: append([]string(nil), build.DefaultCategories...),
		},
		CladeCacheSize: phylo.DefaultCladeCacheSize,
	}
}

// Load builds the configuration. configFile may be empty, in which case CONEKT_CONFIG
// is used when set. A missing .env file is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env found, using local environment")
	}

	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv(EnvConfig)
	}
	if configFile != "" {
		if err := cfg.readFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) readFile(name string) error {
	raw, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", name, err)
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", name, err)
	}

	logger.Debug("Loaded config file", zap.String("file", name))
	return nil
}

func (c *Config) applyEnv() error {
	data := os.Getenv(EnvData)
	if data == "" && c.Database == "" {
		logger.Debug("No local environment (CONEKT_DATA), using default value", zap.String("data", defaultData))
		data = defaultData
	}

	if dbPath := os.Getenv(EnvDB); dbPath != "" {
		c.Database = dbPath
	} else if data != "" {
		c.Database = path.Join(data, defaultDBFile)
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}

	if size := os.Getenv(EnvBatchSize); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvBatchSize, size, err)
		}
		c.BatchSize = n
	}

	return nil
}

// Validate checks the values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("no database configured")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Specificity.NumBins <= 0 {
		return fmt.Errorf("number of bins must be positive, got %d", c.Specificity.NumBins)
	}
	return c.HCCA.Validate()
}
