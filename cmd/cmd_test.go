package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/conektbuild/internal/config"
	"github.com/yumyai/conektbuild/pkg/model"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	for _, k := range []string{config.EnvData, config.EnvDB, config.EnvConfig, config.EnvLogLevel, config.EnvBatchSize} {
		t.Setenv(k, "")
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := execute(context.Background())
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"specificity", "enrich-clusters", "cluster", "reconcile", "update-counts", "init-db"}

	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}

	pflags := rootCmd.PersistentFlags()
	for _, name := range []string{"config", "db", "log-level", "batch-size"} {
		assert.NotNil(t, pflags.Lookup(name), name)
	}

	step := clusterCmd.Flags().Lookup("step-size")
	require.NotNil(t, step)
	assert.Equal(t, "3", step.DefValue)
}

func TestInitDBAndCounts(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "db", "conekt.db")

	out, err := runCmd(t, "--db", dbFile, "--log-level", "error", "init-db")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready")
	assert.Equal(t, dbFile, env.cfg.Database)
	assert.Contains(t, env.runID, "run-")

	out, err = runCmd(t, "--db", dbFile, "--batch-size", "10", "update-counts")
	require.NoError(t, err)
	assert.Contains(t, out, "0 species")
	assert.Equal(t, 10, env.builder.BatchSize)

	_, err = runCmd(t, "--db", dbFile, "cluster", "--network-method", "7", "--description", "x", "--min-size", "5")
	assert.ErrorIs(t, err, model.ErrNetworkMethodNotFound)
	assert.Equal(t, 5, clusterMinSize)
	// closed even though the command failed
	assert.Error(t, env.db.SQL.Ping())

	_, err = runCmd(t, "--db", dbFile, "specificity", "--species", "zzz")
	assert.ErrorIs(t, err, model.ErrSpeciesNotFound)
}

func TestInvalidBatchSize(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "conekt.db")

	_, err := runCmd(t, "--db", dbFile, "--batch-size", "-1", "init-db")
	assert.Error(t, err)
}
