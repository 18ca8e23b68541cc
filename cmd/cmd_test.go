package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jing2uo/b3hist/bovespa/bovespatest"
	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/workflow"
)

func isolate(t *testing.T) string {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("B3HIST_DBPATH", "")
	t.Setenv("B3HIST_LOG_LEVEL", "")
	return home
}

func testConfig(t *testing.T) *Config {
	dir := filepath.Join(t.TempDir(), "db")
	return &Config{
		DBPath:   dir,
		LogLevel: "error",
		Revision: store.Revision{Date: "2024-01-01", Time: "12:00:00", Toolchain: "go"},
		Log:      zap.NewNop(),
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := LoadConfig(nil, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".b3hist", "db"), cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, workflow.DefaultSourceURL, cfg.SourceURL)
	assert.NotNil(t, cfg.Log)
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := isolate(t)
	t.Setenv("B3HIST_DBPATH", "/from/env")

	cfg, err := LoadConfig(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DBPath)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dbpath", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--dbpath", "/from/flag", "--log-level", "debug"}))

	cfg, err = LoadConfig(flags, "")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)

	file := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log_level: warn\nsource_url: http://localhost/%d.zip\n"), 0o644))
	cfg, err = LoadConfig(nil, file)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "http://localhost/%d.zip", cfg.SourceURL)
	assert.Equal(t, "/from/env", cfg.DBPath)

	_, err = LoadConfig(nil, filepath.Join(home, "missing.yaml"))
	assert.Error(t, err)
}

func TestCommandsAgainstFreshDatabase(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	require.NoError(t, Info(cfg, &out))
	assert.Contains(t, out.String(), "missing")

	// not a terminal and no --force, but the directory does not exist yet
	require.NoError(t, Init(cfg, false, os.Stdin, &out))

	out.Reset()
	require.NoError(t, Info(cfg, &out))
	assert.Regexp(t, `status\s+ok`, out.String())
	assert.Regexp(t, `stocks\s+0`, out.String())

	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	file := filepath.Join(t.TempDir(), "COTAHIST_D02012024.TXT")
	extract := bovespatest.Hist("20240102",
		bovespatest.Cash("VALE3", jan2, 6800),
		bovespatest.Cash("PETR4", jan2, 3512),
	)
	require.NoError(t, os.WriteFile(file, []byte(extract), 0o644))
	require.NoError(t, Import(context.Background(), cfg, file))

	out.Reset()
	require.NoError(t, List(cfg, &out))
	assert.Equal(t, []string{"PETR4", "VALE3"}, strings.Fields(out.String()))

	out.Reset()
	require.NoError(t, History(cfg, "PETR4", workflow.ExportOptions{}, "", &out))
	assert.Equal(t, "2024-01-02,ON NM,1,3512,3512,3512,3512,3512,10,1000,3512000\n", out.String())

	err := History(cfg, "ABCD3", workflow.ExportOptions{}, "", &out)
	assert.ErrorIs(t, err, store.ErrStockNotFound)
	assert.Error(t, History(cfg, "a/b", workflow.ExportOptions{}, "", &out))

	// an existing database is only wiped with --force when stdin is not a terminal
	devnull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer devnull.Close()
	assert.Error(t, Init(cfg, false, devnull, &out))
	require.NoError(t, Init(cfg, true, devnull, &out))

	out.Reset()
	require.NoError(t, List(cfg, &out))
	assert.Empty(t, out.String())
}

func TestStaleDatabaseIsRefused(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, store.Init(cfg.DBPath, cfg.Revision))

	cfg.Revision.Time = "13:00:00"
	var out bytes.Buffer
	require.NoError(t, Info(cfg, &out))
	assert.Contains(t, out.String(), "stale")
	assert.ErrorIs(t, List(cfg, &out), store.ErrStaleDatabase)
}
