package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:    AppConfig{Environment: "development"},
			Logger: LoggerConfig{Level: "info"},
			Store:  StoreConfig{Path: "/tmp/store"},
			Index:  IndexConfig{OutputDir: "/tmp/index", Sink: "file", Shards: 1},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("invalid environment", func(t *testing.T) {
		cfg := valid()
		cfg.App.Environment = "test"
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logger.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid sink", func(t *testing.T) {
		cfg := valid()
		cfg.Index.Sink = "csv"
		assert.Error(t, cfg.Validate())
	})

	t.Run("sqlite sink accepted", func(t *testing.T) {
		cfg := valid()
		cfg.Index.Sink = "sqlite"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("zero shards rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Index.Shards = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestExpandPath(t *testing.T) {
	t.Run("empty uses default", func(t *testing.T) {
		got, err := expandPath("", "/default/path")
		require.NoError(t, err)
		assert.Equal(t, "/default/path", got)
	})

	t.Run("tilde expansion", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := expandPath("~/data", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "data"), got)
	})

	t.Run("relative becomes absolute", func(t *testing.T) {
		got, err := expandPath("data", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestExpandIndexDirDefaultsSQLitePath(t *testing.T) {
	cfg := &Config{Index: IndexConfig{OutputDir: "/tmp/idx"}}
	require.NoError(t, cfg.expandIndexDir())
	assert.Equal(t, "/tmp/idx", cfg.Index.OutputDir)
	assert.Equal(t, filepath.Join("/tmp/idx", "candidates.db"), cfg.Index.SQLitePath)
}

func TestGetConfigValue(t *testing.T) {
	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv("SHELFMARK_TEST_KEY", "from-env")
		assert.Equal(t, "from-flag", getConfigValue("from-flag", "SHELFMARK_TEST_KEY", "default"))
	})

	t.Run("env wins over default", func(t *testing.T) {
		t.Setenv("SHELFMARK_TEST_KEY", "from-env")
		assert.Equal(t, "from-env", getConfigValue("", "SHELFMARK_TEST_KEY", "default"))
	})

	t.Run("default when nothing set", func(t *testing.T) {
		assert.Equal(t, "default", getConfigValue("", "SHELFMARK_UNSET_KEY", "default"))
	})
}

func TestGetIntConfigValue(t *testing.T) {
	assert.Equal(t, 4, getIntConfigValue("4", "SHELFMARK_UNSET_KEY", 1))
	assert.Equal(t, 1, getIntConfigValue("", "SHELFMARK_UNSET_KEY", 1))
	assert.Equal(t, 1, getIntConfigValue("notanumber", "SHELFMARK_UNSET_KEY", 1))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nSHELFMARK_ENVFILE_A=hello\nSHELFMARK_ENVFILE_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("SHELFMARK_ENVFILE_A", "")
	os.Unsetenv("SHELFMARK_ENVFILE_A")
	t.Setenv("SHELFMARK_ENVFILE_B", "")
	os.Unsetenv("SHELFMARK_ENVFILE_B")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "hello", os.Getenv("SHELFMARK_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("SHELFMARK_ENVFILE_B"))
}

func TestLoadEnvFileRespectsExistingEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHELFMARK_ENVFILE_C=file\n"), 0o644))

	t.Setenv("SHELFMARK_ENVFILE_C", "already-set")
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "already-set", os.Getenv("SHELFMARK_ENVFILE_C"))
}
