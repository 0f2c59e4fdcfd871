package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoersaal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: /var/lib/hoersaal/cache.sqlite\nlog-level: debug\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/hoersaal/cache.sqlite", cfg.Database)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "production", cfg.Environment, "untouched keys keep their defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoersaal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log-level: debug\n"), 0o644))
	t.Setenv("HOERSAAL_LOG_LEVEL", "warn")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("HOERSAAL_LOG_LEVEL", "warn")
	t.Setenv("HOERSAAL_VIEW", "thesis")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", Default().LogLevel, "")
	require.NoError(t, flags.Parse([]string{"--log-level=error"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	require.Equal(t, "error", cfg.LogLevel)
	require.Equal(t, "thesis", cfg.View, "env still applies to keys no flag sets")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("HOERSAAL_LOG_LEVEL", "loud")
	_, err := Load("", nil)
	require.Error(t, err)

	t.Setenv("HOERSAAL_LOG_LEVEL", "info")
	t.Setenv("HOERSAAL_DATABASE", "")
	_, err = Load("", nil)
	require.Error(t, err)
}
