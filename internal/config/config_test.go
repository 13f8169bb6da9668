package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data: DataConfig{
			BasePath: "/some/path",
			Backend:  "badger",
		},
		Library: LibraryConfig{Root: "/library"},
		Playback: PlaybackConfig{
			Output:       "clock",
			TickInterval: 250 * time.Millisecond,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"WARN", true}, // levels are case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Backends(t *testing.T) {
	cfg := validConfig()
	cfg.Data.Backend = "sqlite"
	assert.NoError(t, cfg.Validate())

	cfg.Data.Backend = "postgres"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Outputs(t *testing.T) {
	cfg := validConfig()
	cfg.Playback.Output = "device"
	assert.NoError(t, cfg.Validate())

	cfg.Playback.Output = "pulse"
	assert.Error(t, cfg.Validate())
}

func TestValidate_EmptyLibraryRootAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Library.Root = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TickInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Playback.TickInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	t.Run("empty uses default", func(t *testing.T) {
		got, err := expandPath("", "/default")
		require.NoError(t, err)
		assert.Equal(t, "/default", got)
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := expandPath("~/books", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "books"), got)
	})

	t.Run("absolute stays put", func(t *testing.T) {
		got, err := expandPath("/data/engine", "")
		require.NoError(t, err)
		assert.Equal(t, "/data/engine", got)
	})
}

func TestGetConfigValue_Precedence(t *testing.T) {
	const key = "READALONG_TEST_VALUE"
	t.Setenv(key, "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", key, "default"))
	assert.Equal(t, "from-env", getConfigValue("", key, "default"))

	os.Unsetenv(key)
	assert.Equal(t, "default", getConfigValue("", key, "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	assert.True(t, getBoolConfigValue("true", "NOPE", false))
	assert.True(t, getBoolConfigValue("1", "NOPE", false))
	assert.True(t, getBoolConfigValue("YES", "NOPE", false))
	assert.False(t, getBoolConfigValue("no", "NOPE", true))
	assert.True(t, getBoolConfigValue("", "NOPE", true))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"# comment\n\nREADALONG_ENVFILE_A=hello\nREADALONG_ENVFILE_B=\"quoted\"\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("READALONG_ENVFILE_A")
		os.Unsetenv("READALONG_ENVFILE_B")
	})

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("READALONG_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("READALONG_ENVFILE_B"))
}

func TestLoadEnvFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("READALONG_ENVFILE_C=from-file\n"), 0o644))
	t.Setenv("READALONG_ENVFILE_C", "from-env")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "from-env", os.Getenv("READALONG_ENVFILE_C"))
}
