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
		Server: ServerConfig{Host: "0.0.0.0", Port: "7000"},
		Sources: SourcesConfig{
			LibriVoxBaseURL:      "https://librivox.org/api/feed/audiobooks",
			OpenLibraryBaseURL:   "https://openlibrary.org",
			OpenLibraryCoversURL: "https://covers.openlibrary.org",
			ListTimeout:          3 * time.Second,
			FetchTimeout:         8 * time.Second,
			RequestsPerSecond:    5,
			Burst:                10,
		},
		Index:  IndexConfig{TTL: 72 * time.Hour},
		Covers: CoversConfig{Policy: []string{"archive", "enrichment", "site"}},
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
		{"DEBUG", true},
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

func TestValidate_PublicBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Server.PublicBaseURL = "https://addon.example.com"
	assert.NoError(t, cfg.Validate())

	cfg.Server.PublicBaseURL = "ftp://addon.example.com"
	assert.Error(t, cfg.Validate())

	cfg.Server.PublicBaseURL = "addon.example.com"
	assert.Error(t, cfg.Validate())
}

func TestValidate_CoverPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Covers.Policy = []string{"enrichment", "archive"}
	assert.NoError(t, cfg.Validate())

	cfg.Covers.Policy = []string{"archive", "random"}
	assert.Error(t, cfg.Validate())

	cfg.Covers.Policy = nil
	assert.Error(t, cfg.Validate())
}

func TestValidate_NonPositiveLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.ListTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Sources.Burst = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Index.TTL = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RelayClientLimit(t *testing.T) {
	// Zero disables the limiter, so burst is not checked.
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Relay.ClientRPS = 2
	cfg.Relay.ClientBurst = 0
	assert.Error(t, cfg.Validate())

	cfg.Relay.ClientBurst = 20
	assert.NoError(t, cfg.Validate())

	cfg.Relay.ClientRPS = -1
	assert.Error(t, cfg.Validate())
}

func TestExpandPath_EmptyUsesDefault(t *testing.T) {
	path, err := expandPath("", "")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestExpandPath_TildeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path, err := expandPath("~/listenup/index", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "listenup", "index"), path)
}

func TestExpandPath_RelativePath(t *testing.T) {
	path, err := expandPath("data/index", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "index", filepath.Base(path))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_LISTENUP_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "TEST_LISTENUP_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "TEST_LISTENUP_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "TEST_LISTENUP_UNSET", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	t.Setenv("TEST_LISTENUP_BOOL", "YES")
	assert.True(t, getBoolConfigValue("", "TEST_LISTENUP_BOOL", false))
	assert.False(t, getBoolConfigValue("off", "TEST_LISTENUP_BOOL", true))
	assert.True(t, getBoolConfigValue("", "TEST_LISTENUP_BOOL_UNSET", true))
}

func TestGetNumericConfigValues(t *testing.T) {
	t.Setenv("TEST_LISTENUP_INT", "42")
	t.Setenv("TEST_LISTENUP_FLOAT", "2.5")
	t.Setenv("TEST_LISTENUP_BAD", "many")

	assert.Equal(t, 42, getIntConfigValue("", "TEST_LISTENUP_INT", 1))
	assert.Equal(t, 7, getIntConfigValue("", "TEST_LISTENUP_BAD", 7))
	assert.InDelta(t, 2.5, getFloatConfigValue("", "TEST_LISTENUP_FLOAT", 1), 0.0001)
	assert.InDelta(t, 1.0, getFloatConfigValue("", "TEST_LISTENUP_BAD", 1), 0.0001)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"archive", "site"}, splitList(" Archive , ,site "))
	assert.Nil(t, splitList(""))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nTEST_LISTENUP_A=alpha\n\nTEST_LISTENUP_B=\"beta\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("TEST_LISTENUP_A")
		os.Unsetenv("TEST_LISTENUP_B")
	})

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "alpha", os.Getenv("TEST_LISTENUP_A"))
	assert.Equal(t, "beta", os.Getenv("TEST_LISTENUP_B"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_PAIR\n"), 0o600))

	err := loadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TEST_LISTENUP_KEEP", "original")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_LISTENUP_KEEP=replaced\n"), 0o600))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "original", os.Getenv("TEST_LISTENUP_KEEP"))
}
