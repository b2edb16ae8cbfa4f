package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"ENVIRONMENT", "PORT", "LOG_LEVEL", "ALLOWED_ORIGINS",
	"WS_RATE", "WS_BURST", "API_RATE", "API_BURST", "EVENT_RATE", "EVENT_BURST",
}

// unsetAll clears every config key for the duration of the test.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	unsetAll(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 0.5, cfg.WSRate)
	assert.Equal(t, 10, cfg.WSBurst)
	assert.Equal(t, 5.0, cfg.APIRate)
	assert.Equal(t, 20, cfg.APIBurst)
	assert.Equal(t, 20.0, cfg.EventRate)
	assert.Equal(t, 40, cfg.EventBurst)
}

func TestFromEnv_Overrides(t *testing.T) {
	unsetAll(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", " WARN ")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("EVENT_RATE", "5")
	t.Setenv("EVENT_BURST", "7")
	t.Setenv("API_BURST", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5.0, cfg.EventRate)
	assert.Equal(t, 7, cfg.EventBurst)
	assert.Equal(t, 3, cfg.APIBurst)
	assert.Equal(t, 0.5, cfg.WSRate)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non numeric port", key: "PORT", value: "http"},
		{name: "privileged port", key: "PORT", value: "80"},
		{name: "port too large", key: "PORT", value: "70000"},
		{name: "non numeric rate", key: "WS_RATE", value: "fast"},
		{name: "zero burst", key: "EVENT_BURST", value: "0"},
		{name: "negative rate", key: "EVENT_RATE", value: "-1"},
		{name: "zero api burst", key: "API_BURST", value: "0"},
		{name: "fractional burst", key: "WS_BURST", value: "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetAll(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := FromEnv()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestFromEnv_ParseErrorNamesTheKey(t *testing.T) {
	unsetAll(t)
	t.Setenv("WS_RATE", "fast")

	_, err := FromEnv()
	require.Error(t, err)

	var parseErr *envconfig.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "WS_RATE", parseErr.KeyName)
}

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	unsetAll(t)

	dir := t.TempDir()
	content := "PORT=4555\nALLOWED_ORIGINS=https://chat.example\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultDotEnvFile), []byte(content), 0o600))
	chdir(t, dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4555, cfg.Port)
	assert.Equal(t, []string{"https://chat.example"}, cfg.AllowedOrigins)
}

func TestLoadConfig_MissingDotEnv(t *testing.T) {
	unsetAll(t)
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
}

// chdir switches the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
