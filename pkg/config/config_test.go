package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, 4, cfg.AnalysisWorkers)
	assert.Equal(t, 0, cfg.GenerationRetries)
	assert.Equal(t, 1500, cfg.SummaryMaxTokens)
	assert.Equal(t, 1200, cfg.BreakdownMaxTokens)
	assert.Equal(t, 90*time.Second, cfg.AIRequestTimeout)
	assert.False(t, cfg.EnableCardOverview)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CorsOrigins)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "production")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("ANALYSIS_WORKERS", "8")
	t.Setenv("GENERATION_RETRIES", "1")
	t.Setenv("GENERATION_RETRY_BACKOFF", "500ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 8, cfg.AnalysisWorkers)
	assert.Equal(t, 1, cfg.GenerationRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.GenerationRetryBackoff)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown provider", func(c *Config) { c.LLMProvider = "local" }, "unsupported LLM_PROVIDER"},
		{"zero workers", func(c *Config) { c.AnalysisWorkers = 0 }, "ANALYSIS_WORKERS"},
		{"negative retries", func(c *Config) { c.GenerationRetries = -1 }, "GENERATION_RETRIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LLMProvider: "anthropic", AnalysisWorkers: 2}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
