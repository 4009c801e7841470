package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvironmentVariables_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SANDBOX_RUNTIME", "")
	t.Setenv("SANDBOX_START_CMD", "")
	t.Setenv("WORKSPACE_TTL", "")

	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err, "missing API key must not fail startup")

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.OpenAIKey)
	assert.Equal(t, "local", cfg.Sandbox.Runtime)
	assert.Equal(t, []string{"npm", "run", "dev"}, cfg.Sandbox.StartCmd)
	assert.Equal(t, []string{"pnpm", "i"}, cfg.Sandbox.InstallCmd)
	assert.Equal(t, "/src/App.tsx", cfg.Sandbox.EntryFile)
	assert.Equal(t, 2*time.Hour, cfg.WorkspaceTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadEnvironmentVariables_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadEnvironmentVariables()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadEnvironmentVariables_InvalidRuntime(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("SANDBOX_RUNTIME", "firecracker")

	_, err := LoadEnvironmentVariables()
	require.Error(t, err)
}

func TestLoadEnvironmentVariables_Temperature(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")

	t.Setenv("LLM_TEMPERATURE", "")
	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err)
	assert.Nil(t, cfg.LLM.Temperature)

	t.Setenv("LLM_TEMPERATURE", "0")
	cfg, err = LoadEnvironmentVariables()
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.Equal(t, float32(0), *cfg.LLM.Temperature)

	t.Setenv("LLM_TEMPERATURE", "warm")
	_, err = LoadEnvironmentVariables()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_TEMPERATURE")
}

func TestFlagsApply(t *testing.T) {
	cfg := &Config{Port: "8080", Sandbox: SandboxConfig{Runtime: "local"}}

	ParseServerFlags([]string{"-port", "9090", "-runtime", "docker"}).Apply(cfg)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "docker", cfg.Sandbox.Runtime)
}
