package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultScaffoldCmd = "pnpm create vite . --yes --template react-ts"
	DefaultInstallCmd  = "pnpm i"
	DefaultStartCmd    = "npm run dev"
	DefaultEntryFile   = "/src/App.tsx"
	DefaultDockerImage = "node:20"
)

// loads configuration from environment variables. the model API key is
// not validated here: a missing key surfaces as a failed run.
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	environment := getEnv("ENVIRONMENT", "development")
	production := environment == "production"

	jwtSecret := os.Getenv("JWT_SECRET")
	sessionSecret := os.Getenv("SESSION_SECRET")

	if production && jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
	}

	if production && sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required in production")
	}

	if jwtSecret == "" {
		jwtSecret = randomSecret()
	}

	if sessionSecret == "" {
		sessionSecret = randomSecret()
	}

	ttl, err := time.ParseDuration(getEnv("WORKSPACE_TTL", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKSPACE_TTL: %w", err)
	}

	llmCfg, err := loadLLM()
	if err != nil {
		return nil, err
	}

	sandboxCfg := loadSandbox()
	if sandboxCfg.Runtime != "local" && sandboxCfg.Runtime != "docker" {
		return nil, fmt.Errorf("invalid SANDBOX_RUNTIME %q (expected local or docker)", sandboxCfg.Runtime)
	}

	return &Config{
		Environment:    environment,
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LLM:            llmCfg,
		Sandbox:        sandboxCfg,
		JWTSecret:      jwtSecret,
		SessionSecret:  sessionSecret,
		WorkspaceTTL:   ttl,
		RunRateLimit:   getEnv("RUN_RATE_LIMIT", "10-M"),
	}, nil
}

func loadLLM() (LLMConfig, error) {
	cfg := LLMConfig{
		Provider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:        os.Getenv("LLM_MODEL"),
		BaseURL:      os.Getenv("LLM_BASE_URL"),
		MaxTokens:    4096,
	}

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid LLM_MAX_TOKENS %q", v)
		}
		cfg.MaxTokens = n
	}

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return cfg, fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		t := float32(f)
		cfg.Temperature = &t
	}

	return cfg, nil
}

func loadSandbox() SandboxConfig {
	return SandboxConfig{
		Runtime:     strings.ToLower(getEnv("SANDBOX_RUNTIME", "local")),
		Root:        getEnv("SANDBOX_ROOT", filepath.Join(os.TempDir(), "codelab")),
		DockerImage: getEnv("SANDBOX_DOCKER_IMAGE", DefaultDockerImage),
		ScaffoldCmd: strings.Fields(getEnv("SANDBOX_SCAFFOLD_CMD", DefaultScaffoldCmd)),
		InstallCmd:  strings.Fields(getEnv("SANDBOX_INSTALL_CMD", DefaultInstallCmd)),
		StartCmd:    strings.Fields(getEnv("SANDBOX_START_CMD", DefaultStartCmd)),
		EntryFile:   getEnv("SANDBOX_ENTRY_FILE", DefaultEntryFile),
		PreviewHost: os.Getenv("PREVIEW_HOST"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
