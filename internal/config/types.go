package config

import "time"

type Config struct {
	Environment    string
	Port           string
	AllowedOrigins []string

	LLM       LLMConfig
	Sandbox   SandboxConfig
	JWTSecret string

	SessionSecret string
	WorkspaceTTL  time.Duration
	RunRateLimit  string
}

type LLMConfig struct {
	Provider     string
	OpenAIKey    string
	AnthropicKey string
	Model        string
	BaseURL      string
	MaxTokens    int
	Temperature  *float32 // nil uses the provider default
}

type SandboxConfig struct {
	Runtime     string // local or docker
	Root        string
	DockerImage string
	ScaffoldCmd []string
	InstallCmd  []string
	StartCmd    []string
	EntryFile   string
	PreviewHost string
}

type Flags struct {
	Port     string
	Runtime  string
	Root     string
	Validate bool
}
