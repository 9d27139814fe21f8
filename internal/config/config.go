// Package config loads and hot-reloads the swarm runtime's TOML
// configuration: agent identity, trust/recovery/verification tuning,
// storage, telemetry, and the LLM/MCP/skills settings individual
// agents reason and act with.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the root of swarm.toml.
type Config struct {
	Agent        AgentConfig        `toml:"agent"`
	Trust        TrustConfig        `toml:"trust"`
	Recovery     RecoveryConfig     `toml:"recovery"`
	Verification VerificationConfig `toml:"verification"`
	Coordinator  CoordinatorConfig  `toml:"coordinator"`
	LLM          LLMConfig          `toml:"llm"`       // default reasoning model for agents
	SmallLLM     LLMConfig          `toml:"small_llm"` // fast/cheap model for triage and summarization
	Profiles     map[string]Profile `toml:"profiles"`  // capability profiles
	Telemetry    TelemetryConfig    `toml:"telemetry"`
	Storage      StorageConfig      `toml:"storage"`
	MCP          MCPConfig          `toml:"mcp"`
	Skills       SkillsConfig       `toml:"skills"`
	Security     SecurityConfig     `toml:"security"`
}

// AgentConfig contains this node's identity and signing key paths.
type AgentConfig struct {
	ID         string `toml:"id"`
	Role       string `toml:"role"` // worker, verifier, coordinator, observer
	Workspace  string `toml:"workspace"`
	PrivateKey string `toml:"private_key"` // path to Ed25519 private key PEM
	PublicKey  string `toml:"public_key"`  // path to Ed25519 public key PEM
}

// TrustConfig tunes the Trust Manager (C1, spec §4.1).
type TrustConfig struct {
	SeedValue        float64 `toml:"seed_value"`
	SignificantDelta float64 `toml:"significant_delta"`
	DecayHalfLifeDays float64 `toml:"decay_half_life_days"`
	StorePath        string  `toml:"store_path"` // bbolt file
}

// RecoveryConfig tunes the Recovery Manager (C6, spec §4.6).
type RecoveryConfig struct {
	MaxConcurrentRecoveries int    `toml:"max_concurrent_recoveries"`
	HistoryCapacity         int    `toml:"history_capacity"`
	CooldownStorePath       string `toml:"cooldown_store_path"`
}

// VerificationConfig tunes the Verifier (C4, spec §4.4).
type VerificationConfig struct {
	MinConfidence      float64 `toml:"min_confidence"`
	VerifyCommands     bool    `toml:"verify_commands"`
	VerifyFilesystem   bool    `toml:"verify_filesystem"`
	VerifyNetwork      bool    `toml:"verify_network"`
	GenerateProofs     bool    `toml:"generate_proofs"`
}

// CoordinatorConfig tunes the Coordinator (C7, spec §4.7).
type CoordinatorConfig struct {
	MaxAgents          int     `toml:"max_agents"`
	MaxConcurrentTasks int     `toml:"max_concurrent_tasks"`
	QuorumMinTrust     float64 `toml:"quorum_min_trust"`
	NATSURL            string  `toml:"nats_url"`
}

// LLMConfig contains LLM provider settings used by an agent's own
// reasoning loop (execengine FunctionCall steps, coordinator-side
// agent prompting).
type LLMConfig struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	APIKeyEnv    string `toml:"api_key_env"`
	MaxTokens    int    `toml:"max_tokens"`
	BaseURL      string `toml:"base_url"`
	Thinking     string `toml:"thinking"`
	MaxRetries   int    `toml:"max_retries"`
	RetryBackoff string `toml:"retry_backoff"`
}

// Profile maps a capability name to a specific LLM configuration.
type Profile struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	MaxTokens int    `toml:"max_tokens"`
	BaseURL   string `toml:"base_url"`
	Thinking  string `toml:"thinking"`
}

// TelemetryConfig contains OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Protocol string `toml:"protocol"` // http, otlp, file, noop
}

// StorageConfig contains persistent storage settings shared by trust,
// checkpoint, and event-log backends.
type StorageConfig struct {
	Path          string `toml:"path"`
	EventLogPath  string `toml:"event_log_path"`
	CheckpointDir string `toml:"checkpoint_dir"`
	RingCapacity  int    `toml:"ring_capacity"`
}

// MCPConfig contains MCP tool server configuration for execengine's
// FunctionCall dispatch.
type MCPConfig struct {
	Servers map[string]MCPServerConfig `toml:"servers"`
}

// MCPServerConfig configures an MCP server connection.
type MCPServerConfig struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`
}

// SkillsConfig contains Agent Skills configuration.
type SkillsConfig struct {
	Paths []string `toml:"paths"`
}

// SecurityConfig contains security framework configuration layered on
// top of ContextBounds (spec §3) for untrusted-content handling.
type SecurityConfig struct {
	Mode      string `toml:"mode"` // "default" or "paranoid"
	UserTrust string `toml:"user_trust"`
	TriageLLM string `toml:"triage_llm"`
}

// New creates a config seeded with the runtime's defaults.
func New() *Config {
	return &Config{
		Trust: TrustConfig{
			SeedValue:         0.5,
			SignificantDelta:  0.15,
			DecayHalfLifeDays: 30,
			StorePath:         "trust.db",
		},
		Recovery: RecoveryConfig{
			MaxConcurrentRecoveries: 3,
			HistoryCapacity:         100,
			CooldownStorePath:       "recovery-cooldowns.json",
		},
		Verification: VerificationConfig{
			MinConfidence:    0.8,
			VerifyCommands:   true,
			VerifyFilesystem: true,
			VerifyNetwork:    true,
			GenerateProofs:   true,
		},
		Coordinator: CoordinatorConfig{
			MaxAgents:          64,
			MaxConcurrentTasks: 256,
			QuorumMinTrust:     0.8,
			NATSURL:            "nats://127.0.0.1:4222",
		},
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Storage: StorageConfig{
			Path:          "~/.local/swarm",
			CheckpointDir: "checkpoints",
			RingCapacity:  10,
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file, overlaying it on the
// runtime defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from swarm.toml in the current
// directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "swarm.toml"))
}

// GetAPIKey returns the API key from the configured environment
// variable, falling back to the provider's conventional env var.
func (c *Config) GetAPIKey() string {
	envVar := c.LLM.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.LLM.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a
// provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return ""
	}
}

// GetProfile returns the LLM config for a capability profile, falling
// back to the default LLM config for unset fields.
func (c *Config) GetProfile(name string) LLMConfig {
	if name == "" {
		return c.LLM
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return c.LLM
	}
	result := LLMConfig{
		Provider:  profile.Provider,
		Model:     profile.Model,
		APIKeyEnv: profile.APIKeyEnv,
		MaxTokens: profile.MaxTokens,
		BaseURL:   profile.BaseURL,
		Thinking:  profile.Thinking,
	}
	if result.Provider == "" {
		result.Provider = c.LLM.Provider
	}
	if result.APIKeyEnv == "" {
		result.APIKeyEnv = c.LLM.APIKeyEnv
	}
	if result.MaxTokens == 0 {
		result.MaxTokens = c.LLM.MaxTokens
	}
	return result
}

// GetProfileAPIKey returns the API key for a specific profile.
func (c *Config) GetProfileAPIKey(profileName string) string {
	llmCfg := c.GetProfile(profileName)
	if llmCfg.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(llmCfg.APIKeyEnv)
}
