package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swarm.toml")
	contents := `
[agent]
id = "agent-1"
role = "worker"
workspace = "/workspace"

[trust]
seed_value = 0.6

[recovery]
max_concurrent_recoveries = 5

[verification]
min_confidence = 0.9

[coordinator]
max_agents = 10
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Agent.ID != "agent-1" || cfg.Agent.Role != "worker" {
		t.Errorf("unexpected agent config: %+v", cfg.Agent)
	}
	if cfg.Trust.SeedValue != 0.6 {
		t.Errorf("expected overridden seed_value 0.6, got %v", cfg.Trust.SeedValue)
	}
	if cfg.Trust.SignificantDelta != 0.15 {
		t.Errorf("expected default significant_delta 0.15 to survive overlay, got %v", cfg.Trust.SignificantDelta)
	}
	if cfg.Recovery.MaxConcurrentRecoveries != 5 {
		t.Errorf("expected overridden max_concurrent_recoveries 5, got %d", cfg.Recovery.MaxConcurrentRecoveries)
	}
	if cfg.Recovery.HistoryCapacity != 100 {
		t.Errorf("expected default history_capacity 100 to survive overlay, got %d", cfg.Recovery.HistoryCapacity)
	}
	if cfg.Verification.MinConfidence != 0.9 {
		t.Errorf("expected overridden min_confidence 0.9, got %v", cfg.Verification.MinConfidence)
	}
	if cfg.Coordinator.MaxAgents != 10 {
		t.Errorf("expected overridden max_agents 10, got %d", cfg.Coordinator.MaxAgents)
	}
	if cfg.Coordinator.QuorumMinTrust != 0.8 {
		t.Errorf("expected default quorum_min_trust 0.8 to survive overlay, got %v", cfg.Coordinator.QuorumMinTrust)
	}
}

func TestLoadFileMissingReturnsError(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error loading a missing config file")
	}
}

func TestGetAPIKeyFallsBackToProviderDefault(t *testing.T) {
	cfg := New()
	cfg.LLM.Provider = "anthropic"
	t.Setenv("ANTHROPIC_API_KEY", "secret-value")

	if got := cfg.GetAPIKey(); got != "secret-value" {
		t.Errorf("expected fallback to ANTHROPIC_API_KEY, got %q", got)
	}
}

func TestGetProfileFillsDefaultsFromBaseLLM(t *testing.T) {
	cfg := New()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.MaxTokens = 2048
	cfg.Profiles = map[string]Profile{
		"triage": {Model: "claude-haiku"},
	}

	profile := cfg.GetProfile("triage")
	if profile.Model != "claude-haiku" {
		t.Errorf("expected profile model claude-haiku, got %s", profile.Model)
	}
	if profile.Provider != "anthropic" {
		t.Errorf("expected provider to fall back to base LLM config, got %s", profile.Provider)
	}
	if profile.MaxTokens != 2048 {
		t.Errorf("expected max_tokens to fall back to base LLM config, got %d", profile.MaxTokens)
	}
}

func TestGetProfileUnknownNameFallsBackToBaseLLM(t *testing.T) {
	cfg := New()
	cfg.LLM.Model = "claude-sonnet"

	profile := cfg.GetProfile("does-not-exist")
	if profile.Model != "claude-sonnet" {
		t.Errorf("expected fallback to base LLM config, got %+v", profile)
	}
}

func TestWatchFileReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swarm.toml")
	if err := os.WriteFile(path, []byte("[agent]\nid = \"initial\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w, err := WatchFile(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("WatchFile failed: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(path, []byte("[agent]\nid = \"updated\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Agent.ID != "updated" {
			t.Errorf("expected reloaded config to have id 'updated', got %q", cfg.Agent.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload notification")
	}
}
