package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/latticeforge/swarm/internal/config"
	"github.com/latticeforge/swarm/internal/swarmerr"
	"github.com/latticeforge/swarm/internal/trust"
)

func writeSwarmfile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "root.swarm")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing Swarmfile: %v", err)
	}
	return path
}

const sampleSwarmfile = `
INTENT "gather and report"
PRIORITY normal
BOUNDS MAX WALL 30
BOUNDS MAX CPU 10
BOUNDS MAX MEMORY 1048576

STEP fetch
COMMAND cat /etc/hostname

STEP report
DEPENDS ON fetch
FUNCTION summarize
`

func TestValidateCmd_Run(t *testing.T) {
	cmd := &ValidateCmd{File: writeSwarmfile(t, sampleSwarmfile)}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestValidateCmd_Run_MissingFile(t *testing.T) {
	cmd := &ValidateCmd{File: filepath.Join(t.TempDir(), "nope.swarm")}
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected an error for a missing Swarmfile")
	}
	if swarmerr.KindOf(err) != swarmerr.KindInput {
		t.Errorf("expected KindInput, got %v", swarmerr.KindOf(err))
	}
}

func TestValidateCmd_Run_InvalidSyntax(t *testing.T) {
	cmd := &ValidateCmd{File: writeSwarmfile(t, "NOT A VALID SWARMFILE {{{")}
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if swarmerr.KindOf(err) != swarmerr.KindInput {
		t.Errorf("expected KindInput, got %v", swarmerr.KindOf(err))
	}
}

func TestTrustConfigFrom_Defaults(t *testing.T) {
	cfg := trustConfigFrom(config.TrustConfig{})
	def := trust.DefaultConfig()
	if cfg.Alpha != def.Alpha || cfg.Beta != def.Beta || cfg.ConfidenceK != def.ConfidenceK {
		t.Errorf("expected unset config to keep default update-rule coefficients, got %+v", cfg)
	}
}

func TestTrustConfigFrom_Overrides(t *testing.T) {
	cfg := trustConfigFrom(config.TrustConfig{SignificantDelta: 0.25, DecayHalfLifeDays: 7})
	if cfg.SignificantDelta != 0.25 {
		t.Errorf("expected SignificantDelta override 0.25, got %v", cfg.SignificantDelta)
	}
	if cfg.DecayLambda <= 0 {
		t.Errorf("expected a positive decay lambda, got %v", cfg.DecayLambda)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	got := expandHome("~/swarm")
	want := filepath.Join(home, "swarm")
	if got != want {
		t.Errorf("expandHome(~/swarm) = %q, want %q", got, want)
	}
	if expandHome("/abs/path") != "/abs/path" {
		t.Errorf("expandHome should leave absolute paths untouched")
	}
}
