package agentfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/latticeforge/swarm/internal/intent"
)

func writeSwarmfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadFileCompilesToIntent(t *testing.T) {
	dir := t.TempDir()
	path := writeSwarmfile(t, dir, "root.swarm", `
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
`)

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Root.Goal != "gather and report" {
		t.Errorf("unexpected goal: %q", loaded.Root.Goal)
	}
	if loaded.Root.Status != intent.StatusDeclared {
		t.Errorf("expected declared status after loading, got %s", loaded.Root.Status)
	}
	if len(loaded.Root.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(loaded.Root.Steps))
	}
	if len(loaded.Root.Steps[1].DependsOn) != 1 || loaded.Root.Steps[1].DependsOn[0] != loaded.Root.Steps[0].ID {
		t.Errorf("expected report to depend on fetch's resolved id")
	}
	if _, ok := loaded.Registry[loaded.Root.ID]; !ok {
		t.Error("expected root intent to be present in the registry")
	}
}

func TestLoadFileResolvesSubIntent(t *testing.T) {
	dir := t.TempDir()
	writeSwarmfile(t, dir, "child.swarm", `
INTENT "escalate to on-call"
BOUNDS MAX WALL 5

STEP notify
FUNCTION page_oncall
`)
	path := writeSwarmfile(t, dir, "root.swarm", `
INTENT "gather and escalate"
BOUNDS MAX WALL 30

STEP escalate
SUBINTENT FROM child.swarm
`)

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	action := loaded.Root.Steps[0].Action
	if action.Kind != intent.ActionSubIntent {
		t.Fatalf("expected sub-intent action, got %s", action.Kind)
	}
	child, ok := loaded.Registry[action.SubIntentID]
	if !ok {
		t.Fatalf("expected sub-intent %s to be registered", action.SubIntentID)
	}
	if child.Goal != "escalate to on-call" {
		t.Errorf("unexpected child goal: %q", child.Goal)
	}
	if child.Depth != 1 {
		t.Errorf("expected child depth 1, got %d", child.Depth)
	}
}

func TestLoadFileRejectsSubIntentCycle(t *testing.T) {
	dir := t.TempDir()
	writeSwarmfile(t, dir, "a.swarm", `
INTENT "a"
BOUNDS MAX WALL 5
STEP go
SUBINTENT FROM b.swarm
`)
	path := writeSwarmfile(t, dir, "b.swarm", `
INTENT "b"
BOUNDS MAX WALL 5
STEP go
SUBINTENT FROM a.swarm
`)

	if _, err := LoadFile(path); err == nil {
		t.Error("expected a cycle error for mutually recursive SUBINTENT FROM references")
	}
}

func TestLoadFileRejectsUnknownDependency(t *testing.T) {
	dir := t.TempDir()
	path := writeSwarmfile(t, dir, "root.swarm", `
INTENT "x"
BOUNDS MAX WALL 5
STEP only
DEPENDS ON ghost
FUNCTION noop
`)
	if _, err := LoadFile(path); err == nil {
		t.Error("expected an error for a step depending on an unknown step name")
	}
}
