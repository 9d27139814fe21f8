package agentfile

import (
	"testing"

	"github.com/latticeforge/swarm/internal/intent"
)

const sampleSwarmfile = `
INTENT "gather cluster health and report anomalies"
PRIORITY high

BOUNDS ALLOW PATH /var/swarm/work
BOUNDS DENY PATH /etc
BOUNDS ALLOW COMMAND curl, cat, jq
BOUNDS MAX MEMORY 536870912
BOUNDS MAX CPU 30
BOUNDS MAX WALL 120
BOUNDS MAX DEPTH 2
BOUNDS NETWORK ALLOW metrics.internal

PRECONDITION FILE_EXISTS /var/swarm/work/manifest.json
POSTCONDITION FILE_EXISTS /var/swarm/work/report.json

STEP fetch_snapshot
COMMAND curl -sf https://metrics.internal/snapshot -o /var/swarm/work/snapshot.json
POSTCONDITION FILE_EXISTS /var/swarm/work/snapshot.json
POSTCONDITION EXIT_CODE 0

STEP parse_snapshot
DEPENDS ON fetch_snapshot
FUNCTION parse_metrics
PRECONDITION FILE_EXISTS /var/swarm/work/snapshot.json
`

func TestParseSwarmfile(t *testing.T) {
	f, err := ParseString(sampleSwarmfile)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if f.Goal != "gather cluster health and report anomalies" {
		t.Errorf("unexpected goal: %q", f.Goal)
	}
	if f.Priority != "high" {
		t.Errorf("unexpected priority: %q", f.Priority)
	}
	if len(f.Bounds.AllowedPaths) != 1 || f.Bounds.AllowedPaths[0] != "/var/swarm/work" {
		t.Errorf("unexpected allowed paths: %v", f.Bounds.AllowedPaths)
	}
	if len(f.Bounds.AllowedCommands) != 3 {
		t.Errorf("expected 3 allowed commands, got %v", f.Bounds.AllowedCommands)
	}
	if f.Bounds.MaxMemoryBytes != 536870912 || f.Bounds.MaxCPUSecs != 30 || f.Bounds.MaxWallSecs != 120 {
		t.Errorf("unexpected resource bounds: %+v", f.Bounds)
	}
	if f.Bounds.MaxDelegationDepth != 2 {
		t.Errorf("expected max depth 2, got %d", f.Bounds.MaxDelegationDepth)
	}
	if len(f.Bounds.NetworkAllowlist) != 1 || f.Bounds.NetworkAllowlist[0] != "metrics.internal" {
		t.Errorf("unexpected network allowlist: %v", f.Bounds.NetworkAllowlist)
	}
	if len(f.Preconditions) != 1 {
		t.Fatalf("expected 1 top-level precondition, got %d", len(f.Preconditions))
	}
	if len(f.Postconditions) != 1 {
		t.Fatalf("expected 1 top-level postcondition, got %d", len(f.Postconditions))
	}
	if len(f.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(f.Steps))
	}

	fetch := f.Steps[0]
	if fetch.Name != "fetch_snapshot" {
		t.Errorf("unexpected step name: %q", fetch.Name)
	}
	if fetch.Action.Kind != intent.ActionCommand {
		t.Fatalf("expected command action, got %s", fetch.Action.Kind)
	}
	wantArgv := []string{"curl", "-sf", "https://metrics.internal/snapshot", "-o", "/var/swarm/work/snapshot.json"}
	if len(fetch.Action.Argv) != len(wantArgv) {
		t.Fatalf("unexpected argv: %v", fetch.Action.Argv)
	}
	if len(fetch.Postconditions) != 2 {
		t.Errorf("expected 2 postconditions on fetch_snapshot, got %d", len(fetch.Postconditions))
	}

	parse := f.Steps[1]
	if len(parse.DependsOn) != 1 || parse.DependsOn[0] != "fetch_snapshot" {
		t.Errorf("unexpected depends_on: %v", parse.DependsOn)
	}
	if parse.Action.Kind != intent.ActionFunctionCall || parse.Action.FunctionName != "parse_metrics" {
		t.Errorf("unexpected action: %+v", parse.Action)
	}
}

func TestParseNetworkNone(t *testing.T) {
	src := "INTENT \"x\"\nBOUNDS NETWORK NONE\nBOUNDS MAX WALL 10\nSTEP only\nFUNCTION noop\n"
	f, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if !f.Bounds.NetworkNone {
		t.Error("expected NetworkNone to be true")
	}
}

func TestParseFileOpAction(t *testing.T) {
	src := "INTENT \"x\"\nBOUNDS MAX WALL 10\nSTEP write_report\nFILE_OP WRITE /var/swarm/work/report.json\n"
	f, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	action := f.Steps[0].Action
	if action.Kind != intent.ActionFileOp || action.FileOp != intent.FileOpWrite || action.Path != "/var/swarm/work/report.json" {
		t.Errorf("unexpected file op action: %+v", action)
	}
}

func TestParseSubIntentAction(t *testing.T) {
	src := "INTENT \"x\"\nBOUNDS MAX WALL 10\nSTEP escalate\nSUBINTENT FROM escalate.swarm\n"
	f, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	action := f.Steps[0].Action
	if action.Kind != intent.ActionSubIntent || action.SubIntentPath != "escalate.swarm" {
		t.Errorf("unexpected sub-intent action: %+v", action)
	}
}

func TestParseRejectsMissingIntent(t *testing.T) {
	_, err := ParseString("STEP only\nFUNCTION noop\n")
	if err == nil {
		t.Error("expected an error for a Swarmfile with no INTENT statement")
	}
}

func TestParseRejectsActionOutsideStep(t *testing.T) {
	_, err := ParseString("INTENT \"x\"\nFUNCTION noop\n")
	if err == nil {
		t.Error("expected an error for an action statement outside of any STEP block")
	}
}

func TestParseRejectsUnknownConditionKind(t *testing.T) {
	_, err := ParseString("INTENT \"x\"\nPRECONDITION NONSENSE /x\nSTEP s\nFUNCTION noop\n")
	if err == nil {
		t.Error("expected an error for an unrecognized condition kind")
	}
}
