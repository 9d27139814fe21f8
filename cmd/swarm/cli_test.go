package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func parseCLI(t *testing.T, args ...string) CLI {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars(kongVars()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli
}

func TestRunCmd_Defaults(t *testing.T) {
	cli := parseCLI(t, "run")
	if cli.Run.File != "Swarmfile" {
		t.Errorf("expected default Swarmfile, got %q", cli.Run.File)
	}
	if cli.Run.Config != "swarm.toml" {
		t.Errorf("expected default swarm.toml, got %q", cli.Run.Config)
	}
	if cli.Run.AgentCount != 1 {
		t.Errorf("expected default agent count 1, got %d", cli.Run.AgentCount)
	}
}

func TestRunCmd_CustomFile(t *testing.T) {
	cli := parseCLI(t, "run", "plan.swarm", "--capability", "shell", "--agent-count", "3")
	if cli.Run.File != "plan.swarm" {
		t.Errorf("expected plan.swarm, got %q", cli.Run.File)
	}
	if cli.Run.Capability != "shell" {
		t.Errorf("expected capability shell, got %q", cli.Run.Capability)
	}
	if cli.Run.AgentCount != 3 {
		t.Errorf("expected agent count 3, got %d", cli.Run.AgentCount)
	}
}

func TestValidateCmd_Defaults(t *testing.T) {
	cli := parseCLI(t, "validate")
	if cli.Validate.File != "Swarmfile" {
		t.Errorf("expected default Swarmfile, got %q", cli.Validate.File)
	}
}

func TestKeygenCmd_DefaultOutput(t *testing.T) {
	cli := parseCLI(t, "keygen")
	if cli.Keygen.Output != "agent-key" {
		t.Errorf("expected default output agent-key, got %q", cli.Keygen.Output)
	}
}

func TestVerifyCmd_RequiresKey(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars(kongVars()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"verify", "envelope.json"}); err == nil {
		t.Error("expected an error when --key is omitted")
	}
}

func TestInspectCmd_Defaults(t *testing.T) {
	cli := parseCLI(t, "inspect")
	if cli.Inspect.Path != "Swarmfile" {
		t.Errorf("expected default Swarmfile, got %q", cli.Inspect.Path)
	}
	if cli.Inspect.Runs {
		t.Error("expected Runs to default to false")
	}
}
