// Package main is the swarm coordination runtime's command-line front
// end: it parses a Swarmfile into an intent tree, drives it through a
// Coordinator, and gives an operator visibility into past runs via
// event-log replay.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface (spec §6.2 "CLI front-end").
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Run a Swarmfile"`
	Validate ValidateCmd `cmd:"" help:"Validate Swarmfile syntax"`
	Inspect  InspectCmd  `cmd:"" help:"Show Swarmfile structure or list indexed runs"`
	Keygen   KeygenCmd   `cmd:"" help:"Generate an agent signing key pair"`
	Verify   VerifyCmd   `cmd:"" help:"Verify a signed agent-protocol envelope"`
	Setup    SetupCmd    `cmd:"" help:"Interactive setup wizard"`
	Replay   ReplayCmd   `cmd:"" help:"Replay a run's event log for forensic analysis"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// RunCmd executes a Swarmfile end to end: load, declare, delegate,
// assign, and run against a freshly constructed Coordinator.
type RunCmd struct {
	File       string `arg:"" optional:"" default:"Swarmfile" help:"Swarmfile path"`
	Config     string `help:"swarm.toml path" default:"swarm.toml"`
	Capability string `help:"Capability required of the assigned agent" default:""`
	AgentCount int    `help:"Number of worker agents to seed for this run" default:"1"`
}

// ValidateCmd parses and declares a Swarmfile without running it.
type ValidateCmd struct {
	File string `arg:"" optional:"" default:"Swarmfile" help:"Swarmfile path"`
}

// InspectCmd shows Swarmfile structure, or lists/shows indexed runs when
// given a session index instead of a Swarmfile.
type InspectCmd struct {
	Path    string `arg:"" optional:"" default:"Swarmfile" help:"Swarmfile path, or a session index with --runs"`
	Runs    bool   `help:"List indexed runs from the session store at Path instead of parsing a Swarmfile"`
	RunID   string `help:"Show one run's details instead of listing (requires --runs)"`
	Verbose int    `short:"v" type:"counter" help:"Verbosity level (-v, -vv)"`
}

// ReplayCmd replays an indexed run, or a bare event-log file, for
// forensic analysis.
type ReplayCmd struct {
	Target  string `arg:"" help:"Run id (with --index) or event-log path"`
	Index   string `help:"Session index (SQLite) to resolve Target as a run id"`
	Verbose int    `short:"v" type:"counter" help:"Verbosity level (-v, -vv)"`
	NoPager bool   `help:"Disable the interactive pager"`
	Follow  bool   `help:"Follow a live event log instead of a finished run"`
}

// KeygenCmd generates an Ed25519 signing key pair for an agent.
type KeygenCmd struct {
	Output string `short:"o" default:"agent-key" help:"Output path prefix (creates .pem and .pub)"`
}

// VerifyCmd verifies a signed agent-protocol envelope against a public
// key.
type VerifyCmd struct {
	Envelope string `arg:"" help:"Path to a JSON-encoded agentproto.Envelope"`
	Key      string `help:"Public key path" required:""`
}

// SetupCmd runs the interactive configuration wizard.
type SetupCmd struct {
	Output string `short:"o" default:"swarm.toml" help:"Path to write the generated config"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{"version": version}
}
