package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	// Load .env for any additional env vars (NATS credentials, key
	// passphrase overrides); absence is not an error.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("swarm"),
		kong.Description("Swarm coordination runtime: Swarmfile execution, replay, and key management."),
		kong.UsageOnError(),
		kong.Vars(kongVars()),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCodeFor(err))
}
