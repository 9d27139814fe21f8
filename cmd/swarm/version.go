package main

import "fmt"

// Run implements kong.Run for VersionCmd.
func (c *VersionCmd) Run() error {
	fmt.Printf("swarm version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}
