package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/agentfile"
	"github.com/latticeforge/swarm/internal/session"
	"github.com/latticeforge/swarm/internal/swarmerr"
)

// Run implements kong.Run for InspectCmd.
func (c *InspectCmd) Run() error {
	if c.Runs {
		return c.inspectRuns()
	}
	return c.inspectSwarmfile()
}

func (c *InspectCmd) inspectRuns() error {
	store, err := session.Open(c.Path)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, c.Path, "opening session index", err)
	}
	defer store.Close()

	if c.RunID != "" {
		id, err := uuid.Parse(c.RunID)
		if err != nil {
			return swarmerr.Wrap(swarmerr.KindInput, c.RunID, "parsing run id", err)
		}
		run, err := store.Get(id)
		if err != nil {
			return swarmerr.Wrap(swarmerr.KindInput, c.RunID, "resolving run", err)
		}
		fmt.Printf("%s  %-10s  started %s  %s\n", run.ID, run.Status, run.StartedAt.Format("2006-01-02T15:04:05Z07:00"), run.EventLogPath)
		if run.Summary != "" {
			fmt.Printf("  %s\n", run.Summary)
		}
		return nil
	}

	runs, err := store.List()
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, c.Path, "listing runs", err)
	}
	for _, run := range runs {
		fmt.Printf("%s  %-10s  started %s\n", run.ID, run.Status, run.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func (c *InspectCmd) inspectSwarmfile() error {
	if _, err := os.Stat(c.Path); os.IsNotExist(err) {
		return swarmerr.New(swarmerr.KindInput, c.Path, "Swarmfile not found")
	}
	loaded, err := agentfile.LoadFile(c.Path)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, c.Path, "parsing Swarmfile", err)
	}

	root := loaded.Root
	fmt.Printf("Intent: %s\n", root.Goal)
	fmt.Printf("Priority: %s\n", root.Priority)
	fmt.Printf("Bounds: max_wall=%ds max_cpu=%ds max_memory=%d network_none=%v\n",
		root.Bounds.MaxWallSecs, root.Bounds.MaxCPUSecs, root.Bounds.MaxMemoryBytes, root.Bounds.NetworkNone)

	if len(root.Preconditions) > 0 {
		fmt.Println("Preconditions:")
		for _, cond := range root.Preconditions {
			fmt.Printf("  - %s\n", cond.Kind)
		}
	}
	if len(root.Postconditions) > 0 {
		fmt.Println("Postconditions:")
		for _, cond := range root.Postconditions {
			fmt.Printf("  - %s\n", cond.Kind)
		}
	}

	fmt.Println("Steps:")
	for _, step := range root.Steps {
		deps := ""
		if len(step.DependsOn) > 0 {
			names := make([]string, len(step.DependsOn))
			for i, id := range step.DependsOn {
				names[i] = id.String()[:8]
			}
			deps = " depends_on=" + strings.Join(names, ",")
		}
		fmt.Printf("  - %s [%s]%s\n", step.Name, step.Action.Kind, deps)
	}

	if subs := len(loaded.Registry) - 1; subs > 0 {
		fmt.Printf("Sub-intents: %d\n", subs)
	}
	return nil
}
