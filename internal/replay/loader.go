package replay

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/events"
	"github.com/latticeforge/swarm/internal/session"
)

// Timeline is one run's indexed metadata paired with its full event
// history, ready for rendering.
type Timeline struct {
	Run    *session.Run
	Events []events.Event
}

// LoadRun resolves a run by id from the session index and reads its
// backing event log in full.
func LoadRun(store *session.Store, runID uuid.UUID) (*Timeline, error) {
	run, err := store.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("resolving run %s: %w", runID, err)
	}
	evs, err := events.ReadAll(run.EventLogPath)
	if err != nil {
		return nil, fmt.Errorf("reading event log for run %s: %w", runID, err)
	}
	return &Timeline{Run: run, Events: evs}, nil
}

// LoadFile reads an event log directly off disk, with no run metadata.
// Used for `swarm replay <path>` against a log that was never indexed
// (e.g. copied off a remote agent for offline analysis).
func LoadFile(path string) (*Timeline, error) {
	evs, err := events.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("reading event log %s: %w", path, err)
	}
	return &Timeline{Events: evs}, nil
}
