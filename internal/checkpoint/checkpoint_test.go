package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/trust"
)

func sampleInput() Input {
	agent := uuid.New()
	task := uuid.New()
	intent := uuid.New()
	return Input{
		AgentStates: []AgentStateSnapshot{
			{AgentID: agent, Role: "researcher", Available: true, CurrentTask: &task},
		},
		ActiveTasks: []TaskSnapshot{
			{TaskID: task, IntentID: intent, Status: "in_progress", AssignedAgent: &agent},
		},
		PendingAssignments: nil,
		TrustSnapshot: map[uuid.UUID]trust.Score{
			agent: {Value: 0.7, Confidence: 0.4},
		},
		IntentTreeSnapshot: json.RawMessage(`{"intent_id":"` + intent.String() + `"}`),
	}
}

func TestNewRing(t *testing.T) {
	dir := t.TempDir()
	ring, err := NewRing(dir, 0)
	if err != nil {
		t.Fatalf("NewRing failed: %v", err)
	}
	if ring == nil {
		t.Fatal("ring is nil")
	}
	if ring.capacity != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, ring.capacity)
	}
}

func TestCreateAndGet(t *testing.T) {
	dir := t.TempDir()
	ring, _ := NewRing(dir, 0)

	cp, err := ring.Create(sampleInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if cp.ID == uuid.Nil {
		t.Fatal("expected a generated checkpoint id")
	}

	got, ok := ring.Get(cp.ID)
	if !ok {
		t.Fatal("checkpoint not found after Create")
	}
	if len(got.AgentStates) != 1 {
		t.Errorf("expected 1 agent state, got %d", len(got.AgentStates))
	}

	path := filepath.Join(dir, cp.ID.String()+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("checkpoint file not written to disk")
	}
}

func TestNewest(t *testing.T) {
	dir := t.TempDir()
	ring, _ := NewRing(dir, 0)

	first, _ := ring.Create(sampleInput())
	second, _ := ring.Create(sampleInput())

	newest, ok := ring.Newest()
	if !ok {
		t.Fatal("expected a newest checkpoint")
	}
	if newest.ID != second.ID {
		t.Errorf("expected newest to be %s, got %s", second.ID, newest.ID)
	}
	if newest.ID == first.ID {
		t.Error("newest should not equal the first checkpoint once a second exists")
	}
}

func TestRingEvictsOldestOverCapacity(t *testing.T) {
	dir := t.TempDir()
	ring, err := NewRing(dir, 2)
	if err != nil {
		t.Fatalf("NewRing failed: %v", err)
	}

	first, _ := ring.Create(sampleInput())
	ring.Create(sampleInput())
	third, _ := ring.Create(sampleInput())

	if _, ok := ring.Get(first.ID); ok {
		t.Error("expected the oldest checkpoint to be evicted once over capacity")
	}
	if _, ok := ring.Get(third.ID); !ok {
		t.Error("expected the newest checkpoint to remain")
	}
	if len(ring.All()) != 2 {
		t.Errorf("expected 2 retained checkpoints, got %d", len(ring.All()))
	}

	path := filepath.Join(dir, first.ID.String()+".json")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected evicted checkpoint file to be removed from disk")
	}
}

func TestNewestMatching(t *testing.T) {
	dir := t.TempDir()
	ring, _ := NewRing(dir, 0)

	in1 := sampleInput()
	in1.ActiveTasks[0].Status = "in_progress"
	ring.Create(in1)

	in2 := sampleInput()
	in2.ActiveTasks[0].Status = "completed"
	compatible, err := ring.Create(in2)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, ok := ring.NewestMatching(func(cp *Checkpoint) bool {
		return len(cp.ActiveTasks) > 0 && cp.ActiveTasks[0].Status == "completed"
	})
	if !ok {
		t.Fatal("expected a matching checkpoint")
	}
	if found.ID != compatible.ID {
		t.Errorf("expected match %s, got %s", compatible.ID, found.ID)
	}
}

func TestLoadReconstructsOrderAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ring1, _ := NewRing(dir, 0)
	ring1.Create(sampleInput())
	second, _ := ring1.Create(sampleInput())

	ring2, err := NewRing(dir, 0)
	if err != nil {
		t.Fatalf("reopening ring failed: %v", err)
	}
	newest, ok := ring2.Newest()
	if !ok {
		t.Fatal("expected reloaded ring to have a newest checkpoint")
	}
	if newest.ID != second.ID {
		t.Errorf("expected reloaded newest %s, got %s", second.ID, newest.ID)
	}
	if len(ring2.All()) != 2 {
		t.Errorf("expected 2 reloaded checkpoints, got %d", len(ring2.All()))
	}
}
