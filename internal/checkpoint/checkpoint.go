// Package checkpoint implements the bounded checkpoint ring the coordinator
// snapshots coordinator state into before high-risk steps (spec §3
// "Checkpoint", §4.2 "Checkpoints"). A Checkpoint is an immutable snapshot
// sufficient to reconstruct coordinator state; the ring is append-only under
// a single writer, with readers always seeing a consistent snapshot.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/swarmerr"
	"github.com/latticeforge/swarm/internal/trust"
)

// DefaultCapacity is the default ring size (spec §3: "bounded-size ring
// (default 10 newest)").
const DefaultCapacity = 10

// AgentStateSnapshot captures one agent's coordinator-visible state at
// checkpoint time.
type AgentStateSnapshot struct {
	AgentID     uuid.UUID  `json:"agent_id"`
	Role        string     `json:"role"`
	Available   bool       `json:"available"`
	CurrentTask *uuid.UUID `json:"current_task,omitempty"`
}

// TaskSnapshot captures one in-flight task's state at checkpoint time.
type TaskSnapshot struct {
	TaskID        uuid.UUID  `json:"task_id"`
	IntentID      uuid.UUID  `json:"intent_id"`
	Status        string     `json:"status"`
	AssignedAgent *uuid.UUID `json:"assigned_agent,omitempty"`
}

// PendingAssignment captures a task awaiting agent assignment, ranked by the
// coordinator's candidate-ranking formula at checkpoint time.
type PendingAssignment struct {
	TaskID         uuid.UUID `json:"task_id"`
	CandidateAgent uuid.UUID `json:"candidate_agent"`
	Rank           int       `json:"rank"`
}

// Input is the material the coordinator assembles to create a Checkpoint.
// The coordinator owns all live state; this package only owns the
// immutable, serializable snapshot of it.
type Input struct {
	AgentStates        []AgentStateSnapshot
	ActiveTasks        []TaskSnapshot
	PendingAssignments []PendingAssignment
	TrustSnapshot      map[uuid.UUID]trust.Score
	IntentTreeSnapshot json.RawMessage
}

// Checkpoint is the spec §3 entity: id, created_at, agent_states,
// active_tasks, pending_assignments, trust_snapshot, intent_tree_snapshot.
type Checkpoint struct {
	ID                 uuid.UUID                `json:"id"`
	CreatedAt          time.Time                `json:"created_at"`
	AgentStates        []AgentStateSnapshot      `json:"agent_states"`
	ActiveTasks        []TaskSnapshot            `json:"active_tasks"`
	PendingAssignments []PendingAssignment       `json:"pending_assignments"`
	TrustSnapshot      map[uuid.UUID]trust.Score `json:"trust_snapshot"`
	IntentTreeSnapshot json.RawMessage           `json:"intent_tree_snapshot"`
}

// manifest records ring order on disk so Load can reconstruct eviction
// order deterministically; the teacher's checkpoint store has no
// equivalent concept (its keys are step ids, not a bounded ring), so this
// is new bookkeeping layered on top of the teacher's per-entry JSON file
// persistence pattern.
type manifest struct {
	Order []uuid.UUID `json:"order"`
}

// Ring is the bounded, append-only checkpoint ring (shared state named in
// spec §5: "Global mutable state ... checkpoint ring").
type Ring struct {
	mu       sync.RWMutex
	dir      string
	capacity int
	order    []uuid.UUID // oldest first
	byID     map[uuid.UUID]*Checkpoint
}

// NewRing opens (or creates) a checkpoint ring rooted at dir. capacity <= 0
// uses DefaultCapacity.
func NewRing(dir string, capacity int) (*Ring, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}
	r := &Ring{
		dir:      dir,
		capacity: capacity,
		byID:     make(map[uuid.UUID]*Checkpoint),
	}
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Create builds and durably persists a new Checkpoint, evicting the oldest
// entry if the ring is now over capacity (spec §3 "pruned by age/count").
func (r *Ring) Create(in Input) (*Checkpoint, error) {
	cp := &Checkpoint{
		ID:                 uuid.New(),
		CreatedAt:          time.Now(),
		AgentStates:        in.AgentStates,
		ActiveTasks:        in.ActiveTasks,
		PendingAssignments: in.PendingAssignments,
		TrustSnapshot:      in.TrustSnapshot,
		IntentTreeSnapshot: in.IntentTreeSnapshot,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flush(cp); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, cp.ID.String(), "failed to persist checkpoint", err)
	}

	r.byID[cp.ID] = cp
	r.order = append(r.order, cp.ID)

	var evicted []uuid.UUID
	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byID, oldest)
		evicted = append(evicted, oldest)
	}
	if err := r.writeManifest(); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, cp.ID.String(), "failed to persist checkpoint manifest", err)
	}
	for _, id := range evicted {
		_ = os.Remove(r.path(id)) // best-effort; manifest is the source of truth
	}

	return cp, nil
}

// Get returns the checkpoint with the given id, if still retained.
func (r *Ring) Get(id uuid.UUID) (*Checkpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp, ok := r.byID[id]
	return cp, ok
}

// Newest returns the most recently created checkpoint still in the ring.
func (r *Ring) Newest() (*Checkpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, false
	}
	return r.byID[r.order[len(r.order)-1]], true
}

// NewestMatching returns the newest checkpoint for which predicate returns
// true, scanning from newest to oldest (spec §4.6 "restore newest
// compatible checkpoint").
func (r *Ring) NewestMatching(predicate func(*Checkpoint) bool) (*Checkpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		cp := r.byID[r.order[i]]
		if predicate(cp) {
			return cp, true
		}
	}
	return nil, false
}

// All returns every retained checkpoint, oldest first, for audit/replay.
func (r *Ring) All() []*Checkpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Checkpoint, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Ring) path(id uuid.UUID) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s.json", id))
}

func (r *Ring) manifestPath() string {
	return filepath.Join(r.dir, "manifest.json")
}

func (r *Ring) flush(cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path(cp.ID), data, 0644)
}

// writeManifest persists ring order atomically via write-then-rename, so a
// crash mid-write never leaves a corrupted manifest behind.
func (r *Ring) writeManifest() error {
	data, err := json.MarshalIndent(manifest{Order: r.order}, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.manifestPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.manifestPath())
}

// Load reconstructs ring state from disk, honoring manifest order. Called
// once by NewRing; exported so a coordinator can force a reload after an
// out-of-band Restore.
func (r *Ring) Load() error {
	raw, err := os.ReadFile(r.manifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			r.order = nil
			r.byID = make(map[uuid.UUID]*Checkpoint)
			return nil
		}
		return fmt.Errorf("reading checkpoint manifest: %w", err)
	}

	var man manifest
	if err := json.Unmarshal(raw, &man); err != nil {
		return fmt.Errorf("parsing checkpoint manifest: %w", err)
	}

	order := make([]uuid.UUID, 0, len(man.Order))
	byID := make(map[uuid.UUID]*Checkpoint, len(man.Order))
	for _, id := range man.Order {
		data, err := os.ReadFile(r.path(id))
		if err != nil {
			continue // entry referenced in manifest but missing on disk; skip
		}
		var cp Checkpoint
		if err := json.Unmarshal(data, &cp); err != nil {
			continue
		}
		order = append(order, id)
		byID[id] = &cp
	}

	r.order = order
	r.byID = byID
	return nil
}
