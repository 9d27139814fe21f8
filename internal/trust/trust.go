// Package trust implements the per-agent reputation store (spec §4.1): a
// persistent, time-decayed, atomically-updated mapping from AgentId to
// TrustScore that gates delegation and tracks willingness to delegate future
// work. The update rule and thresholds follow the teacher's agent-mesh trust
// model in shape (decayed scalar, asymmetric reward/penalty) generalized to
// the spec's exact formula.
package trust

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

// Operation names the class of work trust is being checked against (spec
// §4.1 "Thresholds").
type Operation string

const (
	OpReadOnly    Operation = "read_only"
	OpStandard    Operation = "standard"
	OpCritical    Operation = "critical"
	OpDelegation  Operation = "delegation"
)

// Config holds the tunable coefficients of the update rule. Exact α/β are
// an explicit Open Question in the spec; defaults follow the spec text.
type Config struct {
	Alpha            float64 // reward weight, default 0.05
	Beta             float64 // penalty weight, default 0.10
	ConfidenceK      float64 // confidence growth divisor, default 10
	SignificantDelta float64 // |Δ| that schedules an out-of-band backup, default 0.1
	DecayLambda      float64 // decay rate λ for time-based drift toward seed, default 0.01/hour
	BackupInterval   time.Duration
}

// DefaultConfig returns the spec's advisory defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:            0.05,
		Beta:             0.10,
		ConfidenceK:      10,
		SignificantDelta: 0.1,
		DecayLambda:      0.01,
		BackupInterval:   15 * time.Minute,
	}
}

// Thresholds maps each Operation to the minimum trust value it requires.
var Thresholds = map[Operation]float64{
	OpReadOnly:   0.1,
	OpStandard:   0.5,
	OpCritical:   0.8,
	OpDelegation: 0.7,
}

// Score is a per-agent reputation record (spec §3 TrustScore entity).
type Score struct {
	Value        float64   `json:"value"`
	Confidence   float64   `json:"confidence"`
	LastUpdate   time.Time `json:"last_update"`
	SampleCount  int64     `json:"sample_count"`
	SeedValue    float64   `json:"seed_value"`
}

// Store is the persistence contract a Manager commits every update through
// before acknowledging it (spec §4.1 "Persistence"). It must support atomic
// read-modify-write and schema-versioned backup/restore.
type Store interface {
	Load(agent uuid.UUID) (Score, bool, error)
	Save(agent uuid.UUID, score Score) error
	All() (map[uuid.UUID]Score, error)
	Backup(path string) error
	Restore(path string) error
	Close() error
}

// Manager is the Trust Manager (component C1).
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	scores map[uuid.UUID]*Score
	store  Store
	logger *logging.Logger

	onSignificantChange func(agent uuid.UUID, delta float64)
}

// New creates a Trust Manager backed by store. If store already holds
// scores, they are loaded eagerly so Get never blocks on I/O.
func New(store Store, cfg Config) (*Manager, error) {
	m := &Manager{
		cfg:    cfg,
		scores: make(map[uuid.UUID]*Score),
		store:  store,
		logger: logging.New().WithComponent("trust"),
	}
	if store != nil {
		all, err := store.All()
		if err != nil {
			return nil, fmt.Errorf("loading trust store: %w", err)
		}
		for agent, score := range all {
			s := score
			m.scores[agent] = &s
		}
	}
	return m, nil
}

// OnSignificantChange registers a callback invoked whenever |Δ| ≥
// cfg.SignificantDelta, used by the coordinator to schedule an out-of-band
// backup without the Manager knowing about backup scheduling policy.
func (m *Manager) OnSignificantChange(fn func(agent uuid.UUID, delta float64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSignificantChange = fn
}

// Initialize seeds an agent's trust score. A no-op if the agent already
// exists (spec §4.1 "Failure").
func (m *Manager) Initialize(agent uuid.UUID, seed float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scores[agent]; ok {
		return nil
	}
	s := &Score{Value: seed, Confidence: 0, LastUpdate: time.Now(), SampleCount: 0, SeedValue: seed}
	m.scores[agent] = s
	return m.persist(agent, *s)
}

// Get returns the current trust score for an agent, auto-initializing at
// seed 0.5 if unknown (readers never block on I/O; the value returned is
// the in-memory snapshot, consistent with the single-writer/snapshot-reader
// discipline of spec §5).
func (m *Manager) Get(agent uuid.UUID) Score {
	m.mu.RLock()
	s, ok := m.scores[agent]
	m.mu.RUnlock()
	if ok {
		return *s
	}
	return Score{Value: 0.5, Confidence: 0, LastUpdate: time.Now(), SeedValue: 0.5}
}

// Update applies the reward/penalty rule for an outcome (success, verified)
// and durably commits the result before returning (spec §4.1 "Update rule").
// An update against an unknown agent auto-initializes it at seed 0.5.
func (m *Manager) Update(agent uuid.UUID, success, verified bool) (Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scores[agent]
	if !ok {
		s = &Score{Value: 0.5, Confidence: 0, LastUpdate: time.Now(), SeedValue: 0.5}
		m.scores[agent] = s
	}

	before := s.Value
	prev := *s
	reward, penalty := 0.0, 0.0
	if success {
		reward = 1
	} else {
		penalty = 1
	}
	verifiedMul := 1.0
	if verified {
		verifiedMul = 2.0
	}
	delta := m.cfg.Alpha*verifiedMul*reward - m.cfg.Beta*verifiedMul*penalty

	newValue := clamp(s.Value+delta, 0, 1)
	newConfidence := math.Min(1, s.Confidence+1/m.cfg.ConfidenceK)

	s.Value = newValue
	s.Confidence = newConfidence
	s.LastUpdate = time.Now()
	s.SampleCount++

	if err := m.persist(agent, *s); err != nil {
		// Roll back the in-memory change on persistence failure (spec §4.1
		// "Failure": persistence failures surface and the change rolls back).
		*s = prev
		return Score{}, swarmerrStorageUnavailable(agent, err)
	}

	actualDelta := s.Value - before
	m.logger.Info("trust updated", map[string]interface{}{
		"agent":      agent.String(),
		"success":    success,
		"verified":   verified,
		"old_value":  before,
		"new_value":  s.Value,
		"delta":      actualDelta,
	})

	if math.Abs(actualDelta) >= m.cfg.SignificantDelta && m.onSignificantChange != nil {
		m.onSignificantChange(agent, actualDelta)
	}

	return *s, nil
}

// Check reports whether agent's trust meets op's threshold, returning the
// current score alongside the bool so callers can log or explain denial.
func (m *Manager) Check(agent uuid.UUID, op Operation) (bool, Score) {
	score := m.Get(agent)
	min, ok := Thresholds[op]
	if !ok {
		min = Thresholds[OpStandard]
	}
	return score.Value >= min, score
}

// TrustedAgents returns every known agent whose trust value is at least
// threshold, in no particular order.
func (m *Manager) TrustedAgents(threshold float64) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []uuid.UUID
	for agent, s := range m.scores {
		if s.Value >= threshold {
			out = append(out, agent)
		}
	}
	return out
}

// Decay drifts every score toward its seed value by (1 - e^(-λ·age)),
// preventing permanently-locked reputations (spec §4.1 "Time decay").
func (m *Manager) Decay(now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for agent, s := range m.scores {
		age := now.Sub(s.LastUpdate).Hours()
		if age <= 0 {
			continue
		}
		drift := 1 - math.Exp(-m.cfg.DecayLambda*age)
		s.Value = s.Value + (s.SeedValue-s.Value)*drift
		s.LastUpdate = now
		if err := m.persist(agent, *s); err != nil {
			return swarmerrStorageUnavailable(agent, err)
		}
	}
	return nil
}

// Backup writes a self-contained snapshot of every score to path.
func (m *Manager) Backup(path string) error {
	if m.store == nil {
		return fmt.Errorf("trust: no store configured")
	}
	return m.store.Backup(path)
}

// Restore reloads scores from a prior backup, replacing the in-memory set.
func (m *Manager) Restore(path string) error {
	if m.store == nil {
		return fmt.Errorf("trust: no store configured")
	}
	if err := m.store.Restore(path); err != nil {
		return err
	}
	all, err := m.store.All()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = make(map[uuid.UUID]*Score, len(all))
	for agent, score := range all {
		s := score
		m.scores[agent] = &s
	}
	return nil
}

// RunPeriodicBackup backs up on cfg.BackupInterval until ctx is cancelled.
// Intended to run as a background goroutine owned by the coordinator.
func (m *Manager) RunPeriodicBackup(ctx context.Context, path string) {
	if m.cfg.BackupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.cfg.BackupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Backup(path); err != nil {
				m.logger.Warn("periodic trust backup failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (m *Manager) persist(agent uuid.UUID, s Score) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(agent, s)
}

// swarmerrStorageUnavailable wraps a persistence failure as the
// TrustError::StorageUnavailable case from spec §4.1.
func swarmerrStorageUnavailable(agent uuid.UUID, cause error) error {
	return swarmerr.Wrap(swarmerr.KindResource, agent.String(), "trust store unavailable", cause)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
