// Package recovery implements the Recovery Manager (spec §4.6): given a
// failed step, it selects the cheapest applicable strategy, applies it,
// and records the attempt in a bounded history. The Execution Engine
// never retries on its own — every retry in the system passes through
// here.
package recovery

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

const (
	DefaultMaxConcurrentRecoveries = 3
	DefaultHistoryCapacity         = 100
)

// Outcome is the spec §3 RecoveryAttempt.outcome enum.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// Failure describes the failed step a strategy is asked to recover from.
type Failure struct {
	ErrorKind  swarmerr.Kind
	ContextRef string
	Priority   int // carried with the failure; Select does not read it
}

// Result is the spec §4.6 RecoveryResult.
type Result struct {
	Success          bool
	ActionTaken      string
	Confidence       float64
	ContinueRecovery bool
}

// Strategy is the spec §4.6 strategy trait.
type Strategy interface {
	ID() string
	CostEstimate() float64
	CanHandle(f Failure) bool
	RequiresExternalResources() bool
	Recover(ctx context.Context, f Failure) (Result, error)
}

// RecoveryAttempt is the spec §3 entity.
type RecoveryAttempt struct {
	ID         uuid.UUID
	ErrorKind  swarmerr.Kind
	StrategyID string
	ContextRef string
	StartedAt  time.Time
	Outcome    Outcome
	Cost       float64
	Confidence float64
}

// CooldownStore persists per-strategy cooldown deadlines so they survive
// a restart (spec §4.6 "cooldowns ... survive restart").
type CooldownStore interface {
	Load() (map[string]time.Time, error)
	Save(map[string]time.Time) error
}

// FileCooldownStore is a JSON-file-backed CooldownStore, following the
// write-then-rename atomicity already used by internal/checkpoint.
type FileCooldownStore struct {
	path string
}

func NewFileCooldownStore(path string) *FileCooldownStore {
	return &FileCooldownStore{path: path}
}

func (s *FileCooldownStore) Load() (map[string]time.Time, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, s.path, "reading cooldown store", err)
	}
	out := map[string]time.Time{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindIntegrity, s.path, "decoding cooldown store", err)
	}
	return out, nil
}

func (s *FileCooldownStore) Save(cooldowns map[string]time.Time) error {
	data, err := json.MarshalIndent(cooldowns, "", "  ")
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindIntegrity, s.path, "encoding cooldown store", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, s.path, "creating cooldown store directory", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, s.path, "writing cooldown store", err)
	}
	return os.Rename(tmp, s.path)
}

// Manager selects and applies recovery strategies (spec §4.6).
type Manager struct {
	mu         sync.Mutex
	strategies []Strategy
	cooldowns  map[string]time.Duration
	deadlines  map[string]time.Time
	store      CooldownStore
	history    []RecoveryAttempt
	historyCap int
	sem        chan struct{}
}

// Config configures a Manager.
type Config struct {
	MaxConcurrentRecoveries int
	HistoryCapacity         int
	Cooldowns               map[string]time.Duration // per-strategy-ID cooldown
	Store                   CooldownStore
}

func New(strategies []Strategy, cfg Config) (*Manager, error) {
	maxConcurrent := cfg.MaxConcurrentRecoveries
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRecoveries
	}
	historyCap := cfg.HistoryCapacity
	if historyCap <= 0 {
		historyCap = DefaultHistoryCapacity
	}

	m := &Manager{
		strategies: strategies,
		cooldowns:  cfg.Cooldowns,
		deadlines:  map[string]time.Time{},
		store:      cfg.Store,
		historyCap: historyCap,
		sem:        make(chan struct{}, maxConcurrent),
	}
	if m.cooldowns == nil {
		m.cooldowns = map[string]time.Duration{}
	}
	if m.store != nil {
		deadlines, err := m.store.Load()
		if err != nil {
			return nil, err
		}
		m.deadlines = deadlines
	}
	return m, nil
}

// Select picks the lowest-cost applicable strategy. Strategies of equal
// cost are ordered by ID alone; Failure.Priority plays no part in the
// choice.
func (m *Manager) Select(f Failure) (Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var candidates []Strategy
	for _, s := range m.strategies {
		if !s.CanHandle(f) {
			continue
		}
		if deadline, onCooldown := m.deadlines[s.ID()]; onCooldown && now.Before(deadline) {
			continue
		}
		candidates = append(candidates, s)
	}
	if len(candidates) == 0 {
		return nil, swarmerr.New(swarmerr.KindResource, f.ContextRef, "no applicable recovery strategy available")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CostEstimate() != candidates[j].CostEstimate() {
			return candidates[i].CostEstimate() < candidates[j].CostEstimate()
		}
		return candidates[i].ID() < candidates[j].ID()
	})
	return candidates[0], nil
}

// Recover selects a strategy, applies it under the concurrency cap, and
// records the attempt regardless of outcome.
func (m *Manager) Recover(ctx context.Context, f Failure) (Result, error) {
	strategy, err := m.Select(f)
	if err != nil {
		return Result{}, err
	}

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	started := time.Now()
	result, recoverErr := strategy.Recover(ctx, f)

	outcome := OutcomeFailed
	switch {
	case recoverErr == nil && result.Success:
		outcome = OutcomeSuccess
	case recoverErr == nil && !result.Success && result.ContinueRecovery:
		outcome = OutcomePartial
	}

	m.recordAttempt(RecoveryAttempt{
		ID:         uuid.New(),
		ErrorKind:  f.ErrorKind,
		StrategyID: strategy.ID(),
		ContextRef: f.ContextRef,
		StartedAt:  started,
		Outcome:    outcome,
		Cost:       strategy.CostEstimate(),
		Confidence: result.Confidence,
	})

	if outcome != OutcomeSuccess {
		m.applyCooldown(strategy.ID())
	}
	return result, recoverErr
}

func (m *Manager) applyCooldown(strategyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cooldown, ok := m.cooldowns[strategyID]
	if !ok || cooldown <= 0 {
		return
	}
	m.deadlines[strategyID] = time.Now().Add(cooldown)
	if m.store != nil {
		m.store.Save(m.deadlines)
	}
}

func (m *Manager) recordAttempt(a RecoveryAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, a)
	if len(m.history) > m.historyCap {
		m.history = m.history[len(m.history)-m.historyCap:]
	}
}

// History returns a copy of the bounded attempt history, newest last.
func (m *Manager) History() []RecoveryAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RecoveryAttempt, len(m.history))
	copy(out, m.history)
	return out
}
