package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/agentfile"
	"github.com/latticeforge/swarm/internal/checkpoint"
	"github.com/latticeforge/swarm/internal/config"
	"github.com/latticeforge/swarm/internal/coordinator"
	"github.com/latticeforge/swarm/internal/events"
	"github.com/latticeforge/swarm/internal/recovery"
	"github.com/latticeforge/swarm/internal/session"
	"github.com/latticeforge/swarm/internal/swarmerr"
	"github.com/latticeforge/swarm/internal/trust"
	"github.com/latticeforge/swarm/internal/verify"
)

// Run implements kong.Run for ValidateCmd: parse and declare, but never
// delegate or execute.
func (c *ValidateCmd) Run() error {
	if _, err := os.Stat(c.File); os.IsNotExist(err) {
		return swarmerr.New(swarmerr.KindInput, c.File, "Swarmfile not found")
	}
	loaded, err := agentfile.LoadFile(c.File)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, c.File, "parsing Swarmfile", err)
	}
	fmt.Printf("valid: %q (%d steps, %d sub-intents)\n", loaded.Root.Goal, len(loaded.Root.Steps), len(loaded.Registry)-1)
	return nil
}

// Run implements kong.Run for RunCmd.
func (c *RunCmd) Run() error {
	if _, err := os.Stat(c.File); os.IsNotExist(err) {
		return swarmerr.New(swarmerr.KindInput, c.File, "Swarmfile not found")
	}

	cfg, err := loadOrDefaultConfig(c.Config)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	loaded, err := agentfile.LoadFile(c.File)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, c.File, "parsing Swarmfile", err)
	}

	for i := 0; i < c.AgentCount; i++ {
		caps := []string{}
		if c.Capability != "" {
			caps = append(caps, c.Capability)
		}
		if err := rt.coord.AddAgent(coordinator.Agent{
			ID:           uuid.New(),
			Role:         coordinator.RoleWorker,
			Capabilities: caps,
		}); err != nil {
			return err
		}
	}

	run, err := rt.sessions.Start(rt.coordinatorID, rt.eventLogPath, rt.events.IncarnationID())
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, "", "recording run start", err)
	}

	task, err := rt.coord.DelegateIntent(loaded.Root, loaded.Registry, c.Capability)
	if err != nil {
		_ = rt.sessions.Finish(run.ID, session.StatusFailed, err.Error())
		return err
	}

	ctx := context.Background()
	if err := assignAndRun(ctx, rt.coord, task.ID); err != nil {
		_ = rt.sessions.Finish(run.ID, session.StatusFailed, err.Error())
		return err
	}

	result, err := rt.coord.GetTaskResult(task.ID)
	if err != nil {
		_ = rt.sessions.Finish(run.ID, session.StatusFailed, err.Error())
		return err
	}

	status := session.StatusComplete
	if result.Status == coordinator.TaskVerifiedFailure {
		status = session.StatusFailed
	}
	if err := rt.sessions.Finish(run.ID, status, result.Result); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, "", "recording run finish", err)
	}

	fmt.Printf("run %s: %s (%s)\n", run.ID, result.Status, result.Result)
	if result.Status == coordinator.TaskVerifiedFailure {
		return swarmerr.New(swarmerr.KindIntegrity, task.ID.String(), result.Result)
	}
	return nil
}

// assignAndRun polls AssignNext until the delegated task is picked up by
// a qualifying agent (or the attempt budget is exhausted), then drives
// it through Accept/Start/RunTask.
func assignAndRun(ctx context.Context, coord *coordinator.Coordinator, taskID uuid.UUID) error {
	const maxAttempts = 10
	var assigned *coordinator.Task
	for attempt := 0; attempt < maxAttempts; attempt++ {
		t, _, err := coord.AssignNext()
		if err != nil {
			return err
		}
		if t != nil && t.ID == taskID {
			assigned = t
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if assigned == nil {
		return swarmerr.New(swarmerr.KindPolicy, taskID.String(), "no qualifying agent available to assign this task")
	}

	if err := coord.Accept(taskID); err != nil {
		return err
	}
	if err := coord.Start(taskID); err != nil {
		return err
	}
	return coord.RunTask(ctx, taskID)
}

// runtime bundles the coordinator and its backing stores so cmd/swarm
// commands can build one from config and tear it down uniformly.
type runtime struct {
	coord         *coordinator.Coordinator
	coordinatorID uuid.UUID
	sessions      *session.Store
	events        *events.Log
	eventLogPath  string
	trustStore    *trust.BoltStore
}

func (rt *runtime) Close() {
	if rt.events != nil {
		_ = rt.events.Close()
	}
	if rt.sessions != nil {
		_ = rt.sessions.Close()
	}
	if rt.trustStore != nil {
		_ = rt.trustStore.Close()
	}
}

func loadOrDefaultConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindInput, path, "loading config", err)
	}
	return cfg, nil
}

// newRuntime wires every domain component (trust, checkpoint ring,
// event log, verifier, recovery manager) into a single Coordinator,
// following swarm.toml's [trust]/[recovery]/[verification]/[storage]
// sections.
func newRuntime(cfg *config.Config) (*runtime, error) {
	storagePath := expandHome(cfg.Storage.Path)
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, storagePath, "creating storage directory", err)
	}

	trustStore, err := trust.OpenBoltStore(filepath.Join(storagePath, cfg.Trust.StorePath))
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, "", "opening trust store", err)
	}
	trustMgr, err := trust.New(trustStore, trustConfigFrom(cfg.Trust))
	if err != nil {
		trustStore.Close()
		return nil, err
	}

	checkpointDir := filepath.Join(storagePath, cfg.Storage.CheckpointDir)
	ring, err := checkpoint.NewRing(checkpointDir, cfg.Storage.RingCapacity)
	if err != nil {
		trustStore.Close()
		return nil, err
	}

	eventLogPath := filepath.Join(storagePath, cfg.Storage.EventLogPath)
	if eventLogPath == storagePath {
		eventLogPath = filepath.Join(storagePath, "events.jsonl")
	}
	eventLog, err := events.Open(eventLogPath)
	if err != nil {
		trustStore.Close()
		return nil, err
	}

	recoveryStore := recovery.NewFileCooldownStore(filepath.Join(storagePath, cfg.Recovery.CooldownStorePath))
	strategies := []recovery.Strategy{
		recovery.ExponentialBackoffStrategy{MaxElapsed: 30 * time.Second},
		recovery.SelfHealingStrategy{},
		recovery.CheckpointRecoveryStrategy{Ring: ring},
		recovery.GracefulDegradationStrategy{},
	}
	recoveryMgr, err := recovery.New(strategies, recovery.Config{
		MaxConcurrentRecoveries: cfg.Recovery.MaxConcurrentRecoveries,
		HistoryCapacity:         cfg.Recovery.HistoryCapacity,
		Store:                   recoveryStore,
	})
	if err != nil {
		eventLog.Close()
		trustStore.Close()
		return nil, err
	}

	verifier := verify.New(uuid.New(), verify.Policy{
		VerifyCommands:   cfg.Verification.VerifyCommands,
		VerifyFilesystem: cfg.Verification.VerifyFilesystem,
		VerifyNetwork:    cfg.Verification.VerifyNetwork,
		GenerateProofs:   cfg.Verification.GenerateProofs,
		MinConfidence:    cfg.Verification.MinConfidence,
	}, nil, nil)

	coordCfg := coordinator.Config{
		MaxAgents:          cfg.Coordinator.MaxAgents,
		MaxConcurrentTasks: cfg.Coordinator.MaxConcurrentTasks,
		QuorumMinTrust:     cfg.Coordinator.QuorumMinTrust,
	}
	coord := coordinator.New(coordCfg, trustMgr, ring, eventLog, verifier, recoveryMgr, builtinFunctions{})

	sessionStore, err := session.Open(filepath.Join(storagePath, "sessions.db"))
	if err != nil {
		eventLog.Close()
		trustStore.Close()
		return nil, swarmerr.Wrap(swarmerr.KindResource, "", "opening session index", err)
	}

	return &runtime{
		coord:         coord,
		coordinatorID: uuid.New(),
		sessions:      sessionStore,
		events:        eventLog,
		eventLogPath:  eventLogPath,
		trustStore:    trustStore,
	}, nil
}

// trustConfigFrom maps swarm.toml's operator-facing trust knobs onto
// the Trust Manager's update-rule coefficients, keeping
// trust.DefaultConfig's advisory Alpha/Beta/ConfidenceK (spec's Open
// Question on exact reward/penalty weights is resolved there, not
// here) while applying the config's decay and significant-delta
// overrides. The config's seed value is not applied here.
func trustConfigFrom(tc config.TrustConfig) trust.Config {
	cfg := trust.DefaultConfig()
	if tc.SignificantDelta > 0 {
		cfg.SignificantDelta = tc.SignificantDelta
	}
	if tc.DecayHalfLifeDays > 0 {
		cfg.DecayLambda = math.Ln2 / (tc.DecayHalfLifeDays * 24)
	}
	return cfg
}

func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
