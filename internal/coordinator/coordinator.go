// Package coordinator implements the Coordinator (spec §4.7): agent
// membership, task assignment by trust-weighted candidate ranking,
// admission control, and k-of-n consensus for critical operations. It is
// the one component that touches every other: trust, intent, promise,
// verify, execengine, checkpoint, recovery, and events. DelegateIntent
// admits a declared intent tree; RunTask drives it through a real
// Promise, the Execution Engine, postcondition verification, and the
// Recovery Manager on failure, exactly mirroring the per-agent lifecycle
// a remote worker would run, but in-process for agents reachable without
// the wire protocol.
package coordinator

import (
	"context"
	"math"
	"os"
	"regexp"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/latticeforge/swarm/internal/agentproto"
	"github.com/latticeforge/swarm/internal/checkpoint"
	"github.com/latticeforge/swarm/internal/events"
	"github.com/latticeforge/swarm/internal/execengine"
	"github.com/latticeforge/swarm/internal/intent"
	"github.com/latticeforge/swarm/internal/promise"
	"github.com/latticeforge/swarm/internal/recovery"
	"github.com/latticeforge/swarm/internal/swarmerr"
	"github.com/latticeforge/swarm/internal/trust"
	"github.com/latticeforge/swarm/internal/verify"
)

// Role is the spec §3 Agent.role enum.
type Role string

const (
	RoleWorker      Role = "worker"
	RoleVerifier    Role = "verifier"
	RoleCoordinator Role = "coordinator"
	RoleObserver    Role = "observer"
)

// Agent is the spec §3 entity as the Coordinator tracks it.
type Agent struct {
	ID           uuid.UUID
	Role         Role
	Capabilities []string
	Available    bool
	load         int // number of tasks currently assigned
}

// TaskStatus is the spec §4.7 task lifecycle.
type TaskStatus string

const (
	TaskIntake          TaskStatus = "intake"
	TaskAssigned        TaskStatus = "assigned"
	TaskAccepted        TaskStatus = "accepted"
	TaskRunning         TaskStatus = "running"
	TaskVerifiedSuccess TaskStatus = "verified_success"
	TaskVerifiedFailure TaskStatus = "verified_failure"
)

// Task tracks one unit of delegated work through the lifecycle above.
type Task struct {
	ID                 uuid.UUID
	IntentID           uuid.UUID
	RequiredCapability string
	Status             TaskStatus
	AssignedAgent      *uuid.UUID
	Result             string
}

// Config bounds admission control (spec §4.7 "max_agents,
// max_concurrent_tasks ... bounded FIFO").
type Config struct {
	MaxAgents          int
	MaxConcurrentTasks int
	QuorumMinTrust     float64 // default 0.8, spec §5.2 "Consensus"
}

func DefaultConfig() Config {
	return Config{MaxAgents: 64, MaxConcurrentTasks: 256, QuorumMinTrust: 0.8}
}

// Coordinator is the spec §4.7 entity.
type Coordinator struct {
	id uuid.UUID // this coordinator's own agent id, used as promisee

	mu          sync.Mutex
	cfg         Config
	agents      map[uuid.UUID]*Agent
	tasks       map[uuid.UUID]*Task
	queue       []uuid.UUID
	running     int
	registry    map[uuid.UUID]*intent.Intent // every declared intent this coordinator can execute or delegate into
	lastObserve string                       // most recent StepReport observation, consulted by stdout_match conditions
	tags        map[string]bool              // custom tags reported satisfied via StepReport

	trustMgr    *trust.Manager
	checkpoints *checkpoint.Ring
	eventLog    *events.Log
	verifier    *verify.Verifier
	recoveryMgr *recovery.Manager
	functions   execengine.FunctionRegistry
	logger      *logging.Logger
}

// New builds a Coordinator. verifier, recoveryMgr, and functions may all be
// nil; the Coordinator degrades gracefully (conditions needing the
// verifier are Unobservable, failures needing recovery simply fail, and
// function_call steps error with "no function registry configured").
func New(cfg Config, trustMgr *trust.Manager, checkpoints *checkpoint.Ring, eventLog *events.Log, verifier *verify.Verifier, recoveryMgr *recovery.Manager, functions execengine.FunctionRegistry) *Coordinator {
	return &Coordinator{
		id:          uuid.New(),
		cfg:         cfg,
		agents:      map[uuid.UUID]*Agent{},
		tasks:       map[uuid.UUID]*Task{},
		registry:    map[uuid.UUID]*intent.Intent{},
		tags:        map[string]bool{},
		trustMgr:    trustMgr,
		checkpoints: checkpoints,
		eventLog:    eventLog,
		verifier:    verifier,
		recoveryMgr: recoveryMgr,
		functions:   functions,
		logger:      logging.New().WithComponent("coordinator"),
	}
}

// AddAgent registers a new agent, seeding its trust score if unknown.
func (c *Coordinator) AddAgent(agent Agent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.agents) >= c.cfg.MaxAgents {
		return swarmerr.ErrSaturated
	}
	agent.Available = true
	c.agents[agent.ID] = &agent
	if c.trustMgr != nil {
		if err := c.trustMgr.Initialize(agent.ID, 0.5); err != nil {
			return err
		}
	}
	return nil
}

// DelegateIntent admits root, and every sub-intent already compiled into
// registry (e.g. by agentfile.LoadFile), into the bounded FIFO queue,
// rejecting with ErrSaturated once admission limits are hit (spec §4.7
// "Admission control"). root must already be Declared; RunTask owns
// Activate and execution.
func (c *Coordinator) DelegateIntent(root *intent.Intent, registry map[uuid.UUID]*intent.Intent, requiredCapability string) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running >= c.cfg.MaxConcurrentTasks {
		return nil, swarmerr.ErrSaturated
	}
	if root.Status != intent.StatusDeclared {
		return nil, swarmerr.New(swarmerr.KindInput, root.ID.String(), "delegated intent must already be declared")
	}

	for id, in := range registry {
		c.registry[id] = in
	}
	c.registry[root.ID] = root

	task := &Task{
		ID:                 uuid.New(),
		IntentID:           root.ID,
		RequiredCapability: requiredCapability,
		Status:             TaskIntake,
	}
	c.tasks[task.ID] = task
	c.queue = append(c.queue, task.ID)
	return task, nil
}

// AssignNext pops the head of the FIFO and assigns it to the best
// ranked candidate, or returns (nil, nil, nil) if the queue is empty or
// no agent qualifies yet.
func (c *Coordinator) AssignNext() (*Task, *Agent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return nil, nil, nil
	}
	taskID := c.queue[0]
	task := c.tasks[taskID]

	candidate := c.bestCandidateLocked(task.RequiredCapability)
	if candidate == nil {
		return nil, nil, nil
	}

	c.queue = c.queue[1:]
	task.Status = TaskAssigned
	task.AssignedAgent = &candidate.ID
	candidate.load++
	c.running++
	return task, candidate, nil
}

// bestCandidateLocked implements spec §4.7's ranking: score =
// trust.value * capability_match - load_penalty, ties broken by
// AgentId for determinism. Must be called with c.mu held.
func (c *Coordinator) bestCandidateLocked(requiredCapability string) *Agent {
	var candidates []*Agent
	for _, a := range c.agents {
		if !a.Available || a.Role != RoleWorker {
			continue
		}
		if requiredCapability != "" && !hasCapability(a, requiredCapability) {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si := c.candidateScore(candidates[i])
		sj := c.candidateScore(candidates[j])
		if si != sj {
			return si > sj
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})
	return candidates[0]
}

func (c *Coordinator) candidateScore(a *Agent) float64 {
	trustValue := 0.5
	if c.trustMgr != nil {
		trustValue = c.trustMgr.Get(a.ID).Value
	}
	capabilityMatch := 1.0
	loadPenalty := float64(a.load) * 0.05
	return trustValue*capabilityMatch - loadPenalty
}

func hasCapability(a *Agent, capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Accept transitions a task assigned -> accepted once its agent agrees.
func (c *Coordinator) Accept(taskID uuid.UUID) error {
	return c.transition(taskID, TaskAssigned, TaskAccepted)
}

// Start transitions a task accepted -> running.
func (c *Coordinator) Start(taskID uuid.UUID) error {
	return c.transition(taskID, TaskAccepted, TaskRunning)
}

// Complete transitions a running task to its verified terminal state and
// releases its agent's load.
func (c *Coordinator) Complete(taskID uuid.UUID, success bool, result string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "unknown task")
	}
	if task.Status != TaskRunning {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "complete requires status running")
	}
	if success {
		task.Status = TaskVerifiedSuccess
	} else {
		task.Status = TaskVerifiedFailure
	}
	task.Result = result
	c.running--
	if task.AssignedAgent != nil {
		if agent, ok := c.agents[*task.AssignedAgent]; ok && agent.load > 0 {
			agent.load--
		}
	}
	return nil
}

func (c *Coordinator) transition(taskID uuid.UUID, from, to TaskStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "unknown task")
	}
	if task.Status != from {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "invalid task transition")
	}
	task.Status = to
	return nil
}

// GetTaskResult returns the current state of a task.
func (c *Coordinator) GetTaskResult(taskID uuid.UUID) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return nil, swarmerr.New(swarmerr.KindInput, taskID.String(), "unknown task")
	}
	clone := *task
	return &clone, nil
}

// RunTask drives an accepted, running task end to end (spec §4.7
// "handle_message" is the inbound half of this lifecycle; RunTask is the
// in-process equivalent for an agent executing locally rather than over
// agentproto): it declares a Promise on behalf of the assigned agent,
// activates its intent, executes every step through the Execution Engine
// (wired as its own execengine.SubIntentRunner for SUBINTENT FROM steps),
// verifies postconditions, and applies the Recovery Manager once on a
// recoverable failure before giving up. Every terminal Promise transition
// updates trust.
func (c *Coordinator) RunTask(ctx context.Context, taskID uuid.UUID) error {
	c.mu.Lock()
	task, ok := c.tasks[taskID]
	if !ok {
		c.mu.Unlock()
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "unknown task")
	}
	if task.Status != TaskRunning {
		c.mu.Unlock()
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "run requires status running")
	}
	root, ok := c.registry[task.IntentID]
	agentID := task.AssignedAgent
	c.mu.Unlock()
	if !ok {
		return swarmerr.New(swarmerr.KindInput, task.IntentID.String(), "unknown intent")
	}
	if agentID == nil {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "task has no assigned agent")
	}

	deadline := time.Now().Add(time.Hour)
	if root.Bounds.MaxWallSecs > 0 {
		deadline = time.Now().Add(time.Duration(root.Bounds.MaxWallSecs) * time.Second)
	}
	pr := promise.Declare(promise.Body{IntentID: root.ID}, *agentID, c.id, deadline)
	if err := pr.Accept(); err != nil {
		return err
	}
	if err := pr.Start(); err != nil {
		return err
	}
	c.emit(ctx, root.ID.String(), events.KindPromiseTransition, pr.State)

	if err := root.Activate(); err != nil {
		return err
	}
	c.emit(ctx, root.ID.String(), events.KindIntentTransition, root.Status)

	engine := execengine.New(c.functions, c)
	opts := intent.ExecuteOptions{Checkpoint: c.checkpointBefore, MaxConcurrency: 4}
	execErr := root.Execute(ctx, engine, c, opts)

	if execErr != nil && swarmerr.Recoverable(execErr) && c.recoveryMgr != nil {
		result, recErr := c.recoveryMgr.Recover(ctx, recovery.Failure{
			ErrorKind:  swarmerr.KindOf(execErr),
			ContextRef: root.ID.String(),
		})
		if recErr == nil && result.Success && root.Status == intent.StatusActive {
			execErr = root.Execute(ctx, engine, c, opts)
		}
	}

	if execErr != nil {
		_ = root.Fail()
		_ = pr.Break(c.trustMgr)
		c.emit(ctx, root.ID.String(), events.KindIntentTransition, root.Status)
		return c.Complete(taskID, false, execErr.Error())
	}

	succeeded, err := root.AllPostconditionsHold(ctx, c)
	if err != nil {
		return err
	}
	if !succeeded {
		_ = root.Fail()
		_ = pr.Break(c.trustMgr)
		c.emit(ctx, root.ID.String(), events.KindIntentTransition, root.Status)
		return c.Complete(taskID, false, "postconditions did not hold")
	}
	c.emit(ctx, root.ID.String(), events.KindIntentTransition, root.Status)

	if err := pr.Fulfill(promise.Evidence{Present: true, Confidence: 1}, c.trustMgr); err != nil {
		return err
	}
	c.emit(ctx, root.ID.String(), events.KindPromiseTransition, pr.State)
	return c.Complete(taskID, true, "ok")
}

// RunSubIntent implements execengine.SubIntentRunner, letting a parent
// intent's SUBINTENT FROM step delegate into a sibling intent already
// registered by DelegateIntent/agentfile.LoadFile.
func (c *Coordinator) RunSubIntent(ctx context.Context, id uuid.UUID) (bool, error) {
	c.mu.Lock()
	sub, ok := c.registry[id]
	c.mu.Unlock()
	if !ok {
		return false, swarmerr.New(swarmerr.KindInput, id.String(), "unknown sub-intent")
	}

	if err := sub.Activate(); err != nil {
		return false, err
	}
	engine := execengine.New(c.functions, c)
	if err := sub.Execute(ctx, engine, c, intent.ExecuteOptions{Checkpoint: c.checkpointBefore, MaxConcurrency: 4}); err != nil {
		_ = sub.Fail()
		return false, nil
	}
	return sub.AllPostconditionsHold(ctx, c)
}

// checkpointBefore satisfies intent.CheckpointBefore, snapshotting
// coordinator state ahead of any risky step (spec §4.2 "the coordinator
// MUST request a Checkpoint").
func (c *Coordinator) checkpointBefore(ctx context.Context, in *intent.Intent, s *intent.Step) error {
	_, err := c.CreateCheckpoint()
	return err
}

// Evaluate implements intent.Evaluator, routing file-system conditions
// through the Verifier for independent re-observation and resolving the
// remaining condition kinds locally (spec §4.2 "evaluator is the
// Verifier"; env/tag/stdout conditions have no verify.Claim equivalent,
// so they consult state the coordinator itself has observed via
// HandleMessage's StepReport handling).
func (c *Coordinator) Evaluate(ctx context.Context, cond intent.Condition) (intent.Observation, error) {
	switch cond.Kind {
	case intent.CondFileExists:
		return c.evaluateViaVerifier(ctx, verify.Claim{Kind: verify.ClaimFileSystem, Path: cond.Path, Expect: verify.FileExists})
	case intent.CondEnvEquals:
		match := os.Getenv(cond.EnvKey) == cond.EnvValue
		return intent.Observation{Satisfied: match, Detail: "env_equals checked against this process's environment"}, nil
	case intent.CondFreeMemoryMin:
		return intent.Observation{Satisfied: freeMemoryAtLeast(cond.MinFreeBytes), Detail: "approximated from runtime.MemStats"}, nil
	case intent.CondStdoutMatch:
		c.mu.Lock()
		last := c.lastObserve
		c.mu.Unlock()
		re, err := regexp.Compile(cond.MatchPattern)
		if err != nil {
			return intent.Observation{}, swarmerr.Wrap(swarmerr.KindInput, "", "compiling stdout_match pattern", err)
		}
		return intent.Observation{Satisfied: re.MatchString(last), Detail: "matched against the most recent step report"}, nil
	case intent.CondCustomTag:
		c.mu.Lock()
		satisfied := c.tags[cond.Tag]
		c.mu.Unlock()
		return intent.Observation{Satisfied: satisfied, Detail: "checked against tags reported by StepReport"}, nil
	case intent.CondExitCode:
		// By the time a postcondition runs, the Execution Engine has
		// already failed the step on any non-zero exit, so a reachable
		// exit_code postcondition of 0 always holds; non-zero expectations
		// are Unobservable without a raw exit code in StepResult.
		return intent.Observation{Satisfied: cond.ExpectedCode == 0, Detail: "inferred from step success"}, nil
	default:
		return intent.Observation{}, swarmerr.New(swarmerr.KindInput, "", "unknown condition kind")
	}
}

func (c *Coordinator) evaluateViaVerifier(ctx context.Context, claim verify.Claim) (intent.Observation, error) {
	if c.verifier == nil {
		return intent.Observation{Satisfied: false, Detail: "no verifier configured"}, nil
	}
	report, err := c.verifier.Verify(ctx, uuid.New(), claim)
	if err != nil {
		return intent.Observation{}, err
	}
	return intent.Observation{Satisfied: report.Verified, Detail: report.Reason}, nil
}

func freeMemoryAtLeast(minBytes uint64) bool {
	if minBytes == 0 {
		return true
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	free := stats.Sys - stats.HeapInuse
	return free >= minBytes
}

// HandleMessage dispatches an inbound agentproto.Envelope (spec §4.7
// "handle_message"): TaskAccept/TaskReject/Cancel drive the task state
// machine, StepReport feeds the stdout_match/custom_tag condition cache,
// VerificationReport is recorded as a verification event only, and
// Heartbeat is accepted and ignored.
func (c *Coordinator) HandleMessage(ctx context.Context, env *agentproto.Envelope) error {
	switch env.Kind {
	case agentproto.KindTaskAccept:
		taskID, err := taskIDFromCorrelation(env)
		if err != nil {
			return err
		}
		return c.Accept(taskID)
	case agentproto.KindTaskReject:
		var payload agentproto.TaskRejectPayload
		if err := agentproto.Decode(env, &payload); err != nil {
			return err
		}
		taskID, err := taskIDFromCorrelation(env)
		if err != nil {
			return err
		}
		return c.requeue(taskID, payload.Reason)
	case agentproto.KindStepReport:
		var payload agentproto.StepReportPayload
		if err := agentproto.Decode(env, &payload); err != nil {
			return err
		}
		c.mu.Lock()
		c.lastObserve = payload.Observation
		c.tags[payload.Observation] = true
		c.mu.Unlock()
		c.emit(ctx, payload.StepID.String(), events.KindStepTransition, payload.Observation)
		return nil
	case agentproto.KindVerificationReport:
		c.emit(ctx, env.From.String(), events.KindVerification, nil)
		return nil
	case agentproto.KindHeartbeat:
		return nil
	case agentproto.KindCancel:
		taskID, err := taskIDFromCorrelation(env)
		if err != nil {
			return err
		}
		return c.cancelTask(taskID)
	default:
		return swarmerr.New(swarmerr.KindInput, env.ID.String(), "unhandled message kind")
	}
}

func taskIDFromCorrelation(env *agentproto.Envelope) (uuid.UUID, error) {
	if env.CorrelationID == nil {
		return uuid.Nil, swarmerr.New(swarmerr.KindInput, env.ID.String(), "message carries no correlation id")
	}
	return *env.CorrelationID, nil
}

func (c *Coordinator) requeue(taskID uuid.UUID, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "unknown task")
	}
	if task.Status != TaskAssigned {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "reject requires status assigned")
	}
	if task.AssignedAgent != nil {
		if agent, ok := c.agents[*task.AssignedAgent]; ok && agent.load > 0 {
			agent.load--
		}
	}
	c.running--
	task.AssignedAgent = nil
	task.Status = TaskIntake
	task.Result = reason
	c.queue = append(c.queue, taskID)
	return nil
}

func (c *Coordinator) cancelTask(taskID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return swarmerr.New(swarmerr.KindInput, taskID.String(), "unknown task")
	}
	if task.Status == TaskVerifiedSuccess || task.Status == TaskVerifiedFailure {
		return nil
	}
	if task.Status == TaskRunning {
		c.running--
	}
	if task.AssignedAgent != nil {
		if agent, ok := c.agents[*task.AssignedAgent]; ok && agent.load > 0 {
			agent.load--
		}
	}
	task.Status = TaskVerifiedFailure
	task.Result = "cancelled"
	return nil
}

// RecoverFromError applies the Recovery Manager to an out-of-band
// failure report (spec §4.7 "recover_from_error"): a failure the caller
// observed outside a RunTask call, such as an agent-reported transient
// fault relayed via HandleMessage.
func (c *Coordinator) RecoverFromError(ctx context.Context, contextRef string, cause error) (recovery.Result, error) {
	if c.recoveryMgr == nil {
		return recovery.Result{}, swarmerr.New(swarmerr.KindResource, contextRef, "no recovery manager configured")
	}
	return c.recoveryMgr.Recover(ctx, recovery.Failure{ErrorKind: swarmerr.KindOf(cause), ContextRef: contextRef})
}

func (c *Coordinator) emit(ctx context.Context, subject string, kind events.Kind, payload any) {
	if c.eventLog == nil {
		return
	}
	if _, err := c.eventLog.Emit(ctx, subject, kind, payload); err != nil {
		c.logger.Warn("event emit failed", map[string]interface{}{"error": err.Error()})
	}
}

// CreateCheckpoint snapshots the coordinator's current view of the
// swarm into the checkpoint ring.
func (c *Coordinator) CreateCheckpoint() (*checkpoint.Checkpoint, error) {
	c.mu.Lock()
	agentSnaps := make([]checkpoint.AgentStateSnapshot, 0, len(c.agents))
	for _, a := range c.agents {
		agentSnaps = append(agentSnaps, checkpoint.AgentStateSnapshot{
			AgentID:     a.ID,
			Role:        string(a.Role),
			Available:   a.Available,
			CurrentTask: nil,
		})
	}
	taskSnaps := make([]checkpoint.TaskSnapshot, 0, len(c.tasks))
	for _, t := range c.tasks {
		taskSnaps = append(taskSnaps, checkpoint.TaskSnapshot{
			TaskID:        t.ID,
			IntentID:      t.IntentID,
			Status:        string(t.Status),
			AssignedAgent: t.AssignedAgent,
		})
	}
	c.mu.Unlock()

	var trustSnap map[uuid.UUID]trust.Score
	if c.trustMgr != nil {
		trustSnap = map[uuid.UUID]trust.Score{}
		for _, a := range agentSnaps {
			trustSnap[a.AgentID] = c.trustMgr.Get(a.AgentID)
		}
	}

	if c.checkpoints == nil {
		return nil, swarmerr.New(swarmerr.KindResource, "", "no checkpoint ring configured")
	}
	return c.checkpoints.Create(checkpoint.Input{
		AgentStates:   agentSnaps,
		ActiveTasks:   taskSnaps,
		TrustSnapshot: trustSnap,
	})
}

// Quorum reports whether k-of-n consensus is reachable among
// verifier-role agents whose trust is at least cfg.QuorumMinTrust, and
// the required k (spec §5.2 "Consensus", k = ceil(2n/3) + 1).
func (c *Coordinator) Quorum() (k, n int, reachable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.agents {
		if a.Role != RoleVerifier || !a.Available {
			continue
		}
		trustValue := 0.0
		if c.trustMgr != nil {
			trustValue = c.trustMgr.Get(a.ID).Value
		}
		if trustValue >= c.cfg.QuorumMinTrust {
			n++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	k = int(math.Ceil(2.0*float64(n)/3.0)) + 1
	return k, n, k <= n
}

// DecideCritical applies k-of-n consensus to a critical operation: it
// succeeds only if at least k of the given verifier votes are true. If
// quorum itself is unreachable, the operation is deferred, never
// unilaterally executed (spec §5.2).
func (c *Coordinator) DecideCritical(ctx context.Context, votes []bool) (decided bool, deferred bool) {
	k, _, reachable := c.Quorum()
	if !reachable {
		return false, true
	}
	yes := 0
	for _, v := range votes {
		if v {
			yes++
		}
	}
	return yes >= k, false
}

// RemoveAgent marks an agent unavailable without deleting its trust
// history (spec: trust persists independent of live membership).
func (c *Coordinator) RemoveAgent(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	agent, ok := c.agents[id]
	if !ok {
		return swarmerr.ErrAgentUnknown
	}
	agent.Available = false
	return nil
}
