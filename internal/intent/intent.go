// Package intent implements the Intent Tree (spec §4.2): a hierarchical,
// typed plan with pre/postconditions, topological execution order, and
// checkpoint/rollback via compensating actions. Validation, the state
// machine, and bounds-tightening rules follow spec §3/§4.2 exactly; the
// package is built the way the teacher's internal/agentfile package builds a
// declarative plan — AST first, then a validator, then an executor driven by
// the same struct the AST compiles to — generalized from the teacher's
// GOAL/AGENT/RUN workflow vocabulary to the spec's Intent/Step/Condition
// model.
package intent

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

// Priority is the spec §3 Intent.priority enum.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Status is the spec §3/§4.2 Intent.status state machine.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusDeclared   Status = "declared"
	StatusActive     Status = "active"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusRolledBack:
		return true
	default:
		return false
	}
}

// ActionKind tags the Step.action variant (spec §3 Step).
type ActionKind string

const (
	ActionCommand      ActionKind = "command"
	ActionFileOp       ActionKind = "file_op"
	ActionFunctionCall ActionKind = "function_call"
	ActionSubIntent    ActionKind = "sub_intent"
)

// FileOpKind enumerates the FileOp(op, path) operators.
type FileOpKind string

const (
	FileOpCreate FileOpKind = "create"
	FileOpWrite  FileOpKind = "write"
	FileOpDelete FileOpKind = "delete"
	FileOpChmod  FileOpKind = "chmod"
)

// Action is a tagged union over the four step action kinds, Go's
// substitute for the spec's sum type (spec §9 "Inheritance substitutes").
type Action struct {
	Kind ActionKind

	// ActionCommand
	Argv []string

	// ActionFileOp
	FileOp FileOpKind
	Path   string

	// ActionFunctionCall
	FunctionName string
	FunctionArgs map[string]any

	// ActionSubIntent
	SubIntentID uuid.UUID
}

// IsRisky reports whether a step's action requires a checkpoint before
// execution (spec §4.2 "Checkpoints": any file-mutating FileOp, any
// command not on a read-only allowlist, any sub-intent).
func (a Action) IsRisky(readOnlyCommands map[string]bool) bool {
	switch a.Kind {
	case ActionFileOp:
		return a.FileOp != "" // every modeled FileOp mutates; read access is a Condition, not a FileOp
	case ActionSubIntent:
		return true
	case ActionCommand:
		if len(a.Argv) == 0 {
			return true
		}
		return !readOnlyCommands[a.Argv[0]]
	default:
		return false
	}
}

// ConditionKind enumerates the observable-world predicates a Condition may
// express (spec §3 Condition).
type ConditionKind string

const (
	CondFileExists    ConditionKind = "file_exists"
	CondExitCode      ConditionKind = "exit_code"
	CondEnvEquals     ConditionKind = "env_equals"
	CondFreeMemoryMin ConditionKind = "free_memory_min"
	CondStdoutMatch   ConditionKind = "stdout_match"
	CondCustomTag     ConditionKind = "custom_tag"
)

// Condition is a pure predicate over the observable world, evaluated at
// pre-step and post-step boundaries by the Verifier (spec §3, §4.2).
type Condition struct {
	Kind ConditionKind

	Path          string
	ExpectedCode  int
	EnvKey        string
	EnvValue      string
	MinFreeBytes  uint64
	MatchPattern  string
	Tag           string
}

// Observation is the evidence an Evaluator reports for one Condition check.
type Observation struct {
	Satisfied bool
	Detail    string
}

// Evaluator evaluates Conditions against real observations; in production
// this is implemented by the Verifier (package verify) so that pre/post
// checks and verification share one source of truth about "what actually
// happened" (spec §4.2 "evaluator is the Verifier").
type Evaluator interface {
	Evaluate(ctx context.Context, cond Condition) (Observation, error)
}

// StepResultKind is Step.result's tag (spec §3).
type StepResultKind string

const (
	ResultPending StepResultKind = "pending"
	ResultRunning StepResultKind = "running"
	ResultOK      StepResultKind = "ok"
	ResultErr     StepResultKind = "err"
)

// StepResult carries the outcome of one step.
type StepResult struct {
	Kind     StepResultKind
	Evidence string
	Reason   string
}

// CompensatingAction is invoked on rollback for a step that already mutated
// state (spec §4.2 "Rollback semantics").
type CompensatingAction func(ctx context.Context) error

// Step is the spec §3 Step entity.
type Step struct {
	ID             uuid.UUID
	Name           string
	Action         Action
	DependsOn      []uuid.UUID
	Preconditions  []Condition
	Postconditions []Condition
	Compensate     CompensatingAction

	result           StepResult
	resultSetRunning bool // guards the "transitions at most once away from running" invariant
}

// ContextBounds is the spec §3 entity bounding a step/sub-intent's
// authority.
type ContextBounds struct {
	AllowedPaths        []string
	DeniedPaths         []string
	AllowedCommands     []string
	DeniedCommands      []string
	MaxMemoryBytes      uint64
	MaxCPUSecs          uint64
	MaxWallSecs         uint64
	NetworkNone         bool
	NetworkAllowlist    []string
	MaxDelegationDepth  int
}

// Intersect computes a sub-intent's effective bounds as parent ∩ declared
// (spec §3 "Bounds are monotonically tightening down a sub-intent tree").
// Allow-lists intersect; deny-lists union; numeric limits take the min;
// network policy only ever tightens (none wins over an allowlist, and
// allowlists intersect).
func (b ContextBounds) Intersect(declared ContextBounds) ContextBounds {
	out := ContextBounds{
		AllowedPaths:       intersectStrings(b.AllowedPaths, declared.AllowedPaths),
		DeniedPaths:        unionStrings(b.DeniedPaths, declared.DeniedPaths),
		AllowedCommands:    intersectStrings(b.AllowedCommands, declared.AllowedCommands),
		DeniedCommands:     unionStrings(b.DeniedCommands, declared.DeniedCommands),
		MaxMemoryBytes:     minUint64(b.MaxMemoryBytes, declared.MaxMemoryBytes),
		MaxCPUSecs:         minUint64(b.MaxCPUSecs, declared.MaxCPUSecs),
		MaxWallSecs:        minUint64(b.MaxWallSecs, declared.MaxWallSecs),
		MaxDelegationDepth: minInt(b.MaxDelegationDepth, declared.MaxDelegationDepth),
	}
	out.NetworkNone = b.NetworkNone || declared.NetworkNone
	if !out.NetworkNone {
		out.NetworkAllowlist = intersectStrings(b.NetworkAllowlist, declared.NetworkAllowlist)
	}
	return out
}

// Subset reports whether b is contained within parent (spec §4.2 validation
// rule (d), and §8 invariant 2 "monotonic tightening").
func (b ContextBounds) Subset(parent ContextBounds) bool {
	if !stringsSubset(b.AllowedPaths, parent.AllowedPaths) {
		return false
	}
	if !stringsSubset(b.AllowedCommands, parent.AllowedCommands) {
		return false
	}
	if !stringsSubset(parent.DeniedPaths, b.DeniedPaths) {
		return false // child must deny at least what parent denies
	}
	if !stringsSubset(parent.DeniedCommands, b.DeniedCommands) {
		return false
	}
	if b.MaxMemoryBytes > parent.MaxMemoryBytes && parent.MaxMemoryBytes != 0 {
		return false
	}
	if b.MaxCPUSecs > parent.MaxCPUSecs && parent.MaxCPUSecs != 0 {
		return false
	}
	if b.MaxWallSecs > parent.MaxWallSecs && parent.MaxWallSecs != 0 {
		return false
	}
	if parent.NetworkNone && !b.NetworkNone {
		return false
	}
	if b.MaxDelegationDepth > parent.MaxDelegationDepth && parent.MaxDelegationDepth != 0 {
		return false
	}
	return true
}

// Intent is the spec §3 Intent entity and the root of the Intent Tree.
type Intent struct {
	ID             uuid.UUID
	Goal           string
	Priority       Priority
	Preconditions  []Condition
	Postconditions []Condition
	Steps          []*Step
	Bounds         ContextBounds
	Status         Status

	ParentID *uuid.UUID
	Depth    int
}

// New builds a draft Intent. Callers populate Steps/Preconditions/Bounds
// before calling Declare.
func New(goal string, priority Priority, bounds ContextBounds) *Intent {
	return &Intent{
		ID:       uuid.New(),
		Goal:     goal,
		Priority: priority,
		Bounds:   bounds,
		Status:   StatusDraft,
	}
}

// Declare validates the intent per spec §4.2 rules (a)-(f) and transitions
// draft → declared. The intent is immutable (except status and per-step
// results) from this point on.
func (in *Intent) Declare(parentBounds *ContextBounds) error {
	if in.Status != StatusDraft {
		return swarmerr.New(swarmerr.KindInput, in.ID.String(), "declare requires status draft")
	}
	if err := in.validate(parentBounds); err != nil {
		return err
	}
	in.Status = StatusDeclared
	return nil
}

func (in *Intent) validate(parentBounds *ContextBounds) error {
	byID := make(map[uuid.UUID]*Step, len(in.Steps))
	for _, s := range in.Steps {
		if _, dup := byID[s.ID]; dup {
			return swarmerr.New(swarmerr.KindInput, in.ID.String(), fmt.Sprintf("duplicate step id %s", s.ID))
		}
		byID[s.ID] = s
	}

	// (a) all depends_on references resolve.
	for _, s := range in.Steps {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; !ok {
				return swarmerr.New(swarmerr.KindInput, in.ID.String(), fmt.Sprintf("step %s depends on unknown step %s", s.ID, dep))
			}
		}
	}

	// (b) no cycles.
	if _, err := topologicalOrder(in.Steps); err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, in.ID.String(), "cyclic step dependencies", err)
	}

	// (c) precondition/postcondition predicates are well-formed.
	for _, s := range in.Steps {
		for _, c := range append(append([]Condition{}, s.Preconditions...), s.Postconditions...) {
			if err := validateCondition(c); err != nil {
				return swarmerr.Wrap(swarmerr.KindInput, s.ID.String(), "malformed condition", err)
			}
		}
	}
	for _, c := range append(append([]Condition{}, in.Preconditions...), in.Postconditions...) {
		if err := validateCondition(c); err != nil {
			return swarmerr.Wrap(swarmerr.KindInput, in.ID.String(), "malformed condition", err)
		}
	}

	// (d) bounds of a sub-intent are a subset of parent bounds.
	if parentBounds != nil && !in.Bounds.Subset(*parentBounds) {
		return swarmerr.New(swarmerr.KindPolicy, in.ID.String(), "bounds are not a subset of parent bounds")
	}

	// (f) max_delegation_depth respected.
	if parentBounds != nil && parentBounds.MaxDelegationDepth > 0 && in.Depth > parentBounds.MaxDelegationDepth {
		return swarmerr.New(swarmerr.KindPolicy, in.ID.String(), "max delegation depth exceeded")
	}

	// (e) total estimated resources ≤ bounds: each step's declared action
	// is checked against the intent's own bounds at execution time by the
	// Execution Engine; here we only reject intents whose own bounds
	// already violate zero-resource sentinels.
	if in.Bounds.MaxWallSecs == 0 && in.Bounds.MaxCPUSecs == 0 && len(in.Steps) > 0 {
		hasCommand := false
		for _, s := range in.Steps {
			if s.Action.Kind == ActionCommand {
				hasCommand = true
			}
		}
		if hasCommand {
			return swarmerr.New(swarmerr.KindInput, in.ID.String(), "no resource budget declared for a plan containing commands")
		}
	}

	return nil
}

func validateCondition(c Condition) error {
	switch c.Kind {
	case CondFileExists:
		if c.Path == "" {
			return fmt.Errorf("file_exists condition requires a path")
		}
	case CondEnvEquals:
		if c.EnvKey == "" {
			return fmt.Errorf("env_equals condition requires a key")
		}
	case CondStdoutMatch:
		if c.MatchPattern == "" {
			return fmt.Errorf("stdout_match condition requires a pattern")
		}
	case CondCustomTag:
		if c.Tag == "" {
			return fmt.Errorf("custom_tag condition requires a tag")
		}
	case CondExitCode, CondFreeMemoryMin:
		// zero values are well-formed (exit code 0, no minimum).
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	return nil
}

// Activate transitions declared → active (spec §4.2 state machine).
func (in *Intent) Activate() error {
	if in.Status != StatusDeclared {
		return swarmerr.New(swarmerr.KindInput, in.ID.String(), "activate requires status declared")
	}
	in.Status = StatusActive
	return nil
}

// StepOk records a successful step outcome (spec §4.2 "active --step_ok*--> active").
func (in *Intent) StepOk(stepID uuid.UUID, evidence string) error {
	if in.Status != StatusActive {
		return swarmerr.New(swarmerr.KindInput, in.ID.String(), "step transitions require status active")
	}
	s, err := in.step(stepID)
	if err != nil {
		return err
	}
	if err := s.transitionTo(ResultOK); err != nil {
		return err
	}
	s.result = StepResult{Kind: ResultOK, Evidence: evidence}
	return nil
}

// StepErr records a failed step outcome. The caller (coordinator/recovery
// manager) decides the resulting intent status; this method only records
// the step result — spec §4.2 explicitly leaves the active→{active|failed|
// rolled_back} choice to "recovery decides".
func (in *Intent) StepErr(stepID uuid.UUID, reason string) error {
	if in.Status != StatusActive {
		return swarmerr.New(swarmerr.KindInput, in.ID.String(), "step transitions require status active")
	}
	s, err := in.step(stepID)
	if err != nil {
		return err
	}
	if err := s.transitionTo(ResultErr); err != nil {
		return err
	}
	s.result = StepResult{Kind: ResultErr, Reason: reason}
	return nil
}

// MarkRunning records that a step has begun executing.
func (in *Intent) MarkRunning(stepID uuid.UUID) error {
	s, err := in.step(stepID)
	if err != nil {
		return err
	}
	return s.transitionTo(ResultRunning)
}

func (s *Step) transitionTo(kind StepResultKind) error {
	switch kind {
	case ResultRunning:
		if s.resultSetRunning {
			return swarmerr.New(swarmerr.KindFatal, s.ID.String(), "step already left running exactly once")
		}
		s.resultSetRunning = true
		s.result = StepResult{Kind: ResultRunning}
		return nil
	case ResultOK, ResultErr:
		if s.result.Kind != ResultRunning && s.result.Kind != ResultPending {
			return swarmerr.New(swarmerr.KindFatal, s.ID.String(), "step result already terminal")
		}
		return nil
	default:
		return swarmerr.New(swarmerr.KindFatal, s.ID.String(), "invalid step transition target")
	}
}

func (in *Intent) step(id uuid.UUID) (*Step, error) {
	for _, s := range in.Steps {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, swarmerr.New(swarmerr.KindInput, id.String(), "unknown step id")
}

// AllPostconditionsHold transitions active → succeeded once every
// top-level postcondition is satisfied (spec §4.2).
func (in *Intent) AllPostconditionsHold(ctx context.Context, eval Evaluator) (bool, error) {
	if in.Status != StatusActive {
		return false, swarmerr.New(swarmerr.KindInput, in.ID.String(), "postcondition check requires status active")
	}
	for _, c := range in.Postconditions {
		obs, err := eval.Evaluate(ctx, c)
		if err != nil {
			return false, err
		}
		if !obs.Satisfied {
			return false, nil
		}
	}
	in.Status = StatusSucceeded
	return true, nil
}

// Fail transitions active → failed.
func (in *Intent) Fail() error {
	if in.Status.Terminal() {
		return swarmerr.New(swarmerr.KindFatal, in.ID.String(), "cannot fail a terminal intent")
	}
	in.Status = StatusFailed
	return nil
}

// RollBack transitions active → rolled_back, invoking every step's
// compensating action in reverse topological order (spec §4.2 "Rollback
// semantics").
func (in *Intent) RollBack(ctx context.Context) error {
	if in.Status.Terminal() {
		return swarmerr.New(swarmerr.KindFatal, in.ID.String(), "cannot roll back a terminal intent")
	}
	order, err := topologicalOrder(in.Steps)
	if err != nil {
		return err
	}
	for i := len(order) - 1; i >= 0; i-- {
		s := order[i]
		if s.Compensate == nil {
			continue
		}
		if s.result.Kind != ResultOK {
			continue // nothing to compensate for a step that never committed
		}
		if err := s.Compensate(ctx); err != nil {
			return swarmerr.Wrap(swarmerr.KindIntegrity, s.ID.String(), "compensating action failed", err)
		}
	}
	in.Status = StatusRolledBack
	return nil
}

// StepRunner executes a single step and reports its outcome; implemented by
// the Execution Engine.
type StepRunner interface {
	Run(ctx context.Context, s *Step, bounds ContextBounds) (StepResult, error)
}

// CheckpointBefore is invoked before a risky step executes (spec §4.2
// "the coordinator MUST request a Checkpoint").
type CheckpointBefore func(ctx context.Context, in *Intent, s *Step) error

// readOnlyAllowlist is the default "command not on a read-only allowlist"
// set referenced by Action.IsRisky; callers may substitute their own via
// ExecuteOptions.
var readOnlyAllowlist = map[string]bool{
	"cat": true, "ls": true, "echo": true, "stat": true, "true": true,
}

// ExecuteOptions configures Execute.
type ExecuteOptions struct {
	ReadOnlyCommands map[string]bool
	Checkpoint       CheckpointBefore
	MaxConcurrency   int
}

// Execute runs every step in topological order, running independent
// siblings concurrently via an errgroup bounded by MaxConcurrency (spec
// §4.2 "Execution order"; spec §5 "independent steps ... MAY run in
// parallel"). A step only runs once its preconditions hold; a risky step
// triggers opts.Checkpoint first.
func (in *Intent) Execute(ctx context.Context, runner StepRunner, eval Evaluator, opts ExecuteOptions) error {
	if in.Status != StatusActive {
		return swarmerr.New(swarmerr.KindInput, in.ID.String(), "execute requires status active")
	}
	readOnly := opts.ReadOnlyCommands
	if readOnly == nil {
		readOnly = readOnlyAllowlist
	}

	levels, err := topologicalLevels(in.Steps)
	if err != nil {
		return err
	}

	for _, level := range levels {
		group, gctx := errgroup.WithContext(ctx)
		if opts.MaxConcurrency > 0 {
			group.SetLimit(opts.MaxConcurrency)
		}
		for _, s := range level {
			s := s
			group.Go(func() error {
				return in.executeStep(gctx, s, runner, eval, readOnly, opts.Checkpoint)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (in *Intent) executeStep(ctx context.Context, s *Step, runner StepRunner, eval Evaluator, readOnly map[string]bool, checkpoint CheckpointBefore) error {
	for _, c := range s.Preconditions {
		obs, err := eval.Evaluate(ctx, c)
		if err != nil {
			return swarmerr.Wrap(swarmerr.KindTransient, s.ID.String(), "precondition evaluation failed", err)
		}
		if !obs.Satisfied {
			_ = in.StepErr(s.ID, "precondition not satisfied")
			return swarmerr.New(swarmerr.KindPolicy, s.ID.String(), "precondition not satisfied")
		}
	}

	if s.Action.IsRisky(readOnly) && checkpoint != nil {
		if err := checkpoint(ctx, in, s); err != nil {
			return swarmerr.Wrap(swarmerr.KindResource, s.ID.String(), "checkpoint before risky step failed", err)
		}
	}

	if err := in.MarkRunning(s.ID); err != nil {
		return err
	}

	result, err := runner.Run(ctx, s, in.Bounds)
	if err != nil {
		_ = in.StepErr(s.ID, err.Error())
		return err
	}
	if result.Kind == ResultErr {
		_ = in.StepErr(s.ID, result.Reason)
		return swarmerr.New(swarmerr.KindTransient, s.ID.String(), result.Reason)
	}

	for _, c := range s.Postconditions {
		obs, err := eval.Evaluate(ctx, c)
		if err != nil {
			return swarmerr.Wrap(swarmerr.KindTransient, s.ID.String(), "postcondition evaluation failed", err)
		}
		if !obs.Satisfied {
			_ = in.StepErr(s.ID, "postcondition not satisfied")
			return swarmerr.New(swarmerr.KindIntegrity, s.ID.String(), "postcondition not satisfied")
		}
	}

	return in.StepOk(s.ID, result.Evidence)
}

// topologicalOrder returns steps sorted so every step follows its
// dependencies, erroring on cycles (spec §4.2 validation rule (b)).
func topologicalOrder(steps []*Step) ([]*Step, error) {
	byID := make(map[uuid.UUID]*Step, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uuid.UUID]int, len(steps))
	var order []*Step

	var visit func(s *Step) error
	visit = func(s *Step) error {
		color[s.ID] = gray
		deps := append([]uuid.UUID{}, s.DependsOn...)
		sort.Slice(deps, func(i, j int) bool { return deps[i].String() < deps[j].String() })
		for _, depID := range deps {
			dep, ok := byID[depID]
			if !ok {
				continue // already rejected by rule (a)
			}
			switch color[dep.ID] {
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			case gray:
				return fmt.Errorf("cycle detected at step %s", dep.ID)
			}
		}
		color[s.ID] = black
		order = append(order, s)
		return nil
	}

	sorted := append([]*Step{}, steps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.String() < sorted[j].ID.String() })
	for _, s := range sorted {
		if color[s.ID] == white {
			if err := visit(s); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// topologicalLevels groups steps into waves where every step in a wave has
// all its dependencies satisfied by earlier waves, so each wave may run
// concurrently (spec §4.2 "independent steps MAY run concurrently").
func topologicalLevels(steps []*Step) ([][]*Step, error) {
	order, err := topologicalOrder(steps)
	if err != nil {
		return nil, err
	}
	depth := make(map[uuid.UUID]int, len(order))
	for _, s := range order {
		d := 0
		for _, dep := range s.DependsOn {
			if dd, ok := depth[dep]; ok && dd+1 > d {
				d = dd + 1
			}
		}
		depth[s.ID] = d
	}
	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	levels := make([][]*Step, maxDepth+1)
	for _, s := range order {
		d := depth[s.ID]
		levels[d] = append(levels[d], s)
	}
	return levels, nil
}

func intersectStrings(a, b []string) []string {
	if len(a) == 0 {
		return append([]string{}, b...)
	}
	if len(b) == 0 {
		return append([]string{}, a...)
	}
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, v := range append(append([]string{}, a...), b...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func stringsSubset(sub, super []string) bool {
	if len(super) == 0 {
		return true // an empty allowlist/denylist on the parent imposes no constraint
	}
	set := make(map[string]bool, len(super))
	for _, v := range super {
		set[v] = true
	}
	for _, v := range sub {
		if !set[v] {
			return false
		}
	}
	return true
}

func minUint64(a, b uint64) uint64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}
