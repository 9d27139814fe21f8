// Package promise implements the Promise Engine (spec §4.3): a voluntary
// commitment state machine with willingness evaluation and trust coupling
// on terminal states. No transition is ever coerced by the coordinator —
// an Imposition only becomes a Promise once the recipient accepts after
// evaluating its own Willingness.
package promise

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/swarmerr"
	"github.com/latticeforge/swarm/internal/trust"
)

// State is the spec §4.3 Promise.state enum.
type State string

const (
	StateDeclared   State = "declared"
	StateActive     State = "active"
	StateFulfilling State = "fulfilling"
	StateFulfilled  State = "fulfilled"
	StateBroken     State = "broken"
	StateCancelled  State = "cancelled"
	StateExpired    State = "expired"
	StateDeclined   State = "declined"
)

func (s State) Terminal() bool {
	switch s {
	case StateFulfilled, StateBroken, StateCancelled, StateExpired, StateDeclined:
		return true
	default:
		return false
	}
}

// Body names what is promised: a reference to an Intent or a sub-step set
// (spec §3 Promise.body).
type Body struct {
	IntentID uuid.UUID
	StepIDs  []uuid.UUID
}

// Evidence is the (possibly absent) verification result attached on
// fulfillment; produced by the Verifier (package verify) and passed in
// opaquely here to avoid a promise→verify import cycle.
type Evidence struct {
	Present     bool
	Confidence  float64
	ProofDigest string
}

// WillingnessKind tags the four possible responses to a proposed promise
// (spec §4.3 "Willingness evaluation").
type WillingnessKind string

const (
	Willing     WillingnessKind = "willing"
	Conditional WillingnessKind = "conditional"
	Unwilling   WillingnessKind = "unwilling"
	Unable      WillingnessKind = "unable"
)

// Willingness is the result of a promiser evaluating a proposed commitment.
type Willingness struct {
	Kind       WillingnessKind
	Confidence float64
	Conditions []string
	Reason     string
}

// WillingnessEvaluator decides how an agent responds to a proposed promise,
// given the proposed body, execution context, and the promisee's current
// trust in this agent.
type WillingnessEvaluator interface {
	Evaluate(ctx context.Context, promiser uuid.UUID, body Body, promiseeTrust float64) (Willingness, error)
}

// Imposition is an external request to promise. It is NOT a promise; it
// becomes one only if the recipient voluntarily accepts (spec §4.3
// "Imposition").
type Imposition struct {
	Body     Body
	Promiser uuid.UUID
	Promisee uuid.UUID
	Deadline time.Time
}

// TrustUpdater is the subset of trust.Manager the Promise Engine needs to
// apply trust coupling on terminal states.
type TrustUpdater interface {
	Update(agent uuid.UUID, success, verified bool) (trust.Score, error)
}

// Promise is the spec §3/§4.3 entity.
type Promise struct {
	ID       uuid.UUID
	Body     Body
	Promiser uuid.UUID
	Promisee uuid.UUID
	State    State
	Evidence *Evidence
	Deadline time.Time
}

// Declare creates a promise directly (the promiser-initiated path; an
// imposition uses NewFromImposition instead).
func Declare(body Body, promiser, promisee uuid.UUID, deadline time.Time) *Promise {
	return &Promise{
		ID:       uuid.New(),
		Body:     body,
		Promiser: promiser,
		Promisee: promisee,
		State:    StateDeclared,
		Deadline: deadline,
	}
}

// NewFromImposition constructs a fresh Promise as if the recipient had
// declared it themselves, per spec §4.3: "If accepted, a fresh Promise is
// constructed as if the recipient had declared it." The caller must still
// drive it through Accept/Decline based on the recipient's Willingness.
func NewFromImposition(imp Imposition) *Promise {
	return Declare(imp.Body, imp.Promiser, imp.Promisee, imp.Deadline)
}

// Accept transitions declared → active. Only the promiser may accept (spec
// §4.3 "Transitions may originate only from the promiser").
func (p *Promise) Accept() error {
	if p.State != StateDeclared {
		return swarmerr.New(swarmerr.KindInput, p.ID.String(), "accept requires state declared")
	}
	p.State = StateActive
	return nil
}

// Decline is the one transition the promiser uses before accept,
// terminating in declined without ever having been active (spec §4.3).
func (p *Promise) Decline() error {
	if p.State != StateDeclared {
		return swarmerr.New(swarmerr.KindInput, p.ID.String(), "decline requires state declared")
	}
	p.State = StateDeclined
	return nil
}

// Start transitions active → fulfilling.
func (p *Promise) Start() error {
	if p.State != StateActive {
		return swarmerr.New(swarmerr.KindInput, p.ID.String(), "start requires state active")
	}
	p.State = StateFulfilling
	return nil
}

// Fulfill transitions fulfilling → fulfilled and applies trust coupling:
// trust.update(success=true, verified=evidence.is_some()) (spec §4.3
// "Trust coupling").
func (p *Promise) Fulfill(evidence Evidence, trustMgr TrustUpdater) error {
	if p.State != StateFulfilling {
		return swarmerr.New(swarmerr.KindInput, p.ID.String(), "fulfill requires state fulfilling")
	}
	p.State = StateFulfilled
	p.Evidence = &evidence
	return updateTrust(trustMgr, p.Promiser, true, evidence.Present)
}

// Cancel transitions active or fulfilling → cancelled. No trust update
// (spec §4.3: "cancelled and declined do not update trust").
func (p *Promise) Cancel() error {
	if p.State != StateActive && p.State != StateFulfilling {
		return swarmerr.New(swarmerr.KindInput, p.ID.String(), "cancel requires state active or fulfilling")
	}
	p.State = StateCancelled
	return nil
}

// Break transitions active or fulfilling → broken, applying
// trust.update(success=false, ...).
func (p *Promise) Break(trustMgr TrustUpdater) error {
	if p.State != StateActive && p.State != StateFulfilling {
		return swarmerr.New(swarmerr.KindInput, p.ID.String(), "break requires state active or fulfilling")
	}
	p.State = StateBroken
	return updateTrust(trustMgr, p.Promiser, false, false)
}

// Timeout transitions any non-terminal state → expired on deadline
// expiry, applying trust.update(success=false, ...) (spec §4.3 "also: any
// non-terminal ──timeout──▶ expired").
func (p *Promise) Timeout(trustMgr TrustUpdater) error {
	if p.State.Terminal() {
		return swarmerr.New(swarmerr.KindFatal, p.ID.String(), "cannot time out a terminal promise")
	}
	p.State = StateExpired
	return updateTrust(trustMgr, p.Promiser, false, false)
}

func updateTrust(trustMgr TrustUpdater, agent uuid.UUID, success, verified bool) error {
	if trustMgr == nil {
		return nil
	}
	_, err := trustMgr.Update(agent, success, verified)
	return err
}
