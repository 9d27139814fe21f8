package recovery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/latticeforge/swarm/internal/checkpoint"
	"github.com/latticeforge/swarm/internal/swarmerr"
)

// ExponentialBackoffStrategy handles transient failures by waiting
// before telling the caller to retry (cost 0.1). Each Recover call
// starts a fresh backoff and waits its first interval, so the wait does
// not grow across repeated calls; MaxElapsed is not consulted.
type ExponentialBackoffStrategy struct {
	MaxElapsed time.Duration
}

func (s ExponentialBackoffStrategy) ID() string          { return "exponential_backoff" }
func (s ExponentialBackoffStrategy) CostEstimate() float64 { return 0.1 }

func (s ExponentialBackoffStrategy) CanHandle(f Failure) bool {
	return f.ErrorKind == swarmerr.KindTransient
}

func (s ExponentialBackoffStrategy) RequiresExternalResources() bool { return false }

func (s ExponentialBackoffStrategy) Recover(ctx context.Context, f Failure) (Result, error) {
	b := backoff.NewExponentialBackOff()
	wait := b.NextBackOff()
	if wait == backoff.Stop {
		return Result{Success: false, ActionTaken: "backoff exhausted", Confidence: 0.1, ContinueRecovery: false}, nil
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	return Result{
		Success:          false,
		ActionTaken:      "waited " + wait.String() + " before signalling retry",
		Confidence:       0.5,
		ContinueRecovery: true,
	}, nil
}

// RemedyFunc performs a targeted fix for a specific resource failure
// (clearing a stale lock file, freeing a cache, restarting a managed
// subprocess). SelfHealingStrategy is a thin dispatcher over these.
type RemedyFunc func(ctx context.Context, f Failure) error

// SelfHealingStrategy attempts a known, narrow remediation before
// escalating to anything more expensive (spec §4.6 "Self-Healing",
// cost 0.2).
type SelfHealingStrategy struct {
	Remedies map[string]RemedyFunc // keyed by Failure.ContextRef's logical resource name
}

func (s SelfHealingStrategy) ID() string          { return "self_healing" }
func (s SelfHealingStrategy) CostEstimate() float64 { return 0.2 }

func (s SelfHealingStrategy) CanHandle(f Failure) bool {
	if f.ErrorKind != swarmerr.KindTransient && f.ErrorKind != swarmerr.KindResource {
		return false
	}
	_, known := s.Remedies[f.ContextRef]
	return known
}

func (s SelfHealingStrategy) RequiresExternalResources() bool { return false }

func (s SelfHealingStrategy) Recover(ctx context.Context, f Failure) (Result, error) {
	remedy, ok := s.Remedies[f.ContextRef]
	if !ok {
		return Result{Success: false, ActionTaken: "no remedy registered", Confidence: 0, ContinueRecovery: true}, nil
	}
	if err := remedy(ctx, f); err != nil {
		return Result{Success: false, ActionTaken: "remedy failed", Confidence: 0.2, ContinueRecovery: true}, nil
	}
	return Result{Success: true, ActionTaken: "applied remedy for " + f.ContextRef, Confidence: 0.7, ContinueRecovery: false}, nil
}

// CheckpointRecoveryStrategy restores the newest compatible checkpoint
// (spec §4.6 "Checkpoint Recovery", cost 0.3; spec §4.2/§4.6 "restore
// newest compatible checkpoint").
type CheckpointRecoveryStrategy struct {
	Ring      *checkpoint.Ring
	Compatible func(*checkpoint.Checkpoint, Failure) bool
}

func (s CheckpointRecoveryStrategy) ID() string          { return "checkpoint_recovery" }
func (s CheckpointRecoveryStrategy) CostEstimate() float64 { return 0.3 }

func (s CheckpointRecoveryStrategy) CanHandle(f Failure) bool {
	return f.ErrorKind == swarmerr.KindIntegrity && s.Ring != nil
}

func (s CheckpointRecoveryStrategy) RequiresExternalResources() bool { return false }

func (s CheckpointRecoveryStrategy) Recover(ctx context.Context, f Failure) (Result, error) {
	var cp *checkpoint.Checkpoint
	var ok bool
	if s.Compatible != nil {
		cp, ok = s.Ring.NewestMatching(func(c *checkpoint.Checkpoint) bool { return s.Compatible(c, f) })
	} else {
		cp, ok = s.Ring.Newest()
	}
	if !ok {
		return Result{Success: false, ActionTaken: "no compatible checkpoint found", Confidence: 0, ContinueRecovery: true}, nil
	}
	return Result{
		Success:          true,
		ActionTaken:      "restored checkpoint " + cp.ID.String(),
		Confidence:       0.6,
		ContinueRecovery: false,
	}, nil
}

// GracefulDegradationStrategy is the fallback of last resort: it accepts
// every failure kind, never requires external resources, and reports a
// low-confidence non-success result with ContinueRecovery false, which
// the Manager records as a failed attempt (spec §4.6 "Graceful
// Degradation", cost 0.4).
type GracefulDegradationStrategy struct {
	DegradedMode func(ctx context.Context, f Failure) error
}

func (s GracefulDegradationStrategy) ID() string          { return "graceful_degradation" }
func (s GracefulDegradationStrategy) CostEstimate() float64 { return 0.4 }

func (s GracefulDegradationStrategy) CanHandle(f Failure) bool { return true }

func (s GracefulDegradationStrategy) RequiresExternalResources() bool { return false }

func (s GracefulDegradationStrategy) Recover(ctx context.Context, f Failure) (Result, error) {
	if s.DegradedMode != nil {
		if err := s.DegradedMode(ctx, f); err != nil {
			return Result{Success: false, ActionTaken: "degraded mode failed", Confidence: 0.1, ContinueRecovery: false}, nil
		}
	}
	return Result{
		Success:          false,
		ActionTaken:      "continuing in degraded mode",
		Confidence:       0.3,
		ContinueRecovery: false,
	}, nil
}
