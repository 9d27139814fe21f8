// Package swarmerr defines the typed error taxonomy shared across the swarm
// coordination runtime (spec §7): Input, Policy, Transient, Resource,
// Integrity, and Fatal. Every error surfaced to a caller or the host wraps
// one of these kinds so the Recovery Manager and the CLI's exit-code mapping
// can dispatch on it without string matching.
package swarmerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation-policy dispatch.
type Kind string

const (
	// KindInput covers invalid intent plans, bounds violations, unknown
	// agents, and schema mismatches. Surfaced to the caller, never recovered.
	KindInput Kind = "input"
	// KindPolicy covers trust-threshold failures, permission denial, and
	// admission saturation. Surfaced to the caller, never recovered.
	KindPolicy Kind = "policy"
	// KindTransient covers timeouts, contention, and communication failure.
	// Routed to the Recovery Manager.
	KindTransient Kind = "transient"
	// KindResource covers memory/CPU/connection exhaustion. Routed to the
	// Recovery Manager.
	KindResource Kind = "resource"
	// KindIntegrity covers verification failure, proof digest mismatch, and
	// checkpoint corruption. Forces the affected intent to failed and
	// triggers a checkpoint restore; never silently retried.
	KindIntegrity Kind = "integrity"
	// KindFatal covers unrecoverable invariant violations. Aborts the
	// coordinator cleanly.
	KindFatal Kind = "fatal"
)

// Error is a typed error with a subject entity id and a kind, per spec §7:
// "User-visible failure is always a typed error + textual message + subject
// id; error messages MUST NOT embed secrets."
type Error struct {
	Kind    Kind
	Subject string // entity id this error concerns (agent, intent, step, ...)
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Subject, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a typed error.
func New(kind Kind, subject, message string) *Error {
	return &Error{Kind: kind, Subject: subject, Message: message}
}

// Wrap builds a typed error around an existing cause.
func Wrap(kind Kind, subject, message string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err, walking the unwrap chain. Returns
// KindFatal (the conservative default) if err does not wrap a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindFatal
}

// Recoverable reports whether the propagation policy routes this error kind
// to the Recovery Manager (spec §7: Transient and Resource only).
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindResource:
		return true
	default:
		return false
	}
}

// Sentinel errors for common conditions, matched with errors.Is.
var (
	ErrSaturated       = New(KindPolicy, "", "coordinator is saturated")
	ErrUnobservable    = New(KindIntegrity, "", "claim could not be observed")
	ErrAgentUnknown    = New(KindInput, "", "unknown agent")
	ErrInvalidPlan     = New(KindInput, "", "invalid intent plan")
	ErrBoundsViolation = New(KindPolicy, "", "bounds violation")
	ErrPolicyDenied    = New(KindPolicy, "", "policy denied")
)

// Is supports errors.Is comparisons against the sentinels above by kind and
// message equality (sentinels carry no subject).
func (e *Error) Is(target error) bool {
	var se *Error
	if !errors.As(target, &se) {
		return false
	}
	return e.Kind == se.Kind && e.Message == se.Message
}
