// Package agentproto implements the Agent Protocol wire envelope (spec
// §6.1): a signed JSON message exchanged between the coordinator and
// its agents, plus a NATS transport that carries it over a per-agent
// subject hierarchy.
package agentproto

import (
	"crypto/ed25519"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/signing"
	"github.com/latticeforge/swarm/internal/swarmerr"
)

// Kind is the spec §6.1 MessageKind enum.
type Kind string

const (
	KindTaskRequest         Kind = "TaskRequest"
	KindTaskAccept          Kind = "TaskAccept"
	KindTaskReject          Kind = "TaskReject"
	KindStepReport          Kind = "StepReport"
	KindVerificationRequest Kind = "VerificationRequest"
	KindVerificationReport  Kind = "VerificationReport"
	KindHeartbeat           Kind = "Heartbeat"
	KindCancel              Kind = "Cancel"
)

// EnvelopeVersion is the wire version every Envelope carries.
const EnvelopeVersion = 1

// Envelope is the spec §6.1 message envelope. Payload is carried as raw
// JSON so a receiver can dispatch on Kind before unmarshaling it into a
// kind-specific struct.
type Envelope struct {
	Version       int             `json:"version"`
	ID            uuid.UUID       `json:"id"`
	CorrelationID *uuid.UUID      `json:"correlation_id,omitempty"`
	From          uuid.UUID       `json:"from"`
	To            uuid.UUID       `json:"to"`
	Kind          Kind            `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
	Signature     []byte          `json:"signature"`
}

// TaskRequestPayload is the TaskRequest payload (coordinator -> agent).
type TaskRequestPayload struct {
	IntentSummary string    `json:"intent_summary"`
	Deadline      time.Time `json:"deadline"`
}

// TaskRejectPayload is the TaskReject payload (agent -> coordinator).
type TaskRejectPayload struct {
	Reason string `json:"reason"`
}

// StepReportPayload is the StepReport payload (agent -> coordinator).
type StepReportPayload struct {
	StepID      uuid.UUID `json:"step_id"`
	Observation string    `json:"observation"`
}

// Build constructs a signed Envelope. payload is marshaled to JSON, and
// the signature covers the (unsigned) envelope's canonical bytes so a
// receiver can verify authenticity before trusting From.
func Build(signer *signing.KeyPair, from, to uuid.UUID, correlationID *uuid.UUID, kind Kind, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindInput, from.String(), "marshaling envelope payload", err)
	}

	env := &Envelope{
		Version:       EnvelopeVersion,
		ID:            uuid.New(),
		CorrelationID: correlationID,
		From:          from,
		To:            to,
		Kind:          kind,
		Payload:       raw,
	}

	digest, err := signableBytes(env)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(digest)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindFatal, from.String(), "signing envelope", err)
	}
	env.Signature = sig
	return env, nil
}

// Verify checks an Envelope's signature against the claimed sender's
// public key. The coordinator rejects unsigned or incorrectly-signed
// messages per spec §6.1.
func Verify(env *Envelope, senderPublicKey ed25519.PublicKey) error {
	if len(env.Signature) == 0 {
		return swarmerr.New(swarmerr.KindPolicy, env.From.String(), "envelope is unsigned")
	}
	sig := env.Signature
	unsigned := *env
	unsigned.Signature = nil
	digest, err := signableBytes(&unsigned)
	if err != nil {
		return err
	}
	if !signing.Verify(senderPublicKey, digest, sig) {
		return swarmerr.New(swarmerr.KindPolicy, env.From.String(), "envelope signature does not verify")
	}
	return nil
}

// signableBytes returns the canonical bytes an envelope's signature
// covers: the envelope with its own Signature field zeroed, so signing
// never has to know its own output in advance.
func signableBytes(env *Envelope) ([]byte, error) {
	clone := *env
	clone.Signature = nil
	b, err := json.Marshal(clone)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindInput, env.From.String(), "marshaling envelope for signing", err)
	}
	return b, nil
}

// Decode unmarshals env.Payload into v.
func Decode(env *Envelope, v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, env.From.String(), "decoding envelope payload", err)
	}
	return nil
}
