package agentproto

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

// subjectPrefix is the NATS subject hierarchy root: swarm.<coordinator-
// id>.agent.<agent-id>.in (spec SPEC_FULL.md "domain stack addition").
// Each agent's inbox is its own subject, giving every agent a naturally
// bounded queue via the NATS client's own pending-message limit.
func subjectFor(coordinatorID, agentID uuid.UUID) string {
	return fmt.Sprintf("swarm.%s.agent.%s.in", coordinatorID, agentID)
}

// KeyResolver looks up a known agent's public key, used to verify
// incoming envelopes before they are handed to a subscriber.
type KeyResolver interface {
	PublicKey(agentID uuid.UUID) (ed25519.PublicKey, bool)
}

// Transport publishes and subscribes to agent-protocol envelopes over a
// NATS connection.
type Transport struct {
	conn          *nats.Conn
	coordinatorID uuid.UUID
	keys          KeyResolver
}

// MaxPendingMessages bounds each agent inbox subscription's pending
// message count — the concrete carrier for spec §5's "bounded inbox"
// backpressure requirement.
const MaxPendingMessages = 256

// Connect dials a NATS server and returns a Transport scoped to one
// coordinator instance.
func Connect(url string, coordinatorID uuid.UUID, keys KeyResolver) (*Transport, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindTransient, coordinatorID.String(), "connecting to NATS", err)
	}
	return &Transport{conn: conn, coordinatorID: coordinatorID, keys: keys}, nil
}

// Close closes the underlying NATS connection without draining it.
func (t *Transport) Close() {
	t.conn.Close()
}

// Send publishes env to its recipient's inbox subject.
func (t *Transport) Send(env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, env.From.String(), "marshaling envelope for send", err)
	}
	subject := subjectFor(t.coordinatorID, env.To)
	if err := t.conn.Publish(subject, data); err != nil {
		// An unreachable inbox (full queue, slow consumer drop) surfaces
		// as a publish or flush error; callers treat the recipient as
		// unreachable for admission purposes per spec §5.
		return swarmerr.Wrap(swarmerr.KindTransient, env.To.String(), "publishing envelope", err)
	}
	return nil
}

// Handler processes one verified, decoded envelope.
type Handler func(ctx context.Context, env *Envelope) error

// Subscribe listens on agentID's inbox subject, verifying every
// incoming envelope's signature against the sender's known public key
// before invoking handler. Envelopes that fail verification are
// dropped, never delivered (spec §6.1 "the coordinator rejects
// unsigned or incorrectly-signed messages").
func (t *Transport) Subscribe(ctx context.Context, agentID uuid.UUID, handler Handler) (*nats.Subscription, error) {
	subject := subjectFor(t.coordinatorID, agentID)
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return
		}
		if t.keys != nil {
			pub, ok := t.keys.PublicKey(env.From)
			if !ok || Verify(&env, pub) != nil {
				return
			}
		}
		_ = handler(ctx, &env)
	})
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindTransient, agentID.String(), "subscribing to inbox", err)
	}
	if err := sub.SetPendingLimits(MaxPendingMessages, -1); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindTransient, agentID.String(), "setting inbox pending limit", err)
	}
	return sub, nil
}
