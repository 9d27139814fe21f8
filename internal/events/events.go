// Package events implements the Metrics/Event Emitter (spec §4.8,
// §6.3): an append-only, monotonically sequenced event log plus an OTel
// counter mirroring each event for live observability. The log
// is the forensic record; OTel is a live view derived from it, never
// the other way around.
package events

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

// Kind is the Event.kind enum (spec §3 Event).
type Kind string

const (
	KindTrustUpdate       Kind = "trust_update"
	KindIntentDeclared    Kind = "intent_declared"
	KindIntentTransition  Kind = "intent_transition"
	KindStepTransition    Kind = "step_transition"
	KindPromiseTransition Kind = "promise_transition"
	KindVerification      Kind = "verification"
	KindRecoveryAttempt   Kind = "recovery_attempt"
	KindCheckpoint        Kind = "checkpoint"
	KindMessage           Kind = "message"
)

// Event is the spec §3 append-only entity, with the (seq, incarnation_id)
// tie-break spec §6.3 requires across restarts.
type Event struct {
	Seq           uint64    `json:"seq"`
	IncarnationID string    `json:"incarnation_id"`
	Timestamp     time.Time `json:"timestamp"`
	Subject       string    `json:"subject"`
	Kind          Kind      `json:"kind"`
	Payload       any       `json:"payload,omitempty"`
}

// Log is an append-only event log with a monotonic per-incarnation
// sequence counter, mirrored to an OTel counter as each event is
// emitted; no spans are recorded.
type Log struct {
	mu            sync.Mutex
	seq           uint64
	incarnationID string
	file          *os.File
	writer        *bufio.Writer
	counter       metric.Int64Counter
}

// Open creates or appends to the JSONL event log at path, generating a
// fresh incarnation id for this process run (spec §6.3 "seq monotonic
// per incarnation").
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, path, "creating event log directory", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, path, "opening event log", err)
	}

	incarnation, err := newIncarnationID()
	if err != nil {
		f.Close()
		return nil, err
	}

	meter := otel.Meter("swarm/events")
	counter, err := meter.Int64Counter("swarm_events_total")
	if err != nil {
		f.Close()
		return nil, swarmerr.Wrap(swarmerr.KindFatal, path, "creating otel counter", err)
	}

	return &Log{
		incarnationID: incarnation,
		file:          f,
		writer:        bufio.NewWriter(f),
		counter:       counter,
	}, nil
}

func newIncarnationID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", swarmerr.Wrap(swarmerr.KindFatal, "", "generating incarnation id", err)
	}
	return hex.EncodeToString(buf), nil
}

// Emit appends an event, assigning it the next sequence number, and
// mirrors it to an OTel counter tagged by subject and kind.
func (l *Log) Emit(ctx context.Context, subject string, kind Kind, payload any) (Event, error) {
	l.mu.Lock()
	l.seq++
	ev := Event{
		Seq:           l.seq,
		IncarnationID: l.incarnationID,
		Timestamp:     time.Now(),
		Subject:       subject,
		Kind:          kind,
		Payload:       payload,
	}
	err := l.appendLocked(ev)
	l.mu.Unlock()
	if err != nil {
		return Event{}, err
	}

	if l.counter != nil {
		l.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("subject", subject),
			attribute.String("kind", string(kind)),
		))
	}
	return ev, nil
}

func (l *Log) appendLocked(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindIntegrity, ev.Subject, "encoding event", err)
	}
	if _, err := l.writer.Write(data); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, ev.Subject, "writing event", err)
	}
	if err := l.writer.WriteByte('\n'); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, ev.Subject, "writing event", err)
	}
	return l.writer.Flush()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, "", "flushing event log", err)
	}
	return l.file.Close()
}

// CurrentSeq returns the last assigned sequence number.
func (l *Log) CurrentSeq() uint64 {
	return atomic.LoadUint64(&l.seq)
}

// IncarnationID returns this Log's generated incarnation id.
func (l *Log) IncarnationID() string {
	return l.incarnationID
}

// ReadAll replays every event persisted at path, in file order. Readers
// that need cross-restart ordering compare (IncarnationID, Seq) rather
// than Seq alone, since Seq restarts at each incarnation (spec §6.3).
func ReadAll(path string) ([]Event, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, path, "opening event log", err)
	}
	defer f.Close()

	var out []Event
	scanner := bufio.NewReader(f)
	for {
		line, readErr := scanner.ReadBytes('\n')
		if len(line) > 0 {
			var ev Event
			if err := json.Unmarshal(line, &ev); err != nil {
				return nil, swarmerr.Wrap(swarmerr.KindIntegrity, path, "decoding event", err)
			}
			out = append(out, ev)
		}
		if readErr != nil {
			break
		}
	}
	return out, nil
}
