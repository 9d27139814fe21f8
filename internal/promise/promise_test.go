package promise

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/trust"
)

type fakeTrustUpdater struct {
	calls []call
}

type call struct {
	agent    uuid.UUID
	success  bool
	verified bool
}

func (f *fakeTrustUpdater) Update(agent uuid.UUID, success, verified bool) (trust.Score, error) {
	f.calls = append(f.calls, call{agent, success, verified})
	return trust.Score{}, nil
}

func TestDeclareAndAccept(t *testing.T) {
	body := Body{IntentID: uuid.New()}
	p := Declare(body, uuid.New(), uuid.New(), time.Now().Add(time.Hour))

	if p.State != StateDeclared {
		t.Fatalf("expected initial state declared, got %s", p.State)
	}
	if err := p.Accept(); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if p.State != StateActive {
		t.Errorf("expected state active, got %s", p.State)
	}
}

func TestDeclineBeforeAccept(t *testing.T) {
	p := Declare(Body{IntentID: uuid.New()}, uuid.New(), uuid.New(), time.Now().Add(time.Hour))

	if err := p.Decline(); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}
	if p.State != StateDeclined {
		t.Errorf("expected state declined, got %s", p.State)
	}
	if err := p.Accept(); err == nil {
		t.Error("expected Accept to fail on a declined promise")
	}
}

func TestFullLifecycleFulfilled(t *testing.T) {
	promiser := uuid.New()
	p := Declare(Body{IntentID: uuid.New()}, promiser, uuid.New(), time.Now().Add(time.Hour))
	updater := &fakeTrustUpdater{}

	if err := p.Accept(); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if p.State != StateFulfilling {
		t.Fatalf("expected state fulfilling, got %s", p.State)
	}
	if err := p.Fulfill(Evidence{Present: true, Confidence: 0.9}, updater); err != nil {
		t.Fatalf("Fulfill failed: %v", err)
	}
	if p.State != StateFulfilled {
		t.Errorf("expected state fulfilled, got %s", p.State)
	}
	if len(updater.calls) != 1 {
		t.Fatalf("expected exactly one trust update, got %d", len(updater.calls))
	}
	got := updater.calls[0]
	if got.agent != promiser || !got.success || !got.verified {
		t.Errorf("expected trust update(success=true, verified=true) for %s, got %+v", promiser, got)
	}
}

func TestBreakUpdatesTrustAsFailure(t *testing.T) {
	promiser := uuid.New()
	p := Declare(Body{IntentID: uuid.New()}, promiser, uuid.New(), time.Now().Add(time.Hour))
	updater := &fakeTrustUpdater{}
	p.Accept()

	if err := p.Break(updater); err != nil {
		t.Fatalf("Break failed: %v", err)
	}
	if p.State != StateBroken {
		t.Errorf("expected state broken, got %s", p.State)
	}
	if len(updater.calls) != 1 || updater.calls[0].success {
		t.Errorf("expected a failure trust update, got %+v", updater.calls)
	}
}

func TestCancelDoesNotUpdateTrust(t *testing.T) {
	p := Declare(Body{IntentID: uuid.New()}, uuid.New(), uuid.New(), time.Now().Add(time.Hour))
	updater := &fakeTrustUpdater{}
	p.Accept()

	if err := p.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if p.State != StateCancelled {
		t.Errorf("expected state cancelled, got %s", p.State)
	}
	if len(updater.calls) != 0 {
		t.Errorf("expected no trust update on cancel, got %+v", updater.calls)
	}
}

func TestTimeoutFromAnyNonTerminalState(t *testing.T) {
	promiser := uuid.New()
	p := Declare(Body{IntentID: uuid.New()}, promiser, uuid.New(), time.Now().Add(-time.Minute))
	updater := &fakeTrustUpdater{}
	p.Accept()
	p.Start()

	if err := p.Timeout(updater); err != nil {
		t.Fatalf("Timeout failed: %v", err)
	}
	if p.State != StateExpired {
		t.Errorf("expected state expired, got %s", p.State)
	}
	if len(updater.calls) != 1 || updater.calls[0].success {
		t.Errorf("expected a failure trust update on timeout, got %+v", updater.calls)
	}
}

func TestNoTerminalStateTransitionsToNonTerminal(t *testing.T) {
	p := Declare(Body{IntentID: uuid.New()}, uuid.New(), uuid.New(), time.Now().Add(time.Hour))
	p.Accept()
	p.Cancel()

	if err := p.Accept(); err == nil {
		t.Error("expected Accept on a cancelled promise to fail")
	}
	if err := p.Start(); err == nil {
		t.Error("expected Start on a cancelled promise to fail")
	}
	if err := p.Timeout(nil); err == nil {
		t.Error("expected Timeout on a cancelled (terminal) promise to fail")
	}
}

func TestNewFromImposition(t *testing.T) {
	imp := Imposition{
		Body:     Body{IntentID: uuid.New()},
		Promiser: uuid.New(),
		Promisee: uuid.New(),
		Deadline: time.Now().Add(time.Hour),
	}
	p := NewFromImposition(imp)
	if p.State != StateDeclared {
		t.Errorf("expected imposition to construct a promise in state declared, got %s", p.State)
	}
	if p.Promiser != imp.Promiser {
		t.Errorf("expected promiser %s, got %s", imp.Promiser, p.Promiser)
	}
}
