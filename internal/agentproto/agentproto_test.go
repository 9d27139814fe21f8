package agentproto

import (
	"testing"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/signing"
)

func TestBuildProducesVerifiableEnvelope(t *testing.T) {
	kp, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	from, to := uuid.New(), uuid.New()

	env, err := Build(kp, from, to, nil, KindTaskRequest, TaskRequestPayload{IntentSummary: "deploy service"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if env.Version != EnvelopeVersion {
		t.Errorf("expected version %d, got %d", EnvelopeVersion, env.Version)
	}
	if err := Verify(env, kp.Public); err != nil {
		t.Errorf("expected a freshly built envelope to verify, got %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	kp, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	env, err := Build(kp, uuid.New(), uuid.New(), nil, KindStepReport, StepReportPayload{Observation: "ok"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	env.Payload = []byte(`{"step_id":"00000000-0000-0000-0000-000000000000","observation":"tampered"}`)
	if err := Verify(env, kp.Public); err == nil {
		t.Error("expected verification to fail once the payload is tampered with after signing")
	}
}

func TestVerifyRejectsUnsignedEnvelope(t *testing.T) {
	kp, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	env, err := Build(kp, uuid.New(), uuid.New(), nil, KindHeartbeat, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	env.Signature = nil

	if err := Verify(env, kp.Public); err == nil {
		t.Error("expected an unsigned envelope to be rejected")
	}
}

func TestVerifyRejectsWrongSenderKey(t *testing.T) {
	kp, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	impostor, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	env, err := Build(kp, uuid.New(), uuid.New(), nil, KindCancel, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if err := Verify(env, impostor.Public); err == nil {
		t.Error("expected verification against the wrong public key to fail")
	}
}

func TestDecodeRoundTripsPayload(t *testing.T) {
	kp, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	stepID := uuid.New()
	env, err := Build(kp, uuid.New(), uuid.New(), nil, KindStepReport, StepReportPayload{StepID: stepID, Observation: "file written"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var payload StepReportPayload
	if err := Decode(env, &payload); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload.StepID != stepID || payload.Observation != "file written" {
		t.Errorf("unexpected decoded payload: %+v", payload)
	}
}

func TestBuildCarriesCorrelationID(t *testing.T) {
	kp, err := signing.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	corr := uuid.New()
	env, err := Build(kp, uuid.New(), uuid.New(), &corr, KindVerificationReport, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if env.CorrelationID == nil || *env.CorrelationID != corr {
		t.Errorf("expected correlation id %s to be carried, got %+v", corr, env.CorrelationID)
	}
}

func TestSubjectForIsPerAgentAndPerCoordinator(t *testing.T) {
	coord := uuid.New()
	a1, a2 := uuid.New(), uuid.New()
	if subjectFor(coord, a1) == subjectFor(coord, a2) {
		t.Error("expected distinct agents to get distinct inbox subjects")
	}
}
