package verify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeSigner struct {
	signed []byte
}

func (f *fakeSigner) Sign(digest []byte) ([]byte, error) {
	f.signed = append([]byte(nil), digest...)
	return []byte("sig:" + string(digest)), nil
}

type fakeDialer struct {
	fail bool
}

func (f fakeDialer) DialContext(ctx context.Context, network, address string) error {
	if f.fail {
		return os.ErrDeadlineExceeded
	}
	return nil
}

func fixedRunner(exitCode int, stdout []byte) func(ctx context.Context, argv []string) (int, []byte, error) {
	return func(ctx context.Context, argv []string) (int, []byte, error) {
		return exitCode, stdout, nil
	}
}

func TestVerifyCommandClaimMatch(t *testing.T) {
	v := New(uuid.New(), DefaultPolicy(), nil, nil)
	v.runner = fixedRunner(0, []byte("hello"))

	claim := Claim{Kind: ClaimCommand, Argv: []string{"echo", "hello"}, ExpectedExitCode: 0}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.Verified {
		t.Errorf("expected verified=true, got report=%+v", report)
	}
	if report.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", report.Confidence)
	}
}

func TestVerifyCommandClaimExitCodeMismatch(t *testing.T) {
	v := New(uuid.New(), DefaultPolicy(), nil, nil)
	v.runner = fixedRunner(1, nil)

	claim := Claim{Kind: ClaimCommand, Argv: []string{"false"}, ExpectedExitCode: 0}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Verified {
		t.Error("expected verified=false on exit code mismatch")
	}
	if report.Confidence != 0 {
		t.Errorf("expected confidence 0, got %f", report.Confidence)
	}
}

func TestVerifyCommandClaimStdoutNotCapturedReducesConfidence(t *testing.T) {
	v := New(uuid.New(), DefaultPolicy(), nil, nil)
	v.runner = fixedRunner(0, nil)

	claim := Claim{
		Kind:                ClaimCommand,
		Argv:                []string{"echo", "hi"},
		ExpectedExitCode:    0,
		ExpectedStdoutMatch: regexp.MustCompile("hi"),
		CaptureStdout:       false,
	}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7 for uncaptured stdout, got %f", report.Confidence)
	}
	if report.Verified {
		t.Error("expected verified=false since 0.7 < default min_confidence 0.8")
	}
}

func TestVerifyFileSystemClaimExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marker")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("writing marker: %v", err)
	}

	v := New(uuid.New(), DefaultPolicy(), nil, nil)
	claim := Claim{Kind: ClaimFileSystem, Path: path, Expect: FileExists}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.Verified {
		t.Errorf("expected file-exists claim to verify, got %+v", report)
	}
}

func TestVerifyFileSystemClaimContentDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content")
	content := []byte("swarm payload")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing content: %v", err)
	}
	sum := sha256.Sum256(content)

	v := New(uuid.New(), DefaultPolicy(), nil, nil)
	claim := Claim{Kind: ClaimFileSystem, Path: path, Expect: FileContentDigest, ExpectedDigest: hex.EncodeToString(sum[:])}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.Verified {
		t.Errorf("expected content digest claim to verify, got %+v", report)
	}
}

func TestVerifyUnobservableWhenPolicyDisabled(t *testing.T) {
	policy := DefaultPolicy()
	policy.VerifyFilesystem = false

	v := New(uuid.New(), policy, nil, nil)
	claim := Claim{Kind: ClaimFileSystem, Path: "/nonexistent", Expect: FileExists}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Verified || report.Reason != "Unobservable" {
		t.Errorf("expected unobservable report, got %+v", report)
	}
	if report.Confidence != 0 {
		t.Errorf("expected confidence 0 for unobservable claim, got %f", report.Confidence)
	}
}

func TestAggregateAllTakesMinimum(t *testing.T) {
	got := aggregate(CombinatorAll, 0, []float64{1.0, 0.5, 0.9})
	if got != 0.5 {
		t.Errorf("expected min 0.5, got %f", got)
	}
}

func TestAggregateAnyTakesMaximum(t *testing.T) {
	got := aggregate(CombinatorAny, 0, []float64{0.2, 0.9, 0.1})
	if got != 0.9 {
		t.Errorf("expected max 0.9, got %f", got)
	}
}

func TestAggregateKOfNTakesRank(t *testing.T) {
	got := aggregate(CombinatorKOfN, 2, []float64{0.1, 0.9, 0.5, 0.3})
	if got != 0.5 {
		t.Errorf("expected 2nd-highest 0.5, got %f", got)
	}
}

func TestVerifyCompositeAllRequiresEverySubClaim(t *testing.T) {
	v := New(uuid.New(), DefaultPolicy(), nil, nil)
	v.runner = fixedRunner(0, nil)

	dir := t.TempDir()
	path := filepath.Join(dir, "marker")
	os.WriteFile(path, []byte("x"), 0644)

	claim := Claim{
		Kind:       ClaimComposite,
		Combinator: CombinatorAll,
		Sub: []Claim{
			{Kind: ClaimCommand, Argv: []string{"true"}, ExpectedExitCode: 0},
			{Kind: ClaimFileSystem, Path: path, Expect: FileExists},
		},
	}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.Verified {
		t.Errorf("expected composite all-claim to verify, got %+v", report)
	}
}

func TestProofDigestDeterministic(t *testing.T) {
	claim := Claim{Kind: ClaimCommand, Argv: []string{"echo"}, ExpectedExitCode: 0}
	obs := []Observation{{Kind: ClaimCommand, Summary: "exit code matched", Match: true}}
	verifierID := uuid.New()
	ts := time.Now()

	d1, err := ProofDigest(claim, obs, true, 1.0, verifierID, ts)
	if err != nil {
		t.Fatalf("ProofDigest failed: %v", err)
	}
	d2, err := ProofDigest(claim, obs, true, 1.0, verifierID, ts)
	if err != nil {
		t.Fatalf("ProofDigest failed: %v", err)
	}
	if d1 != d2 {
		t.Errorf("expected identical inputs to produce identical digests, got %s != %s", d1, d2)
	}

	d3, _ := ProofDigest(claim, obs, false, 1.0, verifierID, ts)
	if d1 == d3 {
		t.Error("expected a different verified flag to change the digest")
	}
}

func TestVerifySignsProofWhenSignerProvided(t *testing.T) {
	signer := &fakeSigner{}
	v := New(uuid.New(), DefaultPolicy(), signer, nil)
	v.runner = fixedRunner(0, nil)

	claim := Claim{Kind: ClaimCommand, Argv: []string{"true"}, ExpectedExitCode: 0}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !bytes.Equal(signer.signed, []byte(report.ProofDigest)) {
		t.Errorf("expected signer to be invoked with the proof digest")
	}
	if len(report.Signature) == 0 {
		t.Error("expected a non-empty signature on the report")
	}
}

func TestVerifyNetworkClaim(t *testing.T) {
	v := New(uuid.New(), DefaultPolicy(), nil, fakeDialer{fail: false})
	claim := Claim{Kind: ClaimNetwork, Endpoint: "example.com:443", ExpectedReachable: true}
	report, err := v.Verify(context.Background(), uuid.New(), claim)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.Verified {
		t.Errorf("expected reachable network claim to verify, got %+v", report)
	}
}
