// Package verify implements the Verifier (spec §4.4): independent
// re-observation of claims about command, filesystem, and network state,
// producing a VerificationReport with a deterministic, signable proof
// digest. The verifier never trusts an executor's self-report — every
// claim is checked against freshly-read world state.
package verify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

// ClaimKind tags the spec §4.4 "Claim kinds".
type ClaimKind string

const (
	ClaimCommand    ClaimKind = "command"
	ClaimFileSystem ClaimKind = "filesystem"
	ClaimNetwork    ClaimKind = "network"
	ClaimComposite  ClaimKind = "composite"
)

// Combinator aggregates confidence across a CompositeClaim's sub-claims.
type Combinator string

const (
	CombinatorAll  Combinator = "all"
	CombinatorAny  Combinator = "any"
	CombinatorKOfN Combinator = "k_of_n"
)

// FileExpectation is the FileSystemClaim.expected_state enum.
type FileExpectation string

const (
	FileExists         FileExpectation = "exists"
	FileAbsent         FileExpectation = "absent"
	FileContentDigest  FileExpectation = "content_digest"
	FileMode           FileExpectation = "mode"
)

// Claim is a tagged union over the four claim kinds. Only the fields
// relevant to Kind are read.
type Claim struct {
	Kind ClaimKind

	// CommandClaim
	Argv                []string
	ExpectedExitCode    int
	ExpectedStdoutMatch *regexp.Regexp
	CaptureStdout       bool

	// FileSystemClaim
	Path           string
	Expect         FileExpectation
	ExpectedDigest string // hex sha256, for FileContentDigest
	ExpectedMode   os.FileMode

	// NetworkClaim
	Endpoint          string
	ExpectedReachable bool

	// CompositeClaim
	Sub        []Claim
	Combinator Combinator
	K          int
}

// Observation is one piece of independently-gathered evidence.
type Observation struct {
	Kind    ClaimKind
	Summary string
	Match   bool
}

// Dialer is the narrow network-probe surface the verifier needs; satisfied
// by net.Dialer in production and a fake in tests.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) error
}

// Policy gates which claim kinds are actually re-observed and what
// confidence floor promotes a report to verified (spec §4.4 "Policy").
type Policy struct {
	VerifyCommands   bool
	VerifyFilesystem bool
	VerifyNetwork    bool
	GenerateProofs   bool
	MinConfidence    float64
}

func DefaultPolicy() Policy {
	return Policy{
		VerifyCommands:   true,
		VerifyFilesystem: true,
		VerifyNetwork:    true,
		GenerateProofs:   true,
		MinConfidence:    0.8,
	}
}

// Signer signs a proof digest with the verifying agent's key. Defined
// locally to avoid a hard dependency on package signing; satisfied by
// signing.KeyPair.Sign.
type Signer interface {
	Sign(digest []byte) ([]byte, error)
}

// VerificationReport is the spec §3 entity.
type VerificationReport struct {
	ClaimID     uuid.UUID
	Claim       Claim
	Observation []Observation
	Verified    bool
	Confidence  float64
	ProofDigest string
	Signature   []byte
	VerifierID  uuid.UUID
	Timestamp   time.Time
	Reason      string
}

// Verifier re-observes claims and issues signed, deterministic proofs.
type Verifier struct {
	id     uuid.UUID
	policy Policy
	signer Signer
	dialer Dialer
	runner func(ctx context.Context, argv []string) (exitCode int, stdout []byte, err error)
}

func New(id uuid.UUID, policy Policy, signer Signer, dialer Dialer) *Verifier {
	return &Verifier{
		id:     id,
		policy: policy,
		signer: signer,
		dialer: dialer,
		runner: runCommand,
	}
}

func runCommand(ctx context.Context, argv []string) (int, []byte, error) {
	if len(argv) == 0 {
		return -1, nil, swarmerr.New(swarmerr.KindInput, "", "empty command claim argv")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return -1, nil, err
		}
	}
	return exitCode, out.Bytes(), nil
}

// Verify produces a VerificationReport for claimID, independently
// re-observing the claim per spec §4.4.
func (v *Verifier) Verify(ctx context.Context, claimID uuid.UUID, claim Claim) (*VerificationReport, error) {
	obs, confidence, reason, err := v.observe(ctx, claim)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		ClaimID:     claimID,
		Claim:       claim,
		Observation: obs,
		Confidence:  confidence,
		VerifierID:  v.id,
		Timestamp:   time.Now(),
		Reason:      reason,
	}
	report.Verified = confidence >= v.policy.MinConfidence && reason == ""

	if v.policy.GenerateProofs {
		digest, err := ProofDigest(claim, obs, report.Verified, confidence, v.id, report.Timestamp)
		if err != nil {
			return nil, err
		}
		report.ProofDigest = digest
		if v.signer != nil {
			sig, err := v.signer.Sign([]byte(digest))
			if err != nil {
				return nil, swarmerr.Wrap(swarmerr.KindIntegrity, claimID.String(), "signing proof digest", err)
			}
			report.Signature = sig
		}
	}
	return report, nil
}

// observe independently re-reads world state for claim, returning raw
// observations and the aggregated confidence per spec §4.4.
func (v *Verifier) observe(ctx context.Context, claim Claim) ([]Observation, float64, string, error) {
	switch claim.Kind {
	case ClaimCommand:
		return v.observeCommand(ctx, claim)
	case ClaimFileSystem:
		return v.observeFileSystem(claim)
	case ClaimNetwork:
		return v.observeNetwork(ctx, claim)
	case ClaimComposite:
		return v.observeComposite(ctx, claim)
	default:
		return nil, 0, "Unobservable", swarmerr.New(swarmerr.KindInput, "", "unknown claim kind")
	}
}

func (v *Verifier) observeCommand(ctx context.Context, claim Claim) ([]Observation, float64, string, error) {
	if !v.policy.VerifyCommands {
		return nil, 0, "Unobservable", nil
	}
	exitCode, stdout, err := v.runner(ctx, claim.Argv)
	if err != nil {
		return nil, 0, "Unobservable", nil
	}
	match := exitCode == claim.ExpectedExitCode
	confidence := 1.0
	summary := "exit code matched"
	if !match {
		summary = "exit code mismatch"
	}
	stdoutCaptured := claim.CaptureStdout
	if claim.ExpectedStdoutMatch != nil {
		if !stdoutCaptured {
			confidence *= 0.7
		} else if !claim.ExpectedStdoutMatch.Match(stdout) {
			match = false
			summary = "stdout did not match expected pattern"
		}
	}
	if !match {
		confidence = 0
	}
	return []Observation{{Kind: ClaimCommand, Summary: summary, Match: match}}, confidence, "", nil
}

func (v *Verifier) observeFileSystem(claim Claim) ([]Observation, float64, string, error) {
	if !v.policy.VerifyFilesystem {
		return nil, 0, "Unobservable", nil
	}
	info, statErr := os.Stat(claim.Path)

	switch claim.Expect {
	case FileExists:
		match := statErr == nil
		return []Observation{{Kind: ClaimFileSystem, Summary: "stat", Match: match}}, boolConfidence(match), "", nil
	case FileAbsent:
		match := os.IsNotExist(statErr)
		return []Observation{{Kind: ClaimFileSystem, Summary: "stat", Match: match}}, boolConfidence(match), "", nil
	case FileMode:
		if statErr != nil {
			return []Observation{{Kind: ClaimFileSystem, Summary: "stat failed", Match: false}}, 0, "", nil
		}
		match := info.Mode().Perm() == claim.ExpectedMode.Perm()
		return []Observation{{Kind: ClaimFileSystem, Summary: "mode comparison", Match: match}}, boolConfidence(match), "", nil
	case FileContentDigest:
		if statErr != nil {
			return []Observation{{Kind: ClaimFileSystem, Summary: "stat failed", Match: false}}, 0, "", nil
		}
		content, err := os.ReadFile(claim.Path)
		if err != nil {
			return nil, 0, "Unobservable", nil
		}
		sum := sha256.Sum256(content)
		got := hex.EncodeToString(sum[:])
		match := got == claim.ExpectedDigest
		return []Observation{{Kind: ClaimFileSystem, Summary: "content digest comparison", Match: match}}, boolConfidence(match), "", nil
	default:
		return nil, 0, "Unobservable", swarmerr.New(swarmerr.KindInput, claim.Path, "unknown filesystem expectation")
	}
}

func (v *Verifier) observeNetwork(ctx context.Context, claim Claim) ([]Observation, float64, string, error) {
	if !v.policy.VerifyNetwork || v.dialer == nil {
		return nil, 0, "Unobservable", nil
	}
	err := v.dialer.DialContext(ctx, "tcp", claim.Endpoint)
	reachable := err == nil
	match := reachable == claim.ExpectedReachable
	return []Observation{{Kind: ClaimNetwork, Summary: "dial probe", Match: match}}, boolConfidence(match), "", nil
}

func (v *Verifier) observeComposite(ctx context.Context, claim Claim) ([]Observation, float64, string, error) {
	if len(claim.Sub) == 0 {
		return nil, 0, "Unobservable", swarmerr.New(swarmerr.KindInput, "", "composite claim has no sub-claims")
	}
	var all []Observation
	confidences := make([]float64, 0, len(claim.Sub))
	for _, sub := range claim.Sub {
		obs, conf, reason, err := v.observe(ctx, sub)
		if err != nil {
			return nil, 0, "", err
		}
		if reason != "" {
			conf = 0
		}
		all = append(all, obs...)
		confidences = append(confidences, conf)
	}
	return all, aggregate(claim.Combinator, claim.K, confidences), "", nil
}

// aggregate implements spec §4.4's combinator rule: all → min, any → max,
// k_of_n → the k-th highest confidence (rank).
func aggregate(combinator Combinator, k int, confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	switch combinator {
	case CombinatorAny:
		max := confidences[0]
		for _, c := range confidences[1:] {
			if c > max {
				max = c
			}
		}
		return max
	case CombinatorKOfN:
		sorted := append([]float64(nil), confidences...)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		if k < 1 {
			k = 1
		}
		if k > len(sorted) {
			k = len(sorted)
		}
		return sorted[k-1]
	case CombinatorAll:
		fallthrough
	default:
		min := confidences[0]
		for _, c := range confidences[1:] {
			if c < min {
				min = c
			}
		}
		return min
	}
}

func boolConfidence(match bool) float64 {
	if match {
		return 1.0
	}
	return 0.0
}

// canonicalProofInput is the exact tuple spec §4.4 requires to be hashed:
// (claim, observations, verified, confidence, verifier_id, timestamp).
// Field order and JSON tags are fixed, so re-marshaling the same inputs
// always produces the same bytes (json.Marshal on a struct, unlike on a
// map, preserves field declaration order).
type canonicalProofInput struct {
	Claim       Claim         `json:"claim"`
	Observation []Observation `json:"observation"`
	Verified    bool          `json:"verified"`
	Confidence  float64       `json:"confidence"`
	VerifierID  uuid.UUID     `json:"verifier_id"`
	Timestamp   int64         `json:"timestamp"` // unix nanos: avoids RFC3339 precision loss
}

// ProofDigest computes the deterministic, collision-resistant digest
// spec §4.4 mandates: identical (claim, observations, verified,
// confidence, verifier_id, timestamp) always yields an identical digest.
func ProofDigest(claim Claim, obs []Observation, verified bool, confidence float64, verifierID uuid.UUID, timestamp time.Time) (string, error) {
	input := canonicalProofInput{
		Claim:       claim,
		Observation: obs,
		Verified:    verified,
		Confidence:  confidence,
		VerifierID:  verifierID,
		Timestamp:   timestamp.UnixNano(),
	}
	encoded, err := json.Marshal(input)
	if err != nil {
		return "", swarmerr.Wrap(swarmerr.KindIntegrity, verifierID.String(), "encoding proof input", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
