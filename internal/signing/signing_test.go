package signing

import (
	"path/filepath"
	"testing"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	msg := []byte("proof digest bytes")

	sig, err := kp.Sign(msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !Verify(kp.Public, msg, sig) {
		t.Error("expected signature to verify against the signer's own public key")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	sig, err := kp.Sign([]byte("original"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if Verify(kp.Public, []byte("tampered"), sig) {
		t.Error("expected verification to fail for a tampered message")
	}
}

func TestSaveAndLoadKeyPairRoundTrip(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "agent.pem")
	pubPath := filepath.Join(dir, "agent.pub")

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	if err := SavePrivateKey(privPath, kp); err != nil {
		t.Fatalf("SavePrivateKey failed: %v", err)
	}
	if err := SavePublicKey(pubPath, kp); err != nil {
		t.Fatalf("SavePublicKey failed: %v", err)
	}

	loaded, err := LoadKeyPair(privPath, pubPath)
	if err != nil {
		t.Fatalf("LoadKeyPair failed: %v", err)
	}

	sig, err := loaded.Sign([]byte("hello"))
	if err != nil {
		t.Fatalf("Sign with loaded key failed: %v", err)
	}
	if !Verify(loaded.Public, []byte("hello"), sig) {
		t.Error("expected a round-tripped key pair to sign/verify correctly")
	}
}

func TestLoadPublicKeyRejectsWrongPEMType(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "agent.pem")

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	if err := SavePrivateKey(privPath, kp); err != nil {
		t.Fatalf("SavePrivateKey failed: %v", err)
	}

	if _, err := LoadPublicKey(privPath); err == nil {
		t.Error("expected loading a private-key file as a public key to fail")
	}
}

func TestFingerprintIsStable(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	f1 := Fingerprint(kp.Public)
	f2 := Fingerprint(kp.Public)
	if f1 != f2 {
		t.Errorf("expected fingerprint to be stable, got %s and %s", f1, f2)
	}
	if len(f1) != 8 {
		t.Errorf("expected an 8-hex-char fingerprint, got %q", f1)
	}
}
