// Package signing provides Ed25519 key generation and message
// signing/verification, grounding the per-agent signatures spec §6.1
// requires on every agent-protocol message and the verifier proof
// signatures spec §4.4's domain-stack addition requires. It replaces
// the teacher's `internal/packaging` (a package-signing helper that was
// referenced from cmd/agent/{keygen,verify,pack}.go but never retrieved
// into this pack) with the same key-file conventions under a narrower,
// message-signing-only surface.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/pem"
	"os"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

const (
	privateKeyPEMType = "SWARM PRIVATE KEY"
	publicKeyPEMType  = "SWARM PUBLIC KEY"
)

// KeyPair holds an agent's Ed25519 signing identity.
type KeyPair struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh Ed25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindFatal, "", "generating ed25519 key pair", err)
	}
	return &KeyPair{Public: pub, private: priv}, nil
}

// Sign implements verify.Signer: it signs digest (already hex-encoded
// or raw bytes, the caller's choice — the signature covers exactly the
// bytes given) with the pair's private key.
func (k *KeyPair) Sign(digest []byte) ([]byte, error) {
	if k.private == nil {
		return nil, swarmerr.New(swarmerr.KindInput, "", "key pair has no private key loaded")
	}
	return ed25519.Sign(k.private, digest), nil
}

// Verify checks sig over message against a public key.
func Verify(pub ed25519.PublicKey, message, sig []byte) bool {
	return ed25519.Verify(pub, message, sig)
}

// SavePrivateKey PEM-encodes and writes priv to path with 0600
// permissions (private keys are never group/world readable).
func SavePrivateKey(path string, k *KeyPair) error {
	block := &pem.Block{Type: privateKeyPEMType, Bytes: k.private}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0600)
}

// SavePublicKey PEM-encodes and writes the public half of k to path.
func SavePublicKey(path string, k *KeyPair) error {
	block := &pem.Block{Type: publicKeyPEMType, Bytes: k.Public}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0644)
}

// LoadKeyPair reads both halves of a key pair back from disk.
func LoadKeyPair(privPath, pubPath string) (*KeyPair, error) {
	privBytes, err := os.ReadFile(privPath)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, privPath, "reading private key", err)
	}
	privBlock, _ := pem.Decode(privBytes)
	if privBlock == nil || privBlock.Type != privateKeyPEMType {
		return nil, swarmerr.New(swarmerr.KindIntegrity, privPath, "not a valid swarm private key file")
	}

	pub, err := LoadPublicKey(pubPath)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		Public:  pub,
		private: ed25519.PrivateKey(privBlock.Bytes),
	}, nil
}

// LoadPublicKey reads a public key back from disk.
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindResource, path, "reading public key", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != publicKeyPEMType {
		return nil, swarmerr.New(swarmerr.KindIntegrity, path, "not a valid swarm public key file")
	}
	return ed25519.PublicKey(block.Bytes), nil
}

// Fingerprint returns a short hex identifier for a public key, suitable
// for logging without dumping the full key.
func Fingerprint(pub ed25519.PublicKey) string {
	if len(pub) < 4 {
		return hex.EncodeToString(pub)
	}
	return hex.EncodeToString(pub[:4])
}
