package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/latticeforge/swarm/internal/agentproto"
	"github.com/latticeforge/swarm/internal/signing"
	"github.com/latticeforge/swarm/internal/swarmerr"
)

// decodeEnvelope unmarshals a JSON-encoded agentproto.Envelope.
func decodeEnvelope(raw []byte) (*agentproto.Envelope, error) {
	var env agentproto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Run implements kong.Run for KeygenCmd.
func (c *KeygenCmd) Run() error {
	privPath := c.Output + ".pem"
	pubPath := c.Output + ".pub"

	if _, err := os.Stat(privPath); err == nil {
		return swarmerr.New(swarmerr.KindInput, privPath, "already exists")
	}
	if _, err := os.Stat(pubPath); err == nil {
		return swarmerr.New(swarmerr.KindInput, pubPath, "already exists")
	}

	kp, err := signing.GenerateKeyPair()
	if err != nil {
		return err
	}
	if err := signing.SavePrivateKey(privPath, kp); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, privPath, "saving private key", err)
	}
	if err := signing.SavePublicKey(pubPath, kp); err != nil {
		return swarmerr.Wrap(swarmerr.KindResource, pubPath, "saving public key", err)
	}

	fmt.Printf("generated key pair (fingerprint %s)\n", signing.Fingerprint(kp.Public))
	fmt.Printf("  private key: %s (keep secret!)\n", privPath)
	fmt.Printf("  public key:  %s\n", pubPath)
	return nil
}

// Run implements kong.Run for VerifyCmd: loads a JSON-encoded
// agentproto.Envelope and checks its signature against the given
// public key, rather than a teacher-style package artifact (this
// runtime's only signed artifacts are protocol messages and verifier
// proofs).
func (c *VerifyCmd) Run() error {
	raw, err := os.ReadFile(c.Envelope)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, c.Envelope, "reading envelope", err)
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindInput, c.Envelope, "decoding envelope", err)
	}

	pub, err := signing.LoadPublicKey(c.Key)
	if err != nil {
		return err
	}

	if err := agentproto.Verify(env, ed25519.PublicKey(pub)); err != nil {
		return err
	}
	fmt.Printf("envelope %s verified: %s from %s\n", env.ID, env.Kind, env.From)
	return nil
}
