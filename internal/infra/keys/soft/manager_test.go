package soft

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"tecpd/internal/config"
)

func TestNewManagerFromConfig_Base64Seed(t *testing.T) {
	seed := bytes.Repeat([]byte{0x11}, ed25519.SeedSize)
	cfg := config.Config{SigningPrivateKeyBase64: base64.StdEncoding.EncodeToString(seed)}

	mgr, err := NewManagerFromConfig(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	want := ed25519.NewKeyFromSeed(seed)
	if !mgr.PrivateKey().Equal(want) {
		t.Fatal("seed-derived key mismatch")
	}
}

func TestNewManagerFromConfig_Base64FullKey(t *testing.T) {
	full := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{0x22}, ed25519.SeedSize))
	cfg := config.Config{SigningPrivateKeyBase64: base64.StdEncoding.EncodeToString(full)}

	mgr, err := NewManagerFromConfig(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if !mgr.PrivateKey().Equal(full) {
		t.Fatal("full key mismatch")
	}
}

func TestNewManagerFromConfig_HexSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{0x33}, ed25519.SeedSize)
	cfg := config.Config{SigningPrivateKeySeedHex: hex.EncodeToString(seed)}

	mgr, err := NewManagerFromConfig(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if !mgr.PrivateKey().Equal(ed25519.NewKeyFromSeed(seed)) {
		t.Fatal("hex seed key mismatch")
	}
}

func TestNewManagerFromConfig_MissingKey(t *testing.T) {
	if _, err := NewManagerFromConfig(config.Config{}); err == nil {
		t.Fatal("expected error without key material")
	}
}

func TestNewManagerFromConfig_BadMaterialFallsThrough(t *testing.T) {
	cfg := config.Config{
		SigningPrivateKeyBase64:  "not base64 %%%",
		SigningPrivateKeySeedHex: "zzzz",
	}
	if _, err := NewManagerFromConfig(cfg); err == nil {
		t.Fatal("expected error for malformed key material")
	}
}

func TestGenerate(t *testing.T) {
	mgr, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(mgr.PrivateKey()) != ed25519.PrivateKeySize {
		t.Fatalf("private key length = %d", len(mgr.PrivateKey()))
	}
	if len(mgr.PublicKey()) != ed25519.PublicKeySize {
		t.Fatalf("public key length = %d", len(mgr.PublicKey()))
	}
}
