package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"tecpd/internal/domain"
)

func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

func ParseEd25519PublicKeyHex(value string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(value)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, domain.ErrPublicKeyInvalid
	}
	return ed25519.PublicKey(raw), nil
}

func ParseEd25519PublicKeyBase64(value string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, domain.ErrPublicKeyInvalid
	}
	return ed25519.PublicKey(raw), nil
}

// ParsePrivateKeyBase64 accepts either a 32-byte seed or a full 64-byte
// ed25519 private key, base64-encoded.
func ParsePrivateKeyBase64(value string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, domain.ErrInvalidPrivateKey
	}
	return parsePrivateKey(raw)
}

func ParsePrivateKeySeedHex(value string) (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, domain.ErrInvalidPrivateKey
	}
	return parsePrivateKey(raw)
}

func parsePrivateKey(raw []byte) (ed25519.PrivateKey, error) {
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, domain.ErrInvalidPrivateKey
	}
}
