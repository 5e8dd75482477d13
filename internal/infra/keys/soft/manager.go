package soft

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"tecpd/internal/config"
	"tecpd/internal/domain"
)

// Manager holds the daemon's ed25519 signing key in memory. Key material is
// supplied by configuration; the core treats it as an opaque fixed-length
// buffer and never rotates it.
type Manager struct {
	privateKey ed25519.PrivateKey
}

func NewManagerFromConfig(cfg config.Config) (*Manager, error) {
	if key := readPrivateKeyBase64(cfg.SigningPrivateKeyBase64); key != nil {
		return &Manager{privateKey: key}, nil
	}
	if key := readPrivateKeyHex(cfg.SigningPrivateKeySeedHex); key != nil {
		return &Manager{privateKey: key}, nil
	}
	return nil, errors.New("signing key not configured")
}

// Generate creates an ephemeral manager with a fresh key pair.
func Generate() (*Manager, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Manager{privateKey: priv}, nil
}

func (m *Manager) PrivateKey() ed25519.PrivateKey {
	return m.privateKey
}

func (m *Manager) PublicKey() ed25519.PublicKey {
	return m.privateKey.Public().(ed25519.PublicKey)
}

func readPrivateKeyBase64(value string) ed25519.PrivateKey {
	if value == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	key, err := parsePrivateKey(raw)
	if err != nil {
		return nil
	}
	return key
}

func readPrivateKeyHex(value string) ed25519.PrivateKey {
	if value == "" {
		return nil
	}
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil
	}
	key, err := parsePrivateKey(raw)
	if err != nil {
		return nil
	}
	return key
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
