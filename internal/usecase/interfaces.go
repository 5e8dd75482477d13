package usecase

import (
	"context"
	"crypto/ed25519"

	"tecpd/internal/domain"
)

type CryptoService interface {
	HashPayload(data []byte) string
	CanonicalizeCore(r domain.Receipt) []byte
	Sign(privateKey ed25519.PrivateKey, canonical []byte) string
	VerifySignature(canonical []byte, sigB64, pubkeyB64 string) error
	ReceiptLeafHash(r domain.Receipt) ([]byte, error)
}

// SignatureCache memoizes the signature stage only. That stage is a pure
// function of the receipt bytes, so its outcome may be reused; timestamp
// evaluation is always against the current clock and is never cached.
type SignatureCache interface {
	Get(ctx context.Context, key string) (bool, bool, error)
	Put(ctx context.Context, key string, valid bool) error
}
