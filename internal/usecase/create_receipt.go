package usecase

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"tecpd/internal/domain"
)

type CreateReceiptRequest struct {
	CodeRef    string
	InputData  []byte
	OutputData []byte
	PolicyIDs  []string
	Extensions *domain.ReceiptExtensions

	// Timestamp (unix ms) and Nonce (base64) override the clock and the
	// random source for deterministic issuance in tests. Zero values mean
	// "use the real ones".
	Timestamp int64
	Nonce     string
}

// CreateReceipt assembles and signs receipts. It holds no mutable state
// beyond the read-only key, so a single instance is safe for any number of
// concurrent Execute calls.
type CreateReceipt struct {
	Crypto     CryptoService
	PrivateKey ed25519.PrivateKey
	Clock      func() time.Time
	Rand       io.Reader
}

func (uc *CreateReceipt) Execute(ctx context.Context, req CreateReceiptRequest) (*domain.FullReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(uc.PrivateKey) != ed25519.PrivateKeySize {
		return nil, domain.ErrInvalidPrivateKey
	}
	if req.CodeRef == "" {
		return nil, errors.New("code_ref is required")
	}

	ts := req.Timestamp
	if ts == 0 {
		clock := uc.Clock
		if clock == nil {
			clock = time.Now
		}
		ts = clock().UnixMilli()
	}

	nonce := req.Nonce
	if nonce == "" {
		var err error
		nonce, err = uc.freshNonce()
		if err != nil {
			return nil, err
		}
	}

	// policy_ids is required on the wire even when empty; keep it non-nil
	// so it serializes as [] rather than null.
	policyIDs := make([]string, 0, len(req.PolicyIDs))
	policyIDs = append(policyIDs, req.PolicyIDs...)

	receipt := domain.Receipt{
		Version:    domain.Version,
		CodeRef:    req.CodeRef,
		TS:         ts,
		Nonce:      nonce,
		InputHash:  uc.Crypto.HashPayload(req.InputData),
		OutputHash: uc.Crypto.HashPayload(req.OutputData),
		PolicyIDs:  policyIDs,
	}

	canonical := uc.Crypto.CanonicalizeCore(receipt)
	receipt.Sig = uc.Crypto.Sign(uc.PrivateKey, canonical)
	receipt.Pubkey = base64.StdEncoding.EncodeToString(uc.PrivateKey.Public().(ed25519.PublicKey))

	full := &domain.FullReceipt{Receipt: receipt}
	if req.Extensions != nil {
		full.Extensions = *req.Extensions
	}

	wire, err := json.Marshal(full)
	if err != nil {
		return nil, err
	}
	if len(wire) > domain.MaxReceiptSizeBytes {
		return nil, domain.ErrReceiptTooLarge
	}
	return full, nil
}

func (uc *CreateReceipt) freshNonce() (string, error) {
	source := uc.Rand
	if source == nil {
		source = rand.Reader
	}
	raw := make([]byte, domain.NonceSize)
	if _, err := io.ReadFull(source, raw); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
