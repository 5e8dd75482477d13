// Package attest is the client-facing surface of the receipt protocol:
// issue a receipt with a private key, verify one with nothing but its bytes.
// It needs no daemon, no network, and no shared state.
package attest

import (
	"context"
	"crypto/ed25519"

	"tecpd/internal/domain"
	cryptoinfra "tecpd/internal/infra/crypto"
	"tecpd/internal/usecase"
)

// Receipt aliases the wire type so callers do not import internal packages.
type Receipt = domain.FullReceipt

type Extensions = domain.ReceiptExtensions

type Result = domain.VerificationResult

type SignRequest struct {
	CodeRef    string
	InputData  []byte
	OutputData []byte
	PolicyIDs  []string
	Extensions *Extensions

	// Timestamp (unix ms) and Nonce (base64) are optional overrides for
	// deterministic issuance.
	Timestamp int64
	Nonce     string
}

type VerifyOptions struct {
	RequireProof bool
}

func Sign(ctx context.Context, req SignRequest, privateKey ed25519.PrivateKey) (*Receipt, error) {
	uc := &usecase.CreateReceipt{
		Crypto:     cryptoinfra.NewService(),
		PrivateKey: privateKey,
	}
	return uc.Execute(ctx, usecase.CreateReceiptRequest{
		CodeRef:    req.CodeRef,
		InputData:  req.InputData,
		OutputData: req.OutputData,
		PolicyIDs:  req.PolicyIDs,
		Extensions: req.Extensions,
		Timestamp:  req.Timestamp,
		Nonce:      req.Nonce,
	})
}

func Verify(ctx context.Context, receipt Receipt, opts VerifyOptions) Result {
	uc := &usecase.VerifyReceipt{Crypto: cryptoinfra.NewService()}
	return uc.ExecuteWithOptions(ctx, receipt, usecase.VerifyOptions{
		RequireProof: opts.RequireProof,
	})
}

// VerifyWire verifies a receipt straight from its wire bytes. The error is
// non-nil only for an un-decodable payload; protocol failures land in the
// result's errors.
func VerifyWire(ctx context.Context, payload []byte, opts VerifyOptions) (Result, error) {
	uc := &usecase.VerifyReceipt{Crypto: cryptoinfra.NewService()}
	return uc.ExecuteWire(ctx, payload, usecase.VerifyOptions{
		RequireProof: opts.RequireProof,
	})
}
