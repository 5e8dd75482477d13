package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tecpd/internal/domain"
	"tecpd/internal/infra/merkle"
)

type VerifyOptions struct {
	// RequireProof turns a missing log_inclusion extension into a failure.
	RequireProof bool

	// Online asks the log for its current head after the offline inclusion
	// check. Strict treats log unavailability as a stage failure instead of
	// leaving the offline result standing.
	Online bool
	Strict bool
}

// VerifyReceipt runs the four-stage pipeline. Stateless over immutable
// inputs: concurrent Execute calls on the same receipt are idempotent and
// order-independent.
type VerifyReceipt struct {
	Crypto   CryptoService
	Clock    func() time.Time
	SigCache SignatureCache
	LogRoots domain.LogRootSource
}

func (uc *VerifyReceipt) Execute(ctx context.Context, receipt domain.FullReceipt) domain.VerificationResult {
	return uc.ExecuteWithOptions(ctx, receipt, VerifyOptions{})
}

func (uc *VerifyReceipt) ExecuteWithOptions(ctx context.Context, receipt domain.FullReceipt, opts VerifyOptions) domain.VerificationResult {
	start := time.Now()
	result := domain.NewVerificationResult()

	stageStart := time.Now()
	schemaErrs := checkSchema(receipt.Receipt)
	result.Performance["schema_ms"] = millisSince(stageStart)
	if len(schemaErrs) > 0 {
		// An unreliable shape makes the remaining stages meaningless; this
		// is the only stage that short-circuits.
		result.Details.Schema = domain.StatusInvalid
		result.Errors = append(result.Errors, schemaErrs...)
		result.Performance["total_ms"] = millisSince(start)
		return result
	}
	result.Details.Schema = domain.StatusOK

	stageStart = time.Now()
	tsErrs := uc.checkTimestamp(receipt.Receipt)
	result.Performance["timestamp_ms"] = millisSince(stageStart)
	if len(tsErrs) > 0 {
		result.Details.Timestamp = domain.StatusInvalid
		result.Errors = append(result.Errors, tsErrs...)
	} else {
		result.Details.Timestamp = domain.StatusOK
	}

	stageStart = time.Now()
	sigErrs := uc.checkSignature(ctx, receipt.Receipt)
	result.Performance["signature_ms"] = millisSince(stageStart)
	if len(sigErrs) > 0 {
		result.Details.Signature = domain.StatusInvalid
		result.Errors = append(result.Errors, sigErrs...)
	} else {
		result.Details.Signature = domain.StatusOK
	}

	stageStart = time.Now()
	logStatus, logErrs := uc.checkTransparencyLog(ctx, receipt, opts)
	result.Performance["transparency_log_ms"] = millisSince(stageStart)
	result.Details.TransparencyLog = logStatus
	result.Errors = append(result.Errors, logErrs...)

	result.Valid = result.Details.Schema == domain.StatusOK &&
		result.Details.Timestamp == domain.StatusOK &&
		result.Details.Signature == domain.StatusOK &&
		(result.Details.TransparencyLog == domain.StatusOK ||
			result.Details.TransparencyLog == domain.StatusNotChecked)
	result.Performance["total_ms"] = millisSince(start)
	return result
}

// ExecuteWire verifies a receipt from its wire bytes. An un-decodable
// payload is a caller error and surfaces as a hard failure; a well-formed
// object with wrong field types fails the schema stage instead.
func (uc *VerifyReceipt) ExecuteWire(ctx context.Context, payload []byte, opts VerifyOptions) (domain.VerificationResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return domain.VerificationResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedReceipt, err)
	}

	var receipt domain.FullReceipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		result := domain.NewVerificationResult()
		result.Details.Schema = domain.StatusInvalid
		result.Errors = append(result.Errors, domain.NewError("E-SCHEMA-002", ""))
		result.Performance["receipt_size_bytes"] = float64(len(payload))
		return result, nil
	}

	result := uc.ExecuteWithOptions(ctx, receipt, opts)
	result.Performance["receipt_size_bytes"] = float64(len(payload))
	return result, nil
}

func checkSchema(r domain.Receipt) []domain.VerificationError {
	var errs []domain.VerificationError

	required := []struct {
		field string
		value string
	}{
		{"version", r.Version},
		{"code_ref", r.CodeRef},
		{"nonce", r.Nonce},
		{"input_hash", r.InputHash},
		{"output_hash", r.OutputHash},
		{"sig", r.Sig},
		{"pubkey", r.Pubkey},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, domain.NewError("E-SCHEMA-001", f.field))
		}
	}
	if r.PolicyIDs == nil {
		errs = append(errs, domain.NewError("E-SCHEMA-001", "policy_ids"))
	}
	if r.TS <= 0 {
		errs = append(errs, domain.NewError("E-SCHEMA-002", "ts"))
	}
	if r.Version != "" && r.Version != domain.Version {
		errs = append(errs, domain.NewError("E-SCHEMA-004", "version"))
	}

	if r.Nonce != "" {
		if raw, err := base64.StdEncoding.DecodeString(r.Nonce); err != nil || len(raw) < domain.NonceSize {
			errs = append(errs, domain.NewError("E-SCHEMA-003", "nonce"))
		}
	}
	for _, f := range []struct {
		field string
		value string
	}{
		{"input_hash", r.InputHash},
		{"output_hash", r.OutputHash},
	} {
		if f.value == "" {
			continue
		}
		if raw, err := base64.StdEncoding.DecodeString(f.value); err != nil || len(raw) != domain.DigestSize {
			errs = append(errs, domain.NewError("E-SCHEMA-003", f.field))
		}
	}
	return errs
}

func (uc *VerifyReceipt) checkTimestamp(r domain.Receipt) []domain.VerificationError {
	clock := uc.Clock
	if clock == nil {
		clock = time.Now
	}
	now := clock().UnixMilli()
	delta := now - r.TS

	// Values exactly at either threshold are within tolerance.
	if delta > domain.MaxReceiptAgeMS {
		return []domain.VerificationError{domain.NewError("E-TS-003", "ts")}
	}
	if -delta > domain.MaxClockSkewMS {
		return []domain.VerificationError{domain.NewError("E-AGE-002", "ts")}
	}
	return nil
}

func (uc *VerifyReceipt) checkSignature(ctx context.Context, r domain.Receipt) []domain.VerificationError {
	canonical := uc.Crypto.CanonicalizeCore(r)

	var cacheKey string
	if uc.SigCache != nil {
		cacheKey = uc.sigCacheKey(canonical, r)
		if valid, ok, err := uc.SigCache.Get(ctx, cacheKey); err == nil && ok && valid {
			return nil
		}
	}

	err := uc.Crypto.VerifySignature(canonical, r.Sig, r.Pubkey)
	switch {
	case err == nil:
		if uc.SigCache != nil {
			_ = uc.SigCache.Put(ctx, cacheKey, true)
		}
		return nil
	case errors.Is(err, domain.ErrPublicKeyInvalid):
		return []domain.VerificationError{domain.NewError("E-SIG-003", "pubkey")}
	case errors.Is(err, domain.ErrSignatureEncoding):
		return []domain.VerificationError{domain.NewError("E-SIG-001", "sig")}
	default:
		return []domain.VerificationError{domain.NewError("E-SIG-002", "sig")}
	}
}

// Only positive outcomes are cached: a hit asserts "this exact canonical
// payload, signature, and key verified before", which cannot go stale.
func (uc *VerifyReceipt) sigCacheKey(canonical []byte, r domain.Receipt) string {
	payload := make([]byte, 0, len(canonical)+len(r.Sig)+len(r.Pubkey)+2)
	payload = append(payload, canonical...)
	payload = append(payload, '|')
	payload = append(payload, r.Sig...)
	payload = append(payload, '|')
	payload = append(payload, r.Pubkey...)
	return uc.Crypto.HashPayload(payload)
}

func (uc *VerifyReceipt) checkTransparencyLog(ctx context.Context, receipt domain.FullReceipt, opts VerifyOptions) (string, []domain.VerificationError) {
	li := receipt.Extensions.LogInclusion
	if li == nil {
		if opts.RequireProof {
			return domain.StatusInvalid, []domain.VerificationError{domain.NewError("E-LOG-001", "log_inclusion")}
		}
		return domain.StatusNotChecked, nil
	}

	leaf, err := uc.Crypto.ReceiptLeafHash(receipt.Receipt)
	if err != nil {
		return domain.StatusInvalid, []domain.VerificationError{domain.NewError("E-LOG-002", "log_inclusion")}
	}

	path := make([][]byte, 0, len(li.MerkleProof))
	for _, entry := range li.MerkleProof {
		raw, err := base64.StdEncoding.DecodeString(entry)
		if err != nil {
			return domain.StatusInvalid, []domain.VerificationError{domain.NewError("E-LOG-002", "merkle_proof")}
		}
		path = append(path, raw)
	}
	root, err := base64.StdEncoding.DecodeString(li.LogRoot)
	if err != nil {
		return domain.StatusInvalid, []domain.VerificationError{domain.NewError("E-LOG-002", "log_root")}
	}

	ok, err := merkle.VerifyInclusion(leaf, li.LeafIndex, path, root)
	if err != nil {
		return domain.StatusInvalid, []domain.VerificationError{domain.NewError("E-LOG-002", "merkle_proof")}
	}
	if !ok {
		return domain.StatusInvalid, []domain.VerificationError{domain.NewError("E-LOG-003", "log_root")}
	}

	if opts.Online && uc.LogRoots != nil {
		if _, err := uc.LogRoots.LatestRoot(ctx); err != nil {
			if opts.Strict {
				return domain.StatusInvalid, []domain.VerificationError{domain.NewError("E-LOG-004", "log_root")}
			}
			// Offline proof already verified; unavailability of the remote
			// head only degrades the confirmation, not the stage.
		}
	}
	return domain.StatusOK, nil
}

func millisSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
