package domain

import "context"

// PolicyInput is what the registry collaborator sees: the identifiers
// exactly as carried in the receipt, plus a summary of what verification
// established. The pipeline itself never interprets policy IDs.
type PolicyInput struct {
	PolicyIDs    []string      `json:"policy_ids"`
	Verification PolicySummary `json:"verification"`
}

type PolicySummary struct {
	Valid          bool `json:"valid"`
	SignatureValid bool `json:"signature_valid"`
	LogIncluded    bool `json:"log_included"`
}

// PolicyDecision carries the registry's verdict. Denials reuse the shared
// E-POLICY-* codes from the protocol error table.
type PolicyDecision struct {
	Allowed    bool                `json:"allowed"`
	Denials    []VerificationError `json:"denials,omitempty"`
	BundleID   string              `json:"bundle_id,omitempty"`
	BundleHash string              `json:"bundle_hash,omitempty"`
}

type PolicyRegistry interface {
	Evaluate(ctx context.Context, input PolicyInput) (PolicyDecision, error)
}
