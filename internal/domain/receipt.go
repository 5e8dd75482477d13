package domain

import "encoding/json"

// Receipt carries the signed core fields. All fields except Sig and Pubkey
// are part of the canonical signing payload; Sig is the ed25519 signature
// over that payload and Pubkey the verification key, both base64.
type Receipt struct {
	Version    string   `json:"version"`
	CodeRef    string   `json:"code_ref"`
	TS         int64    `json:"ts"`
	Nonce      string   `json:"nonce"`
	InputHash  string   `json:"input_hash"`
	OutputHash string   `json:"output_hash"`
	PolicyIDs  []string `json:"policy_ids"`
	Sig        string   `json:"sig"`
	Pubkey     string   `json:"pubkey"`
}

type KeyErasureScheme string

const (
	KeyErasureCounterSealTEE KeyErasureScheme = "counter+seal@tee"
	KeyErasureSoftwareSim    KeyErasureScheme = "sw-sim"
)

// Valid reports whether s is one of the defined erasure schemes.
func (s KeyErasureScheme) Valid() bool {
	switch s {
	case KeyErasureCounterSealTEE, KeyErasureSoftwareSim:
		return true
	}
	return false
}

type KeyErasureProof struct {
	Scheme   KeyErasureScheme `json:"scheme"`
	Evidence string           `json:"evidence"`
}

type Environment struct {
	Region   string `json:"region,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// LogInclusion proves membership in a transparency log. MerkleProof holds
// base64 sibling hashes in leaf-to-root order; LeafIndex's bit pattern
// decides left/right at each level.
type LogInclusion struct {
	LeafIndex   int64    `json:"leaf_index"`
	MerkleProof []string `json:"merkle_proof"`
	LogRoot     string   `json:"log_root"`
}

// ReceiptExtensions are unsigned and may be attached after signing without
// invalidating Sig.
type ReceiptExtensions struct {
	KeyErasure   *KeyErasureProof `json:"key_erasure,omitempty"`
	Environment  *Environment     `json:"environment,omitempty"`
	LogInclusion *LogInclusion    `json:"log_inclusion,omitempty"`
}

func (e ReceiptExtensions) Empty() bool {
	return e.KeyErasure == nil && e.Environment == nil && e.LogInclusion == nil
}

// FullReceipt is the wire object: core fields and extension fields flattened
// into a single JSON document. The signed/unsigned boundary stays explicit at
// the type level and is merged only here, at the serialization edge.
type FullReceipt struct {
	Receipt
	Extensions ReceiptExtensions
}

func (r FullReceipt) MarshalJSON() ([]byte, error) {
	core, err := json.Marshal(r.Receipt)
	if err != nil {
		return nil, err
	}
	if r.Extensions.Empty() {
		return core, nil
	}
	ext, err := json.Marshal(r.Extensions)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(core, &merged); err != nil {
		return nil, err
	}
	extFields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(ext, &extFields); err != nil {
		return nil, err
	}
	for k, v := range extFields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (r *FullReceipt) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Receipt); err != nil {
		return err
	}
	return json.Unmarshal(data, &r.Extensions)
}
