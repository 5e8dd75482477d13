package domain

// Version is the protocol version string covered by the signature. A
// receipt whose version differs from this value, even cosmetically, fails
// schema validation.
const Version = "TECP-0.1"

const (
	// MaxReceiptAgeMS is the oldest a receipt may be at verification time.
	// The boundary is inclusive: a receipt exactly this old still verifies.
	MaxReceiptAgeMS int64 = 24 * 60 * 60 * 1000

	// MaxClockSkewMS bounds how far into the verifier's future a receipt
	// timestamp may sit. Inclusive, like MaxReceiptAgeMS.
	MaxClockSkewMS int64 = 5 * 60 * 1000

	// MaxReceiptSizeBytes is the hard wire-format limit for a full receipt
	// including extensions. Creation fails rather than emit a larger one.
	MaxReceiptSizeBytes = 8192
)

const (
	// NonceSize is the minimum entropy of a receipt nonce before encoding.
	NonceSize = 16

	// DigestSize is the byte length of input/output/log hashes (SHA-256).
	DigestSize = 32
)
