package domain

// Per-stage verification statuses. The strings are part of the wire
// contract and must match other protocol implementations exactly.
const (
	StatusOK         = "OK"
	StatusInvalid    = "Invalid"
	StatusNotChecked = "Not checked"
)

type VerificationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type VerificationDetails struct {
	Signature       string `json:"signature"`
	Timestamp       string `json:"timestamp"`
	Schema          string `json:"schema"`
	TransparencyLog string `json:"transparency_log"`
}

type VerificationResult struct {
	Valid       bool                `json:"valid"`
	Errors      []VerificationError `json:"errors"`
	Details     VerificationDetails `json:"details"`
	Performance map[string]float64  `json:"performance"`
}

// NewVerificationDetails returns the pipeline's starting accumulator: no
// stage has run, so every status is "Not checked".
func NewVerificationDetails() VerificationDetails {
	return VerificationDetails{
		Signature:       StatusNotChecked,
		Timestamp:       StatusNotChecked,
		Schema:          StatusNotChecked,
		TransparencyLog: StatusNotChecked,
	}
}

func NewVerificationResult() VerificationResult {
	return VerificationResult{
		Valid:       false,
		Errors:      []VerificationError{},
		Details:     NewVerificationDetails(),
		Performance: make(map[string]float64),
	}
}
