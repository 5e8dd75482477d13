package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"

	"tecpd/internal/domain"
)

const leafPrefix = 0x00

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// HashPayload content-addresses a payload: base64 of its SHA-256 digest.
func (s *Service) HashPayload(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *Service) CanonicalizeCore(r domain.Receipt) []byte {
	return CanonicalizeCore(r)
}

func (s *Service) Sign(privateKey ed25519.PrivateKey, canonical []byte) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(privateKey, canonical))
}

// VerifySignature checks sig over the canonical bytes. The sentinel errors
// distinguish malformed encodings from a cryptographic mismatch so callers
// can map them to distinct protocol codes.
func (s *Service) VerifySignature(canonical []byte, sigB64, pubkeyB64 string) error {
	pubKey, err := base64.StdEncoding.DecodeString(pubkeyB64)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		return domain.ErrPublicKeyInvalid
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return domain.ErrSignatureEncoding
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey), canonical, sig) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// ReceiptLeafHash derives the transparency-log leaf digest from a receipt:
// SHA-256 over a leaf domain-separation byte, the canonical core bytes, and
// the raw signature. Binding the signature keeps two identically-signed
// cores from colliding with an unsigned forgery.
func (s *Service) ReceiptLeafHash(r domain.Receipt) ([]byte, error) {
	sig, err := base64.StdEncoding.DecodeString(r.Sig)
	if err != nil {
		return nil, domain.ErrSignatureEncoding
	}
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(CanonicalizeCore(r))
	h.Write(sig)
	return h.Sum(nil), nil
}
