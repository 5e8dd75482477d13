package domain

import "errors"

var (
	ErrReceiptTooLarge   = errors.New("receipt exceeds maximum wire size")
	ErrMalformedReceipt  = errors.New("malformed receipt")
	ErrInvalidPrivateKey = errors.New("invalid ed25519 private key")
	ErrPublicKeyInvalid  = errors.New("public key format invalid")
	ErrSignatureEncoding = errors.New("invalid signature format")
	ErrSignatureInvalid  = errors.New("signature verification failed")
	ErrNotFound          = errors.New("not found")
	ErrLogUnavailable    = errors.New("log service unavailable")
)
