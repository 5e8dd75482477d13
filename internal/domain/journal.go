package domain

import "context"

// ReceiptJournal persists issued receipts for audit. The journal is outside
// the verification path; verification works purely from receipt bytes.
type ReceiptJournal interface {
	Record(ctx context.Context, receipt FullReceipt, leafIndex int64) error
	GetByNonce(ctx context.Context, nonce string) (*FullReceipt, error)
}
