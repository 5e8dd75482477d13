package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tecpd/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReceiptRepository journals issued receipts. The journal is audit
// infrastructure: verification never reads from it.
type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Record(ctx context.Context, receipt domain.FullReceipt, leafIndex int64) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if receipt.Nonce == "" {
		return errors.New("nonce is required")
	}

	receiptJSON, err := json.Marshal(receipt)
	if err != nil {
		return err
	}

	model := ReceiptModel{
		Nonce:       receipt.Nonce,
		CodeRef:     receipt.CodeRef,
		TS:          receipt.TS,
		InputHash:   receipt.InputHash,
		OutputHash:  receipt.OutputHash,
		Pubkey:      receipt.Pubkey,
		ReceiptJSON: receiptJSON,
		CreatedAt:   time.Now().UTC(),
	}
	if leafIndex >= 0 {
		model.LeafIndex = &leafIndex
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "nonce"}}, DoNothing: true}).
		Create(&model).Error
}

func (r *ReceiptRepository) GetByNonce(ctx context.Context, nonce string) (*domain.FullReceipt, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model ReceiptModel
	err := r.db.WithContext(ctx).Where("nonce = ?", nonce).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var receipt domain.FullReceipt
	if err := json.Unmarshal(model.ReceiptJSON, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

var _ domain.ReceiptJournal = (*ReceiptRepository)(nil)
