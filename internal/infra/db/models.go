package db

import "time"

type ReceiptModel struct {
	ID          int64     `gorm:"primaryKey"`
	Nonce       string    `gorm:"uniqueIndex;not null"`
	CodeRef     string    `gorm:"index;not null"`
	TS          int64     `gorm:"column:ts;index;not null"`
	InputHash   string    `gorm:"not null"`
	OutputHash  string    `gorm:"not null"`
	Pubkey      string    `gorm:"not null"`
	ReceiptJSON []byte    `gorm:"type:jsonb;not null"`
	LeafIndex   *int64    `gorm:"index"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (ReceiptModel) TableName() string {
	return "receipts"
}

type TransparencyLeafModel struct {
	ID        int64     `gorm:"primaryKey"`
	LeafIndex int64     `gorm:"uniqueIndex;not null"`
	LeafHash  []byte    `gorm:"type:bytea;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (TransparencyLeafModel) TableName() string {
	return "transparency_log_leaves"
}

type TreeHeadModel struct {
	ID        int64     `gorm:"primaryKey"`
	TreeSize  int64     `gorm:"index;not null"`
	RootHash  []byte    `gorm:"type:bytea;not null"`
	IssuedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (TreeHeadModel) TableName() string {
	return "tree_heads"
}
