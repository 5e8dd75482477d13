package db

import (
	"context"
	"errors"
	"time"

	"tecpd/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LogRepository persists transparency-log state so the in-memory tree can be
// rebuilt across restarts.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) AppendLeaf(ctx context.Context, leafIndex int64, leafHash []byte) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := TransparencyLeafModel{
		LeafIndex: leafIndex,
		LeafHash:  leafHash,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "leaf_hash"}}, DoNothing: true}).
		Create(&model).Error
}

func (r *LogRepository) RecordTreeHead(ctx context.Context, head domain.TreeHead) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := TreeHeadModel{
		TreeSize:  head.TreeSize,
		RootHash:  head.RootHash,
		IssuedAt:  head.IssuedAt,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// Leaves returns all leaf hashes in index order for log reconstruction.
func (r *LogRepository) Leaves(ctx context.Context) ([][]byte, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []TransparencyLeafModel
	err := r.db.WithContext(ctx).Order("leaf_index ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	leaves := make([][]byte, 0, len(models))
	for i, model := range models {
		if model.LeafIndex != int64(i) {
			return nil, errors.New("transparency log leaves are not contiguous")
		}
		leaves = append(leaves, model.LeafHash)
	}
	return leaves, nil
}

func (r *LogRepository) LatestTreeHead(ctx context.Context) (domain.TreeHead, error) {
	if r.db == nil {
		return domain.TreeHead{}, errDBUnavailable
	}
	var model TreeHeadModel
	err := r.db.WithContext(ctx).Order("tree_size DESC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TreeHead{}, domain.ErrNotFound
		}
		return domain.TreeHead{}, err
	}
	return domain.TreeHead{
		TreeSize: model.TreeSize,
		RootHash: model.RootHash,
		IssuedAt: model.IssuedAt,
	}, nil
}
