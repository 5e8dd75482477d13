// Package logdb is the durable transparency log: the Merkle tree lives in
// memory for proof generation, while every leaf and tree head is written
// through to the database so the tree survives restarts.
package logdb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"tecpd/internal/domain"
	"tecpd/internal/infra/merkle"
)

// LeafStore is the persistence half, satisfied by db.LogRepository.
type LeafStore interface {
	AppendLeaf(ctx context.Context, leafIndex int64, leafHash []byte) error
	RecordTreeHead(ctx context.Context, head domain.TreeHead) error
	Leaves(ctx context.Context) ([][]byte, error)
	LatestTreeHead(ctx context.Context) (domain.TreeHead, error)
}

type Log struct {
	mu          sync.RWMutex
	store       LeafStore
	leaves      [][]byte
	indexByHash map[string]int64
	clock       func() time.Time
}

// Open rebuilds the tree from the store's persisted leaves.
func Open(ctx context.Context, store LeafStore) (*Log, error) {
	return OpenWithClock(ctx, store, nil)
}

func OpenWithClock(ctx context.Context, store LeafStore, clock func() time.Time) (*Log, error) {
	if clock == nil {
		clock = time.Now
	}
	leaves, err := store.Leaves(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkStoredHead(ctx, store, leaves); err != nil {
		return nil, err
	}
	l := &Log{
		store:       store,
		leaves:      leaves,
		indexByHash: make(map[string]int64, len(leaves)),
		clock:       clock,
	}
	for i, leaf := range leaves {
		l.indexByHash[hex.EncodeToString(leaf)] = int64(i)
	}
	return l, nil
}

// checkStoredHead compares the last recorded tree head against the tree
// rebuilt from the leaves. The head may lag the leaves (recording it is best
// effort), but the root it committed to must match the prefix it covers.
func checkStoredHead(ctx context.Context, store LeafStore, leaves [][]byte) error {
	head, err := store.LatestTreeHead(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if head.TreeSize < 0 || head.TreeSize > int64(len(leaves)) {
		return fmt.Errorf("stored tree head covers %d leaves, store has %d", head.TreeSize, len(leaves))
	}
	if head.TreeSize == 0 {
		return nil
	}
	root, err := merkle.Root(leaves[:head.TreeSize])
	if err != nil {
		return err
	}
	if !bytes.Equal(root, head.RootHash) {
		return fmt.Errorf("stored tree head at size %d does not match rebuilt tree", head.TreeSize)
	}
	return nil
}

func (l *Log) Append(ctx context.Context, leafHash []byte) (domain.LogInclusion, error) {
	if err := ctx.Err(); err != nil {
		return domain.LogInclusion{}, err
	}
	if len(leafHash) != merkle.HashSize {
		return domain.LogInclusion{}, merkle.ErrInvalidHashLen
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := hex.EncodeToString(leafHash)
	index, ok := l.indexByHash[key]
	if !ok {
		index = int64(len(l.leaves))
		if err := l.store.AppendLeaf(ctx, index, leafHash); err != nil {
			return domain.LogInclusion{}, err
		}
		stored := make([]byte, len(leafHash))
		copy(stored, leafHash)
		l.leaves = append(l.leaves, stored)
		l.indexByHash[key] = index

		// Record the new head; a failure here loses only the snapshot, the
		// leaves themselves are already durable.
		if root, err := merkle.Root(l.leaves); err == nil {
			_ = l.store.RecordTreeHead(ctx, domain.TreeHead{
				TreeSize: int64(len(l.leaves)),
				RootHash: root,
				IssuedAt: l.clock().UTC(),
			})
		}
	}
	return l.inclusionLocked(index)
}

func (l *Log) Proof(ctx context.Context, leafHash []byte) (domain.LogInclusion, error) {
	if err := ctx.Err(); err != nil {
		return domain.LogInclusion{}, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	index, ok := l.indexByHash[hex.EncodeToString(leafHash)]
	if !ok {
		return domain.LogInclusion{}, domain.ErrNotFound
	}
	return l.inclusionLocked(index)
}

func (l *Log) LatestRoot(ctx context.Context) (domain.TreeHead, error) {
	if err := ctx.Err(); err != nil {
		return domain.TreeHead{}, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.leaves) == 0 {
		return domain.TreeHead{}, domain.ErrNotFound
	}
	root, err := merkle.Root(l.leaves)
	if err != nil {
		return domain.TreeHead{}, err
	}
	return domain.TreeHead{
		TreeSize: int64(len(l.leaves)),
		RootHash: root,
		IssuedAt: l.clock().UTC(),
	}, nil
}

func (l *Log) inclusionLocked(index int64) (domain.LogInclusion, error) {
	path, err := merkle.InclusionPath(l.leaves, int(index))
	if err != nil {
		return domain.LogInclusion{}, err
	}
	root, err := merkle.Root(l.leaves)
	if err != nil {
		return domain.LogInclusion{}, err
	}

	proof := make([]string, 0, len(path))
	for _, node := range path {
		proof = append(proof, base64.StdEncoding.EncodeToString(node))
	}
	return domain.LogInclusion{
		LeafIndex:   index,
		MerkleProof: proof,
		LogRoot:     base64.StdEncoding.EncodeToString(root),
	}, nil
}

var _ domain.TransparencyLog = (*Log)(nil)
