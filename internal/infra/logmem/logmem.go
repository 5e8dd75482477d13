package logmem

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"

	"tecpd/internal/domain"
	"tecpd/internal/infra/merkle"
)

// Log is an in-memory append-only transparency log. Appending a leaf that
// is already present is idempotent and returns a proof at the current tree
// size.
type Log struct {
	mu          sync.RWMutex
	leaves      [][]byte
	indexByHash map[string]int64
	clock       func() time.Time
}

func New() *Log {
	return NewWithClock(nil)
}

func NewWithClock(clock func() time.Time) *Log {
	if clock == nil {
		clock = time.Now
	}
	return &Log{
		indexByHash: make(map[string]int64),
		clock:       clock,
	}
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
		l.leaves = append(l.leaves, cloneHash(leafHash))
		l.indexByHash[key] = index
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

func cloneHash(hash []byte) []byte {
	out := make([]byte, len(hash))
	copy(out, hash)
	return out
}

var _ domain.TransparencyLog = (*Log)(nil)
