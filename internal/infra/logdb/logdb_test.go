package logdb

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	"tecpd/internal/domain"
	"tecpd/internal/infra/merkle"
)

type memStore struct {
	leaves [][]byte
	heads  []domain.TreeHead
}

func (s *memStore) AppendLeaf(_ context.Context, leafIndex int64, leafHash []byte) error {
	if leafIndex != int64(len(s.leaves)) {
		return errors.New("non-contiguous append")
	}
	stored := make([]byte, len(leafHash))
	copy(stored, leafHash)
	s.leaves = append(s.leaves, stored)
	return nil
}

func (s *memStore) RecordTreeHead(_ context.Context, head domain.TreeHead) error {
	s.heads = append(s.heads, head)
	return nil
}

func (s *memStore) Leaves(_ context.Context) ([][]byte, error) {
	return s.leaves, nil
}

func (s *memStore) LatestTreeHead(_ context.Context) (domain.TreeHead, error) {
	if len(s.heads) == 0 {
		return domain.TreeHead{}, domain.ErrNotFound
	}
	return s.heads[len(s.heads)-1], nil
}

func leaf(i int) []byte {
	sum := sha256.Sum256([]byte{byte(i)})
	return sum[:]
}

func TestLog_AppendPersistsLeavesAndHeads(t *testing.T) {
	store := &memStore{}
	log, err := Open(context.Background(), store)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for i := 0; i < 4; i++ {
		inclusion, err := log.Append(context.Background(), leaf(i))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if inclusion.LeafIndex != int64(i) {
			t.Fatalf("leaf index = %d, want %d", inclusion.LeafIndex, i)
		}
	}
	if len(store.leaves) != 4 {
		t.Fatalf("persisted leaves = %d, want 4", len(store.leaves))
	}
	if len(store.heads) != 4 {
		t.Fatalf("persisted heads = %d, want 4", len(store.heads))
	}
	if store.heads[3].TreeSize != 4 {
		t.Fatalf("latest head size = %d, want 4", store.heads[3].TreeSize)
	}
}

func TestLog_RebuildsFromStore(t *testing.T) {
	store := &memStore{}
	first, err := Open(context.Background(), store)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := first.Append(context.Background(), leaf(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	firstHead, err := first.LatestRoot(context.Background())
	if err != nil {
		t.Fatalf("latest root: %v", err)
	}

	// A fresh instance over the same store sees the same tree.
	second, err := Open(context.Background(), store)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	secondHead, err := second.LatestRoot(context.Background())
	if err != nil {
		t.Fatalf("latest root after reopen: %v", err)
	}
	if secondHead.TreeSize != firstHead.TreeSize {
		t.Fatalf("tree size = %d, want %d", secondHead.TreeSize, firstHead.TreeSize)
	}
	if base64.StdEncoding.EncodeToString(secondHead.RootHash) != base64.StdEncoding.EncodeToString(firstHead.RootHash) {
		t.Fatal("root hash changed across rebuild")
	}

	inclusion, err := second.Proof(context.Background(), leaf(1))
	if err != nil {
		t.Fatalf("proof after reopen: %v", err)
	}
	if inclusion.LeafIndex != 1 {
		t.Fatalf("leaf index = %d, want 1", inclusion.LeafIndex)
	}
}

func TestLog_OpenRejectsCorruptedHead(t *testing.T) {
	store := &memStore{}
	log, err := Open(context.Background(), store)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := log.Append(context.Background(), leaf(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	store.heads[len(store.heads)-1].RootHash[0] ^= 0xff
	if _, err := Open(context.Background(), store); err == nil {
		t.Fatal("open should reject a head that disagrees with the leaves")
	}
}

func TestLog_OpenAcceptsLaggingHead(t *testing.T) {
	store := &memStore{}
	log, err := Open(context.Background(), store)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := log.Append(context.Background(), leaf(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Head recording is best effort; a head behind the leaves is fine as
	// long as the prefix it covers still matches.
	store.heads = store.heads[:2]
	if _, err := Open(context.Background(), store); err != nil {
		t.Fatalf("open with lagging head: %v", err)
	}
}

func TestLog_AppendIsIdempotent(t *testing.T) {
	store := &memStore{}
	log, err := Open(context.Background(), store)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := log.Append(context.Background(), leaf(0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := log.Append(context.Background(), leaf(0)); err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if len(store.leaves) != 1 {
		t.Fatalf("persisted leaves = %d, want 1", len(store.leaves))
	}
}

func TestLog_RejectsBadLeafLength(t *testing.T) {
	log, err := Open(context.Background(), &memStore{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := log.Append(context.Background(), []byte("short")); !errors.Is(err, merkle.ErrInvalidHashLen) {
		t.Fatalf("got %v, want ErrInvalidHashLen", err)
	}
}

func TestLog_EmptyLatestRoot(t *testing.T) {
	log, err := Open(context.Background(), &memStore{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := log.LatestRoot(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
