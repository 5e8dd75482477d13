package domain

import (
	"context"
	"time"
)

// TreeHead is the state of the transparency log at a point in time.
type TreeHead struct {
	TreeSize int64
	RootHash []byte
	IssuedAt time.Time
}

// TransparencyLog appends receipt leaf hashes and hands back the inclusion
// data that becomes the log_inclusion extension. Appending the same leaf
// twice is idempotent.
type TransparencyLog interface {
	Append(ctx context.Context, leafHash []byte) (LogInclusion, error)
	Proof(ctx context.Context, leafHash []byte) (LogInclusion, error)
	LatestRoot(ctx context.Context) (TreeHead, error)
}

// LogRootSource answers the optional online question of what the log
// currently publishes as its head. Implementations may block on the network;
// callers bound them with the context.
type LogRootSource interface {
	LatestRoot(ctx context.Context) (TreeHead, error)
}
