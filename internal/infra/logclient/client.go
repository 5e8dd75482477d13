package logclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tecpd/internal/domain"
)

// Client fetches the transparency log's published head over HTTP. It is the
// sole network dependency in the verification path and is only consulted in
// online mode; callers bound it with their context.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type treeHeadDoc struct {
	TreeSize int64  `json:"tree_size"`
	RootHash string `json:"root_hash"`
	IssuedAt string `json:"issued_at"`
}

func (c *Client) LatestRoot(ctx context.Context) (domain.TreeHead, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/log/sth", nil)
	if err != nil {
		return domain.TreeHead{}, fmt.Errorf("%w: %v", domain.ErrLogUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.TreeHead{}, fmt.Errorf("%w: %v", domain.ErrLogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.TreeHead{}, fmt.Errorf("%w: status %d", domain.ErrLogUnavailable, resp.StatusCode)
	}

	var doc treeHeadDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return domain.TreeHead{}, fmt.Errorf("%w: %v", domain.ErrLogUnavailable, err)
	}
	root, err := base64.StdEncoding.DecodeString(doc.RootHash)
	if err != nil {
		return domain.TreeHead{}, fmt.Errorf("%w: bad root encoding", domain.ErrLogUnavailable)
	}
	issuedAt, err := time.Parse(time.RFC3339, doc.IssuedAt)
	if err != nil {
		issuedAt = time.Time{}
	}
	return domain.TreeHead{
		TreeSize: doc.TreeSize,
		RootHash: root,
		IssuedAt: issuedAt,
	}, nil
}

var _ domain.LogRootSource = (*Client)(nil)
