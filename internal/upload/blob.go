// Package upload is the thin passthrough to the external blob store that
// hosts entry images. The store is a plain HTTP service: one authenticated
// PUT per file, public URL back. Failures surface to the caller; nothing
// is retried.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BlobStore is the port consumed by the upload handler.
type BlobStore interface {
	Upload(ctx context.Context, filename string, contentType string, data []byte) (string, error)
}

// Client uploads blobs to an HTTP blob store using a bearer token.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	now     func() time.Time
}

var _ BlobStore = (*Client)(nil)

func NewClient(baseURL, token string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("missing blob store URL")
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   newPooledHTTPClient(),
		now:     time.Now,
	}, nil
}

// newPooledHTTPClient builds an HTTP client with connection pooling and
// timeouts suited to a small number of upload calls per session.
func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Key builds the store key for a file: delights/<unix millis>-<name>.
// The timestamp prefix keeps repeated uploads of the same filename from
// colliding.
func (c *Client) Key(filename string) string {
	name := sanitizeFilename(filename)
	return "delights/" + strconv.FormatInt(c.now().UnixMilli(), 10) + "-" + name
}

// Upload sends the file and returns its public URL.
func (c *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	key := c.Key(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/"+key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Blob-Access", "public")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s: store returned %d: %s", key, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.URL == "" {
		// Stores that answer with an empty body serve the blob at the
		// upload URL itself.
		return c.baseURL + "/" + key, nil
	}
	return out.URL, nil
}

// sanitizeFilename keeps the key URL-safe: path separators and query
// metacharacters are replaced, and everything else is percent-escaped.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	name = strings.NewReplacer("/", "-", "\\", "-", "?", "-", "#", "-", " ", "-").Replace(name)
	return url.PathEscape(name)
}
