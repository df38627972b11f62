// Package fetch implements cache-or-fetch downloads of reference files used
// by the build (timezone tables, CA certificates) and uploads of release
// artifacts.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"resty.dev/v3"

	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/fsutil"
)

// DefaultTimeout bounds a single download.
const DefaultTimeout = 60 * time.Second

// Client transfers files over HTTP.
type Client struct {
	http *resty.Client
}

// New creates a download client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "piohooks")
	return &Client{http: c}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Fetch downloads url into dest. When dest already exists no request is
// made and Fetch returns false. The file is written atomically, so an
// interrupted download never leaves a truncated cache entry behind.
func (c *Client) Fetch(ctx context.Context, url, dest string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	if fsutil.Exists(dest) {
		logger.Info("File already exists, skipping download", "path", dest)
		return false, nil
	}

	logger.Info("Downloading file", "url", url, "path", dest)
	res, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return true, fmt.Errorf("failed to download '%s': %w", url, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return true, fmt.Errorf("failed to download '%s': status %s", url, res.Status())
	}

	n, err := fsutil.WriteStreamAtomic(dest, res.Body, 0644)
	if err != nil {
		return true, fmt.Errorf("failed to save '%s': %w", dest, err)
	}
	logger.Info("Download complete", "path", dest, "size", humanize.Bytes(uint64(n)))
	return true, nil
}
