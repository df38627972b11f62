package fetch

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/vk/piohooks/internal/ctxlog"
)

// Upload PUTs the file at path to url, e.g. a pre-signed object storage URL.
// Headers with empty values are not sent. It returns the number of bytes
// uploaded.
func (c *Client) Upload(ctx context.Context, url, path string, headers map[string]string) (int64, error) {
	logger := ctxlog.FromContext(ctx)

	body, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read source file '%s': %w", path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body)
	for k, v := range headers {
		if v != "" {
			req.SetHeader(k, v)
		}
	}

	logger.Info("Uploading file", "source", path, "url", url, "size", humanize.Bytes(uint64(len(body))), "contentType", contentType)
	res, err := req.Put(url)
	if err != nil {
		return 0, fmt.Errorf("failed to upload '%s': %w", path, err)
	}
	if !res.IsSuccess() {
		return 0, fmt.Errorf("upload of '%s' failed with status: %s", path, res.Status())
	}
	logger.Debug("Upload complete", "url", url, "status", res.Status())
	return int64(len(body)), nil
}
