package bingads

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"bingads-extractor/shared/observability"
	"bingads-extractor/workers/extractor/internal/domain"
)

var zipMagic = []byte("PK\x03\x04")

// Download fetches a result file into dir/name, replacing any existing file.
// Zipped results are decompressed. An empty url means the remote job had no
// data; Download then returns "" and writes nothing.
func (c *Client) Download(ctx context.Context, url, dir, name string) (string, error) {
	if url == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.TransientError("result download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", domain.TransientError(fmt.Sprintf("result download returned HTTP %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.ErrDownloadFailed.Wrap(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.TransientError("reading result file failed", err)
	}

	if bytes.HasPrefix(body, zipMagic) {
		body, err = unzipFirst(body)
		if err != nil {
			return "", domain.ErrDownloadFailed.Wrap(err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.ErrDownloadFailed.Wrap(fmt.Errorf("create directory: %w", err))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", domain.ErrDownloadFailed.Wrap(fmt.Errorf("write result file: %w", err))
	}

	c.metrics.RecordFileSize("csv", int64(len(body)))
	c.logger.Debug(ctx, "Result file downloaded", observability.Fields{
		"path":  path,
		"bytes": len(body),
	})
	return path, nil
}

// unzipFirst returns the first file of the archive, preferring a .csv entry.
func unzipFirst(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open result archive: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if entry == nil || (!strings.HasSuffix(strings.ToLower(entry.Name), ".csv") &&
			strings.HasSuffix(strings.ToLower(f.Name), ".csv")) {
			entry = f
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("result archive is empty")
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", entry.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
