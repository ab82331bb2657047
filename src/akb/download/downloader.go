// Package download fetches toolchain archives, setup scripts and patches
// over HTTP(S).
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	urlpath "path"
	"path/filepath"
	"time"

	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the download package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// UserAgent is sent with every request
var UserAgent = "akb/dev"

// maxFetchSize bounds in-memory fetches (setup scripts, patches)
const maxFetchSize = 16 << 20

// progressInterval throttles download progress logs
const progressInterval = 5 * time.Second

// Result describes a completed download
type Result struct {
	Path     string
	Size     int64
	Checksum string // hex SHA256
}

// Downloader performs HTTP(S) downloads
type Downloader struct {
	httpClient *http.Client
}

// NewDownloader creates a new downloader. A nil client gets one with no
// timeout, since toolchain archives can take a long time.
func NewDownloader(httpClient *http.Client) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 0,
		}
	}
	return &Downloader{
		httpClient: httpClient,
	}
}

// FileName returns the local name for a URL, the last path segment
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	name := urlpath.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "index.html", nil
	}
	return name, nil
}

// RequireHTTPS rejects URLs that would be fetched without TLS
func RequireHTTPS(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return errors.ErrInsecureURL.WithMessagef("Refusing to fetch %s: https is required", rawURL)
	}
	return nil
}

func (d *Downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.ErrDownloadFailed.WithMessagef("Invalid download URL %s", rawURL).WithCause(err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.ErrDownloadFailed.WithMessagef("Download of %s failed", rawURL).WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.ErrDownloadFailed.
			WithMessagef("Download of %s failed", rawURL).
			WithCause(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}
	return resp, nil
}

// Download streams rawURL into destDir under its URL file name
func (d *Downloader) Download(ctx context.Context, rawURL, destDir string) (*Result, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return nil, errors.ErrDownloadFailed.WithCause(err)
	}
	return d.DownloadTo(ctx, rawURL, filepath.Join(destDir, name))
}

// DownloadTo streams rawURL into dest. The file only appears once complete.
func (d *Downloader) DownloadTo(ctx context.Context, rawURL, dest string) (*Result, error) {
	resp, err := d.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	tempFile, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return nil, errors.ErrDownloadFailed.WithMessage("Failed to create temp file").WithCause(err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)
	defer tempFile.Close()

	hash := sha256.New()
	writer := io.MultiWriter(tempFile, hash)

	totalBytes := resp.ContentLength
	var bytesReceived int64
	buf := make([]byte, 32*1024)
	lastProgress := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := writer.Write(buf[:n]); err != nil {
				return nil, errors.ErrDownloadFailed.WithMessage("Failed to write download").WithCause(err)
			}
			bytesReceived += int64(n)

			if now := time.Now(); now.Sub(lastProgress) >= progressInterval {
				log.Info("Downloading", "file", filepath.Base(dest), "received", bytesReceived, "total", totalBytes)
				lastProgress = now
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, errors.ErrDownloadFailed.
				WithMessagef("Download of %s interrupted", rawURL).
				WithCause(readErr)
		}
	}

	if err := tempFile.Close(); err != nil {
		return nil, errors.ErrDownloadFailed.WithCause(err)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		return nil, errors.ErrDownloadFailed.WithMessage("Failed to move download into place").WithCause(err)
	}

	return &Result{
		Path:     dest,
		Size:     bytesReceived,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// Fetch returns the body of rawURL held in memory
func (d *Downloader) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := d.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
	if err != nil {
		return nil, errors.ErrDownloadFailed.WithMessagef("Fetch of %s failed", rawURL).WithCause(err)
	}
	if len(data) > maxFetchSize {
		return nil, errors.ErrDownloadFailed.WithMessagef("Response from %s exceeds %d bytes", rawURL, maxFetchSize)
	}
	return data, nil
}
