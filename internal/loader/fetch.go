package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"GopherAR/internal/logger"

	"go.uber.org/zap"
)

// IsRemote reports whether p is an http(s) URL.
func IsRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// assetExt returns the lowercase extension of a local path or URL path.
func assetExt(p string) string {
	if IsRemote(p) {
		if u, err := url.Parse(p); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(p))
}

// cacheName maps a URL to a stable file name that keeps its extension.
func cacheName(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:8]) + assetExt(rawURL)
}

// progressWriter reports downloaded bytes as a fraction of total.
type progressWriter struct {
	total    int64
	written  int64
	report   func(float64)
	lastSent float64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.total > 0 && w.report != nil {
		frac := float64(w.written) / float64(w.total)
		if frac > 1 {
			frac = 1
		}
		// Throttle to whole percents.
		if frac-w.lastSent >= 0.01 || frac == 1 {
			w.lastSent = frac
			w.report(frac)
		}
	}
	return len(p), nil
}

// fetch returns a local file for p. Remote files are downloaded into
// cacheDir; a cached copy is reused. progress may be called from the
// calling goroutine with fractions in [0,1].
func (l *Loader) fetch(ctx context.Context, p string, progress func(float64)) (string, error) {
	if !IsRemote(p) {
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		progress(0)
		progress(1)
		return p, nil
	}

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	dst := filepath.Join(l.cacheDir, cacheName(p))
	if _, err := os.Stat(dst); err == nil {
		logger.Log.Debug("Asset cache hit", zap.String("url", p), zap.String("file", dst))
		progress(1)
		return dst, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", p, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", p, resp.Status)
	}

	tmp, err := os.CreateTemp(l.cacheDir, "download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	progress(0)
	pw := &progressWriter{total: resp.ContentLength, report: progress}
	if _, err := io.Copy(tmp, io.TeeReader(resp.Body, pw)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	if pw.total <= 0 {
		progress(1)
	}

	logger.Log.Info("Asset downloaded",
		zap.String("url", p),
		zap.String("file", dst),
		zap.Int64("bytes", pw.written))
	return dst, nil
}
