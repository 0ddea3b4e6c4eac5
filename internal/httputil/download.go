// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
)

// ErrTooLarge is matched by *TooLargeError.
var ErrTooLarge = errors.New("download exceeds size limit")

// TooLargeError reports a response body over the caller's limit. Size is -1
// when the server sent no Content-Length and the limit was hit while reading.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("response body exceeds %d bytes", e.Limit)
	}
	return fmt.Sprintf("response body is %d bytes (limit %d)", e.Size, e.Limit)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }

// Download is a fetched URL held in memory.
type Download struct {
	// URL is the final URL after redirects.
	URL string
	// ContentType is the media type without parameters (e.g. "text/html").
	ContentType string
	// Filename comes from Content-Disposition or the last URL path segment.
	Filename string
	Data     []byte
}

// Downloader fetches URL sources.
type Downloader struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// Fetch downloads rawURL, refusing bodies larger than maxBytes. A maxBytes of
// zero or less disables the limit. Non-200 responses are errors.
func (d *Downloader) Fetch(ctx context.Context, rawURL string, maxBytes int64) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := DoWithRetry(ctx, client, req, d.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, &TooLargeError{Size: resp.ContentLength, Limit: maxBytes}
	}

	var body io.Reader = resp.Body
	if maxBytes > 0 {
		body = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &TooLargeError{Size: -1, Limit: maxBytes}
	}

	dl := &Download{
		URL:  resp.Request.URL.String(),
		Data: data,
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		dl.ContentType = mt
	}
	dl.Filename = filename(resp.Header.Get("Content-Disposition"), resp.Request.URL)
	return dl, nil
}

func filename(disposition string, u *url.URL) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := params["filename"]; name != "" {
			return path.Base(name)
		}
	}
	if u == nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
