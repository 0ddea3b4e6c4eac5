// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Hi</h1>"))
	}))
	defer ts.Close()

	d := &Downloader{Client: ts.Client(), UserAgent: "mdbatch/test"}
	dl, err := d.Fetch(context.Background(), ts.URL+"/docs/page.html", 1024)
	require.NoError(t, err)

	assert.Equal(t, "mdbatch/test", gotUA)
	assert.Equal(t, "text/html", dl.ContentType)
	assert.Equal(t, "page.html", dl.Filename)
	assert.Equal(t, "<h1>Hi</h1>", string(dl.Data))
}

func TestFetch_ContentDispositionFilename(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="../paper.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer ts.Close()

	d := &Downloader{Client: ts.Client()}
	dl, err := d.Fetch(context.Background(), ts.URL+"/download?id=7", 0)
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", dl.Filename)
	assert.Equal(t, "application/pdf", dl.ContentType)
}

func TestFetch_TooLarge(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantSize int64
	}{
		{
			name: "declared content length",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("a", 64)))
			},
			wantSize: 64,
		},
		{
			name: "streamed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.(http.Flusher).Flush()
				_, _ = w.Write([]byte(strings.Repeat("a", 64)))
			},
			wantSize: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			d := &Downloader{Client: ts.Client()}
			_, err := d.Fetch(context.Background(), ts.URL, 16)
			require.ErrorIs(t, err, ErrTooLarge)

			var tl *TooLargeError
			require.ErrorAs(t, err, &tl)
			assert.Equal(t, tt.wantSize, tl.Size)
			assert.Equal(t, int64(16), tl.Limit)
		})
	}
}

func TestFetch_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	d := &Downloader{Client: ts.Client()}
	_, err := d.Fetch(context.Background(), ts.URL, 0)
	assert.ErrorContains(t, err, "HTTP 404")
}
