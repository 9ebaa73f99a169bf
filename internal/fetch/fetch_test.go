package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.7\n1 0 obj << /Type /Catalog >> endobj\n%%EOF")

func TestFetch_PDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBytes)
	}))
	defer server.Close()

	doc, err := NewHTTPFetcher(nil).Fetch(context.Background(), server.URL+"/ada.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, pdfBytes, doc.Data)
	assert.False(t, doc.IsText())
}

func TestFetch_SniffsGenericContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pdfBytes)
	}))
	defer server.Close()

	doc, err := NewHTTPFetcher(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
}

func TestFetch_HTMLBecomesText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><nav>Menu</nav><main><h1>Ada Lovelace</h1><p>Go, Kubernetes</p></main></body></html>`))
	}))
	defer server.Close()

	doc, err := NewHTTPFetcher(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "text/html", doc.ContentType)
	assert.True(t, doc.IsText())
	assert.Contains(t, doc.Text, "Ada Lovelace")
	assert.NotContains(t, doc.Text, "Menu")
}

func TestFetch_InvalidURL(t *testing.T) {
	for _, ref := range []string{"not-a-valid-url", "ftp://files.example.com/a.pdf", ""} {
		_, err := NewHTTPFetcher(nil).Fetch(context.Background(), ref)
		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr, ref)
		assert.Contains(t, err.Error(), "invalid URL")
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), server.URL)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxBytes = 16
	_, err := NewHTTPFetcher(opts).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestFetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer server.Close()

	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pdfBytes)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPFetcher(nil).Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", DetectContentType("", []byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "application/pdf", DetectContentType("application/pdf; name=cv.pdf", []byte("x")))
	assert.Equal(t, "text/plain", DetectContentType("", []byte("Ada Lovelace\nGo developer")))
}

func TestHTMLToText_FallsBackToBody(t *testing.T) {
	text, err := HTMLToText(`<html><body><script>x()</script><p>  Ada  </p>

<p>Go</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Ada\nGo", text)
}
