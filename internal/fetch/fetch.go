// Package fetch resolves resume references (stable URLs) to document bytes.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; TalentPipeline/1.0)"

// DefaultMaxBytes caps the size of a fetched document.
const DefaultMaxBytes = 10 << 20

// Document is the fetched content of a resume reference.
type Document struct {
	Ref         string
	Data        []byte
	ContentType string
	// Text is set for text and HTML documents.
	Text string
}

// IsText reports whether the document was delivered as text rather than binary.
func (d *Document) IsText() bool {
	return d.Text != ""
}

// Error represents an error during document fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	MaxBytes  int64
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// HTTPFetcher fetches documents over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
	opts   *Options
}

// NewHTTPFetcher creates a fetcher. A nil opts uses DefaultOptions.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Fetch retrieves the document behind ref.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (*Document, error) {
	parsedURL, err := url.Parse(ref)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, &Error{URL: ref, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, &Error{URL: ref, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: ref, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: ref, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, &Error{URL: ref, Message: "failed to read response body", Cause: err}
	}
	if int64(len(data)) > f.opts.MaxBytes {
		return nil, &Error{URL: ref, Message: fmt.Sprintf("document exceeds %d bytes", f.opts.MaxBytes)}
	}
	if len(data) == 0 {
		return nil, &Error{URL: ref, Message: "empty document"}
	}

	doc := &Document{
		Ref:         ref,
		Data:        data,
		ContentType: DetectContentType(resp.Header.Get("Content-Type"), data),
	}

	switch doc.ContentType {
	case "text/html":
		text, err := HTMLToText(string(data))
		if err != nil {
			return nil, &Error{URL: ref, Message: "failed to parse HTML", Cause: err}
		}
		doc.Text = text
	case "text/plain":
		doc.Text = strings.TrimSpace(string(data))
	}

	return doc, nil
}

// DetectContentType returns the media type of a document, preferring the
// server's header unless it is missing or generic.
func DetectContentType(header string, data []byte) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil &&
			mediaType != "application/octet-stream" && mediaType != "binary/octet-stream" {
			return mediaType
		}
	}
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mediaType
}

// HTMLToText parses HTML and returns its readable body text.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, script, style, noscript, iframe, svg").Remove()

	var mainContent *goquery.Selection
	for _, selector := range []string{"main", "article", ".resume", "#resume"} {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// cleanWhitespace trims each line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
