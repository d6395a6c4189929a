package loader

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "go-jsgate/http-loader"

// HTTPOptions configures FromHTTP. Start from DefaultHTTPOptions and modify as needed.
//
// Example:
//
//	options := loader.DefaultHTTPOptions()
//	options.Timeout = 10 * time.Second
//	options.Headers["Authorization"] = "Bearer token123"
type HTTPOptions struct {
	// Timeout bounds the whole request, including reading the body.
	Timeout time.Duration

	// InsecureSkipVerify disables certificate verification. Test environments only.
	InsecureSkipVerify bool

	// Username and Password enable HTTP Basic authentication when Username is set.
	Username string
	Password string

	// Headers are added to every request.
	Headers map[string]string

	// MaxBytes caps the size of the fetched body. Zero means no cap.
	MaxBytes int64
}

// DefaultHTTPOptions returns a 30 second timeout, verified TLS, no credentials and a 1MiB body cap.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Timeout:  30 * time.Second,
		Headers:  make(map[string]string),
		MaxBytes: 1 << 20,
	}
}

// FromHTTP fetches script text from an http or https URL on every GetReader call.
type FromHTTP struct {
	url       string
	sourceURL *url.URL
	options   *HTTPOptions
	client    *http.Client
}

// NewFromHTTP creates an HTTP loader with DefaultHTTPOptions.
func NewFromHTTP(rawURL string) (*FromHTTP, error) {
	return NewFromHTTPWithOptions(rawURL, DefaultHTTPOptions())
}

// NewFromHTTPWithOptions creates an HTTP loader with custom options.
func NewFromHTTPWithOptions(rawURL string, options *HTTPOptions) (*FromHTTP, error) {
	if options == nil {
		options = DefaultHTTPOptions()
	}

	sourceURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}

	if sourceURL.Scheme != "http" && sourceURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, rawURL)
	}

	client := &http.Client{
		Timeout: options.Timeout,
	}

	if options.InsecureSkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
		client.Transport = transport
	}

	return &FromHTTP{
		url:       rawURL,
		sourceURL: sourceURL,
		options:   options,
		client:    client,
	}, nil
}

// GetReader performs the request. The caller must close the returned reader.
func (l *FromHTTP) GetReader() (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if l.options.Username != "" {
		req.SetBasicAuth(l.options.Username, l.options.Password)
	}
	for key, value := range l.options.Headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d - %s", ErrScriptNotAvailable, resp.StatusCode, resp.Status)
	}

	if l.options.MaxBytes > 0 {
		return &limitedBody{
			Reader: io.LimitReader(resp.Body, l.options.MaxBytes),
			Closer: resp.Body,
		}, nil
	}
	return resp.Body, nil
}

// GetSourceURL returns the source URL.
func (l *FromHTTP) GetSourceURL() *url.URL {
	return l.sourceURL
}

func (l *FromHTTP) String() string {
	return fmt.Sprintf("loader.FromHTTP{URL: %s}", l.sourceURL.Redacted())
}

type limitedBody struct {
	io.Reader
	io.Closer
}
