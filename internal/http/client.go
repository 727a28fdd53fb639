// Package http implements the one-shot HTTP transport consumed by the
// request pipeline: base-URL joining, TLS configuration, default headers,
// and optional debug logging. Retries are off unless explicitly configured;
// the layers above never retry.
package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
)

// Static errors for err113 compliance.
var (
	ErrNoCACertsLoaded = errors.New("no CA certificates loaded")
)

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    any
}

// TLSConfig carries the transport TLS options. Only fields the caller set
// are applied; nil VerifySSL keeps the default verification behavior.
type TLSConfig struct {
	VerifySSL *bool
	CAFile    string
	CAPath    string
}

// Client is the HTTP transport.
type Client struct {
	baseURL        string
	httpClient     *retryablehttp.Client
	defaultHeaders map[string]string
	userAgent      string
	logger         pve.Logger
	debug          bool
	tlsConfig      *TLSConfig
	interceptors   *pve.InterceptorChain
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger pve.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithDefaultHeaders merges headers sent on every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for name, value := range headers {
			c.defaultHeaders[name] = value
		}
	}
}

// WithTLSConfig applies TLS options to the underlying transport.
func WithTLSConfig(config *TLSConfig) Option {
	return func(c *Client) {
		c.tlsConfig = config
	}
}

// WithTimeout sets the whole-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryConfig enables retries for transient failures.
func WithRetryConfig(retryMax int, retryWaitMin, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = retryWaitMin
		c.httpClient.RetryWaitMax = retryWaitMax
	}
}

// WithInterceptors installs an interceptor chain run around every request.
func WithInterceptors(chain *pve.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a new HTTP transport for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     retryClient,
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.tlsConfig != nil {
		transport, err := newTransport(client.tlsConfig)
		if err != nil {
			return nil, err
		}

		client.httpClient.HTTPClient.Transport = transport
	}

	return client, nil
}

// Do executes a request and returns the raw response. Status codes are not
// interpreted here; classification happens in the submission pipeline.
func (c *Client) Do(ctx context.Context, req *Request) (*pve.Response, error) {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body []byte

	if req.Body != nil {
		switch typed := req.Body.(type) {
		case []byte:
			body = typed
		case string:
			body = []byte(typed)
		default:
			encoded, err := json.Marshal(typed)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}

			body = encoded
		}
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")

	for name, value := range c.defaultHeaders {
		headers.Set(name, value)
	}

	if c.userAgent != "" {
		headers.Set("User-Agent", c.userAgent)
	}

	for name, value := range req.Headers {
		headers.Set(name, value)
	}

	intercepted := &pve.InterceptedRequest{
		Method:  req.Method,
		Path:    req.Path,
		Headers: headers,
		Body:    body,
	}

	if c.interceptors != nil {
		if err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted); err != nil {
			return nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	var rawBody any
	if intercepted.Body != nil {
		rawBody = intercepted.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = intercepted.Headers

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &pve.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.interceptors != nil {
		if err := c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, resp); err != nil {
			return nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": resp.StatusCode,
		})
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*pve.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*pve.Response, error) {
	return c.Do(ctx, &Request{
		Method:  http.MethodPost,
		Path:    path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*pve.Response, error) {
	return c.Do(ctx, &Request{
		Method:  http.MethodPut,
		Path:    path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*pve.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// newTransport builds an *http.Transport from the TLS options. Unset
// options keep the transport defaults.
func newTransport(config *TLSConfig) (*http.Transport, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if config.VerifySSL != nil && !*config.VerifySSL {
		tlsConfig.InsecureSkipVerify = true // #nosec G402 -- explicit caller opt-out for self-signed local deployments
	}

	if config.CAFile != "" || config.CAPath != "" {
		pool, err := loadCertPool(config.CAFile, config.CAPath)
		if err != nil {
			return nil, err
		}

		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return transport, nil
}

func loadCertPool(caFile, caPath string) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}

	loaded := false

	if caFile != "" {
		pem, err := os.ReadFile(caFile) // #nosec G304 -- path comes from caller configuration
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}

		if pool.AppendCertsFromPEM(pem) {
			loaded = true
		}
	}

	if caPath != "" {
		entries, err := os.ReadDir(caPath)
		if err != nil {
			return nil, fmt.Errorf("reading CA path: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			pem, err := os.ReadFile(filepath.Join(caPath, entry.Name())) // #nosec G304 -- path comes from caller configuration
			if err != nil {
				return nil, fmt.Errorf("reading CA path entry: %w", err)
			}

			if pool.AppendCertsFromPEM(pem) {
				loaded = true
			}
		}
	}

	if !loaded {
		return nil, ErrNoCACertsLoaded
	}

	return pool, nil
}
