// Package client implements the pve.Client request pipeline: eager
// authentication, path submission, error classification, and the typed
// resource clients layered on top.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/pve-client/internal/http"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
)

// Static errors for err113 compliance.
var (
	ErrCredentialsRequired = errors.New("username/password or token credentials are required")
)

// Client implements the pve.Client interface.
type Client struct {
	httpClient *internalhttp.Client
	baseURL    string
	session    *pve.Session
	cache      pve.Cache
	cacheTTL   time.Duration
	logger     pve.Logger

	// Resource clients
	nodes   pve.NodesClient
	guests  pve.GuestsClient
	tasks   pve.TasksClient
	cluster pve.ClusterClient
}

// New creates a client for the given configuration and, in ticket mode,
// performs the single eager login. An authentication failure aborts
// construction; no usable client is returned.
func New(ctx context.Context, config *pve.Config) (*Client, error) {
	if config == nil {
		return nil, pve.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, pve.ErrHostRequired
	}

	port := config.Port
	if port == 0 {
		port = constants.DefaultPort
	}

	baseURL := fmt.Sprintf("https://%s:%d%s", config.Host, port, constants.APIBasePath)

	tokenMode := config.TokenID != "" && config.Secret != ""
	if !tokenMode && config.Username == "" {
		return nil, ErrCredentialsRequired
	}

	headers := make(map[string]string, len(config.Headers)+1)
	for name, value := range config.Headers {
		headers[name] = value
	}

	if tokenMode {
		headers["Authorization"] = fmt.Sprintf("%s=%s=%s", constants.TokenAuthScheme, config.TokenID, config.Secret)
	}

	httpClient, err := internalhttp.NewClient(baseURL, httpOptions(config, headers)...)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}

	client := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     config.Logger,
	}

	if !tokenMode {
		if err := client.login(ctx, config); err != nil {
			return nil, err
		}
	}

	if config.Cache != nil {
		cache, err := pve.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("building cache: %w", err)
		}

		client.cache = cache

		client.cacheTTL = constants.DefaultCacheTTL
		if config.Cache.Options != nil && config.Cache.Options.DefaultTTL > 0 {
			client.cacheTTL = config.Cache.Options.DefaultTTL
		}
	}

	client.initializeResourceClients()

	return client, nil
}

// httpOptions builds transport options from config. Only options the
// caller set are forwarded.
func httpOptions(config *pve.Config, headers map[string]string) []internalhttp.Option {
	opts := []internalhttp.Option{internalhttp.WithDefaultHeaders(headers)}

	if config.VerifySSL != nil || config.CAFile != "" || config.CAPath != "" {
		opts = append(opts, internalhttp.WithTLSConfig(&internalhttp.TLSConfig{
			VerifySSL: config.VerifySSL,
			CAFile:    config.CAFile,
			CAPath:    config.CAPath,
		}))
	}

	if config.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(config.Logger))

		if config.Debug {
			chain := pve.NewInterceptorChain()
			chain.AddRequestInterceptor(pve.LoggingInterceptor(config.Logger))
			chain.AddResponseInterceptor(pve.LoggingResponseInterceptor(config.Logger))
			opts = append(opts, internalhttp.WithDebug(true), internalhttp.WithInterceptors(chain))
		}
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		opts = append(opts, internalhttp.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return opts
}

// login performs the single ticket request of ticket-mode construction.
func (c *Client) login(ctx context.Context, config *pve.Config) error {
	username := config.Username
	if config.Realm != "" && !strings.Contains(username, "@") {
		username = username + "@" + config.Realm
	}

	body := pve.Params{
		"username": username,
		"password": config.Password,
	}
	if config.OTP != "" {
		body["otp"] = config.OTP
	}

	resp, err := c.httpClient.Post(ctx, constants.TicketPath, body)
	if err != nil {
		return fmt.Errorf("requesting ticket: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &pve.AuthenticationError{
			APIErr: pve.FromResponse(resp, "Proxmox authentication failure"),
		}
	}

	var envelope struct {
		Data struct {
			Ticket    string `json:"ticket"`
			CSRFToken string `json:"CSRFPreventionToken"`
			Username  string `json:"username"`
		} `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return fmt.Errorf("decoding ticket response: %w", err)
	}

	c.session = &pve.Session{
		Username:  envelope.Data.Username,
		Ticket:    envelope.Data.Ticket,
		CSRFToken: envelope.Data.CSRFToken,
	}

	return nil
}

// At implements pve.Client.At: a fresh builder per call.
func (c *Client) At(name string) *pve.Path {
	return pve.NewPath(c).At(name)
}

// Index implements pve.Client.Index: a fresh builder per call.
func (c *Client) Index(value any) *pve.Path {
	return pve.NewPath(c).Index(value)
}

// Session implements pve.Client.Session.
func (c *Client) Session() *pve.Session {
	return c.session
}

// Submit implements pve.Submitter. The verb may carry the suppression
// marker; with it, an HTTP-status failure yields (nil, nil) instead of a
// classified error. Transport failures propagate either way.
func (c *Client) Submit(ctx context.Context, verb, path string, data pve.Params) (any, error) {
	skipRaise := strings.HasSuffix(verb, pve.SuppressMarker)
	verb = strings.TrimSuffix(verb, pve.SuppressMarker)

	resp, err := c.do(ctx, verb, path, data)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		if skipRaise {
			return nil, nil
		}

		return nil, pve.FromResponse(resp, "")
	}

	var envelope pve.Envelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, fmt.Errorf("decoding response data: %w", err)
	}

	return result, nil
}

// do shapes and executes one request: auth headers, body/parameter
// placement per verb, transport invocation, and the GET cache consult.
func (c *Client) do(ctx context.Context, verb, path string, data pve.Params) (*pve.Response, error) {
	var method string

	switch strings.ToLower(verb) {
	case "get":
		method = http.MethodGet
	case "post":
		method = http.MethodPost
	case "put":
		method = http.MethodPut
	case "delete":
		method = http.MethodDelete
	default:
		return nil, fmt.Errorf("%w: %q", pve.ErrUnknownVerb, verb)
	}

	req := &internalhttp.Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}

	if c.session != nil {
		if c.session.Ticket != "" {
			req.Headers["Cookie"] = constants.AuthCookieName + "=" + c.session.Ticket
		}

		if c.session.CSRFToken != "" {
			req.Headers[constants.CSRFTokenHeader] = c.session.CSRFToken
		}
	}

	var cacheKey string

	switch method {
	case http.MethodPost, http.MethodPut:
		req.Headers["Content-Type"] = "application/json"

		if data == nil {
			data = pve.Params{}
		}

		req.Body = data
	case http.MethodGet:
		req.Query = encodeQuery(data)

		if c.cache != nil {
			cacheKey = path
			if len(req.Query) > 0 {
				cacheKey += "?" + req.Query.Encode()
			}

			if entry, err := c.cache.Get(ctx, cacheKey); err == nil {
				return &pve.Response{StatusCode: http.StatusOK, Body: entry.Data}, nil
			}
		}
	case http.MethodDelete:
		// Payload is ignored for DELETE.
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" && resp.StatusCode == http.StatusOK {
		entry := &pve.CacheEntry{
			Data:      resp.Body,
			ExpiresAt: time.Now().Add(c.cacheTTL),
			ETag:      resp.Headers.Get("ETag"),
		}
		_ = c.cache.Set(ctx, cacheKey, entry)
	}

	return resp, nil
}

// getJSON executes a GET through the pipeline and decodes the envelope
// data into out. Used by the typed resource clients.
func (c *Client) getJSON(ctx context.Context, path string, query pve.Params, out any) error {
	resp, err := c.do(ctx, "get", path, query)
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, out)
}

// postJSON executes a POST through the pipeline and decodes the envelope
// data into out (which may be nil when the caller ignores the result).
func (c *Client) postJSON(ctx context.Context, path string, body pve.Params, out any) error {
	resp, err := c.do(ctx, "post", path, body)
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *pve.Response, out any) error {
	if resp.StatusCode >= 400 {
		return pve.FromResponse(resp, "")
	}

	if out == nil {
		return nil
	}

	var envelope pve.Envelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return fmt.Errorf("decoding response envelope: %w", err)
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}

	return nil
}

// encodeQuery renders request parameters the way the API expects them:
// booleans as 1/0, everything else via its natural string form.
func encodeQuery(data pve.Params) url.Values {
	if len(data) == 0 {
		return nil
	}

	query := url.Values{}

	for name, value := range data {
		switch typed := value.(type) {
		case bool:
			if typed {
				query.Set(name, "1")
			} else {
				query.Set(name, "0")
			}
		default:
			query.Set(name, fmt.Sprint(typed))
		}
	}

	return query
}

// Version implements pve.Client.Version.
func (c *Client) Version(ctx context.Context) (*pve.VersionInfo, error) {
	var version pve.VersionInfo
	if err := c.getJSON(ctx, "version", nil, &version); err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}

	return &version, nil
}

// Resource client accessors

// Nodes implements pve.Client.Nodes.
func (c *Client) Nodes() pve.NodesClient {
	return c.nodes
}

// Guests implements pve.Client.Guests.
func (c *Client) Guests() pve.GuestsClient {
	return c.guests
}

// Tasks implements pve.Client.Tasks.
func (c *Client) Tasks() pve.TasksClient {
	return c.tasks
}

// Cluster implements pve.Client.Cluster.
func (c *Client) Cluster() pve.ClusterClient {
	return c.cluster
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.nodes = NewNodesClient(c)
	c.guests = NewGuestsClient(c)
	c.tasks = NewTasksClient(c)
	c.cluster = NewClusterClient(c)
}
