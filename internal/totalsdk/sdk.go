package totalsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/imroc/req/v3"
	"github.com/totalapp/tenantfiles/internal/utils"
	"github.com/totalapp/tenantfiles/internal/version"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL = "https://api.totalapp.ro/api"
	defaultTimeout = 60 * time.Second
	tokenLeeway    = 30 * time.Second
)

// HTTPClient serves unauthenticated calls such as login and token refresh
var HTTPClient = newHTTPClient()

func newHTTPClient() *req.Client {
	return req.C().
		SetUserAgent(version.UserAgent()).
		SetTimeout(defaultTimeout).
		SetCommonHeader(HeaderDeviceID, utils.DeviceID()).
		SetCommonHeader(HeaderAppVersion, version.Version).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)
}

// Config holds what a Client needs to talk to the API
type Config struct {
	BaseURL      string // required
	IDToken      string
	RefreshToken string
	Timeout      time.Duration
	Debug        bool

	// OnTokensRefreshed is called after every successful refresh so the new pair can be persisted
	OnTokensRefreshed func(Tokens)
	// OnTokensCleared is called once the server rejects the refresh token and the session is gone
	OnTokensCleared func()
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}
	if err := utils.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: %w", ErrNoServerURL, err)
	}
	return nil
}

// Client is the authenticated API client. It is safe for concurrent use.
type Client struct {
	client  *req.Client
	baseURL string
	log     *slog.Logger
	now     func() time.Time

	mu                sync.RWMutex
	tokens            Tokens
	refreshGroup      singleflight.Group
	onTokensRefreshed func(Tokens)
	onTokensCleared   func()

	Files   *FilesAPI
	Tenants *TenantsAPI
	Presets *EmailPresetsAPI
}

func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := utils.NormalizeURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := newHTTPClient().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	if cfg.Debug {
		client.EnableDumpAllWithoutBody()
	}

	c := &Client{
		client:            client,
		baseURL:           baseURL,
		log:               slog.Default().With("component", "sdk"),
		now:               time.Now,
		tokens:            Tokens{IDToken: cfg.IDToken, RefreshToken: cfg.RefreshToken},
		onTokensRefreshed: cfg.OnTokensRefreshed,
		onTokensCleared:   cfg.OnTokensCleared,
	}
	c.Files = newFilesAPI(c)
	c.Tenants = newTenantsAPI(c)
	c.Presets = newEmailPresetsAPI(c)

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Close() {
	c.client.GetTransport().CloseIdleConnections()
}

type requestFunc func(r *req.Request) (*req.Response, error)

func (c *Client) request(ctx context.Context, token string) *req.Request {
	r := c.client.R().SetContext(ctx)
	if token != "" {
		r.SetBearerAuthToken(token)
	}
	return r
}

// send builds and issues a request with the current bearer token. A 401
// triggers one token refresh and a single replay built from scratch, so
// request bodies such as file uploads are re-opened.
func (c *Client) send(ctx context.Context, operation string, do requestFunc) (*req.Response, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, fmt.Errorf("sdk: %s: %w", operation, err)
	}

	resp, err := do(c.request(ctx, token))
	if err != nil {
		return nil, fmt.Errorf("sdk: %s: %w", operation, err)
	}

	if resp.GetStatusCode() != http.StatusUnauthorized {
		return resp, nil
	}

	c.log.Debug("unauthorized, refreshing tokens", "operation", operation)
	if err := c.refresh(ctx, token); err != nil {
		return nil, fmt.Errorf("sdk: %s: %w", operation, err)
	}

	resp, err = do(c.request(ctx, c.Tokens().IDToken))
	if err != nil {
		return nil, fmt.Errorf("sdk: %s: %w", operation, err)
	}
	return resp, nil
}

// call is send plus error decoding for JSON endpoints
func (c *Client) call(ctx context.Context, operation string, do requestFunc) error {
	resp, err := c.send(ctx, operation, do)
	if err != nil {
		return err
	}
	return handleAPIError(resp, nil, operation)
}
