// Package tiramisu is a client for the Tiramisu custodial Bitcoin and Taproot
// Assets wallet. It authenticates a user, wraps the REST endpoints of the
// wallet backend and turns its asynchronous transactions into blocking
// workflows that wait until a transaction reaches a terminal status.
package tiramisu

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/imroc/req"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	Testnet = "testnet"
	Mainnet = "mainnet"

	// BTCAcronym is the acronym of plain bitcoin in the asset catalogue.
	BTCAcronym = "SAT"
)

var networks = map[string]string{
	Testnet: "https://testnet.tarowallet.net/walletapp/",
	Mainnet: "https://mainnet.tiramisuwallet.com/walletapp/",
}

// AuthMode selects how the session authenticates its requests.
type AuthMode int

const (
	// AuthToken exchanges the credentials once for a token that is sent as
	// "Authorization: Token <token>" on every request.
	AuthToken AuthMode = iota
	// AuthBasic sends the credentials as HTTP Basic auth on every request.
	AuthBasic
)

func (m AuthMode) String() string {
	if m == AuthBasic {
		return "basic"
	}
	return "token"
}

// ParseAuthMode maps "token" and "basic" to their AuthMode. The empty string
// selects AuthToken.
func ParseAuthMode(s string) (AuthMode, error) {
	switch strings.ToLower(s) {
	case "", "token":
		return AuthToken, nil
	case "basic":
		return AuthBasic, nil
	}
	return AuthToken, newConfigurationError("unknown auth mode %q", s)
}

// Client is an authenticated session with the wallet backend. It is safe for
// concurrent use once NewClient returned.
type Client struct {
	baseURL  *url.URL
	username string
	password string
	token    string
	authMode AuthMode

	network   string
	serverURL string
	register  bool

	req        *req.Req
	httpClient *http.Client
	limiter    *rate.Limiter
	log        log.FieldLogger
	metrics    *Metrics

	currencies *currencyCache
	btcAssetID int64

	pollOptions []PollOption
}

type Option func(*Client)

// WithNetwork selects one of the known networks (testnet or mainnet).
func WithNetwork(network string) Option {
	return func(c *Client) {
		c.network = network
	}
}

// WithServerURL overrides the endpoint root. It takes precedence over the
// network.
func WithServerURL(serverURL string) Option {
	return func(c *Client) {
		c.serverURL = serverURL
	}
}

// WithRegistration registers the user before authenticating.
func WithRegistration() Option {
	return func(c *Client) {
		c.register = true
	}
}

func WithAuthMode(mode AuthMode) Option {
	return func(c *Client) {
		c.authMode = mode
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithLogger(logger log.FieldLogger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// WithRateLimit limits the rate of outgoing requests of this client.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithPolling sets the client wide defaults of WaitForStatus. Options passed
// to a single call are applied on top.
func WithPolling(opts ...PollOption) Option {
	return func(c *Client) {
		c.pollOptions = append(c.pollOptions, opts...)
	}
}

// ResolveEndpoint returns the endpoint root for serverURL, or for network if
// serverURL is empty. The root always ends with a slash.
func ResolveEndpoint(network, serverURL string) (*url.URL, error) {
	raw := serverURL
	if raw == "" {
		var ok bool
		raw, ok = networks[network]
		if !ok {
			return nil, newConfigurationError("unknown network %q", network)
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Type: ConfigurationError, Message: "invalid server url", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, newConfigurationError("server url %q is not absolute", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// NewClient opens a session for username. It resolves the endpoint root,
// optionally registers the user, acquires the credentials and resolves the
// identifier of bitcoin (SAT) in the asset catalogue.
func NewClient(ctx context.Context, username, password string, opts ...Option) (*Client, error) {
	c := &Client{
		username: username,
		password: password,
		network:  Testnet,
		authMode: AuthToken,
		log:      log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	baseURL, err := ResolveEndpoint(c.network, c.serverURL)
	if err != nil {
		return nil, err
	}
	c.baseURL = baseURL
	c.req = req.New()
	if c.httpClient != nil {
		c.req.SetClient(c.httpClient)
	}
	c.currencies = newCurrencyCache()

	if c.register {
		if _, err := c.RegisterUser(ctx); err != nil {
			return nil, err
		}
	}
	if c.authMode == AuthToken {
		token, err := c.obtainToken(ctx)
		if err != nil {
			return nil, err
		}
		c.token = token
	}

	c.btcAssetID, err = c.CurrencyID(ctx, BTCAcronym)
	if err != nil {
		return nil, err
	}
	c.log.Infof("[Tiramisu] Session for %s at %s ready (auth: %s, SAT id: %d)", c.username, c.baseURL, c.authMode, c.btcAssetID)
	return c, nil
}

// BaseURL returns the endpoint root of the session.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// BTCAssetID returns the backend identifier of bitcoin (SAT).
func (c *Client) BTCAssetID() int64 {
	return c.btcAssetID
}
