// Package steam is the trading network adapter: session login with TOTP,
// inventory queries, trade offer submission and the mobile confirmation
// sub-protocol.
package steam

import (
	"context"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/circuitbreaker"
	"github.com/skinflow/fulfillment-bot/internal/httpclient"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// Config holds the network adapter settings.
type Config struct {
	APIBaseURL     string
	CommunityURL   string
	AccountName    string
	Password       string
	SharedSecret   string
	IdentitySecret string
	DeviceID       string
	AppID          int
	ContextID      int
	RequestTimeout time.Duration

	ConfirmPollAttempts int
	ConfirmPollBackoff  time.Duration
}

// Client talks to the trading network's web API. Community endpoints run
// behind a circuit breaker so a degraded upstream trips fast instead of
// burning the whole dispatch pass on timeouts.
type Client struct {
	api       httpclient.Client
	community httpclient.Client
	breaker   *circuitbreaker.CircuitBreaker[*httpclient.Response]
	cfg       Config
	log       logger.LoggerInterface
	now       func() time.Time

	mu      sync.RWMutex
	session *session
}

// session is the logged-in state shared by all authenticated calls.
type session struct {
	id          string
	accessToken string
	steamID     uint64
}

func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "creating cookie jar")
	}

	api, err := httpclient.New(
		httpclient.WithProviderName("steam-api"),
		httpclient.WithBaseURL(cfg.APIBaseURL),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
		httpclient.WithCookieJar(jar),
	)
	if err != nil {
		return nil, err
	}
	community, err := httpclient.New(
		httpclient.WithProviderName("steam-community"),
		httpclient.WithBaseURL(cfg.CommunityURL),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
		httpclient.WithCookieJar(jar),
	)
	if err != nil {
		return nil, err
	}

	cbCfg := circuitbreaker.DefaultConfig("steam-community")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Client{
		api:       api,
		community: community,
		breaker:   circuitbreaker.New[*httpclient.Response](cbCfg),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}, nil
}

// LoggedIn reports whether an authenticated session is held.
func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

func (c *Client) currentSession() (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil, apperror.New(apperror.CodeSteamLoginFailed,
			apperror.WithMessage("No active session"))
	}
	return c.session, nil
}

// guard runs a community request through the circuit breaker, mapping an
// open breaker to a retryable error code.
func (c *Client) guard(fn func() (*httpclient.Response, error)) (*httpclient.Response, error) {
	resp, err := c.breaker.Execute(fn)
	if err != nil && c.breaker.Tripped(err) {
		return nil, apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err))
	}
	return resp, err
}
