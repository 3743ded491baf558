// Package httpclient provides an instrumented HTTP client with OTEL
// tracing and metrics.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Client is the interface for making HTTP requests.
type Client interface {
	// NewRequest creates a new request builder.
	NewRequest() Request
	// Do executes a raw request.
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Options holds configuration for the instrumented client.
type Options struct {
	ProviderName   string
	BaseURL        string
	RequestTimeout time.Duration
	Headers        map[string]string
	Jar            http.CookieJar
}

// Option configures Options.
type Option func(*Options)

// WithProviderName sets the provider name used in metrics and traces.
func WithProviderName(name string) Option {
	return func(o *Options) { o.ProviderName = name }
}

// WithBaseURL sets the base URL prepended to relative request paths.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = url }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = timeout }
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) Option {
	return func(o *Options) { o.Headers = headers }
}

// WithCookieJar sets a cookie jar, required for session-authenticated APIs.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *Options) { o.Jar = jar }
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	defaultHeaders map[string]string
}

// New creates a new instrumented HTTP client.
func New(opts ...Option) (Client, error) {
	options := &Options{}
	for _, o := range opts {
		o(options)
	}

	timeout := options.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		MaxConnsPerHost: defaultMaxConnsPerHost,
		IdleConnTimeout: defaultIdleConnTimeout,
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Jar:     options.Jar,
		Transport: otelhttp.NewTransport(
			transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	providerName := options.ProviderName
	if providerName == "" {
		providerName = "default"
	}

	meter := otel.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", providerName)),
	)
	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedClient{
		client:         httpClient,
		requestCounter: requestCounter,
		providerName:   providerName,
		tracer:         otel.Tracer("instrumented_http_client"),
		baseURL:        options.BaseURL,
		defaultHeaders: options.Headers,
	}, nil
}

// NewRequest creates a new request builder.
func (c *InstrumentedClient) NewRequest() Request {
	headers := make(map[string]string, len(c.defaultHeaders))
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	return &requestBuilder{
		client:         c.client,
		requestCounter: c.requestCounter,
		providerName:   c.providerName,
		tracer:         c.tracer,
		baseURL:        c.baseURL,
		headers:        headers,
	}
}

// Do executes an http.Request directly.
func (c *InstrumentedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(ctx))
}
