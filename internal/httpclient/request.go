package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ResponseErrorHandler decides whether a response body is an API-level error.
type ResponseErrorHandler func(statusCode int, body []byte) error

// Request is the interface for building and executing HTTP requests.
type Request interface {
	Get(ctx context.Context, url string) (*Response, error)
	Post(ctx context.Context, url string) (*Response, error)

	SetBody(body any) Request
	SetForm(values url.Values) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
	SetErrorHandler(handler ResponseErrorHandler) Request
}

// Response wraps http.Response with a pre-read body.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body as bytes.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as string.
func (r *Response) String() string {
	return string(r.body)
}

// IsError returns true if the status code indicates an error (>= 400).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

type requestBuilder struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	headers        map[string]string
	queryParams    url.Values
	body           any
	form           url.Values
	result         any
	errorHandler   ResponseErrorHandler
}

func (r *requestBuilder) Get(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, url)
}

func (r *requestBuilder) Post(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, url)
}

// SetBody sets the request body (JSON encoded unless bytes or string).
func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

// SetForm sets an application/x-www-form-urlencoded body.
func (r *requestBuilder) SetForm(values url.Values) Request {
	r.form = values
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.queryParams == nil {
		r.queryParams = make(url.Values)
	}
	r.queryParams.Set(key, value)
	return r
}

// SetResult sets the target for JSON unmarshaling of the response body.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) SetErrorHandler(handler ResponseErrorHandler) Request {
	r.errorHandler = handler
	return r
}

func (r *requestBuilder) execute(ctx context.Context, method, reqURL string) (*Response, error) {
	ctx, span := r.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", reqURL),
			attribute.String("provider", r.providerName),
		),
	)
	defer span.End()

	fullURL := reqURL
	if r.baseURL != "" && !strings.HasPrefix(reqURL, "http") {
		fullURL = strings.TrimSuffix(r.baseURL, "/") + "/" + strings.TrimPrefix(reqURL, "/")
	}
	if len(r.queryParams) > 0 {
		separator := "?"
		if strings.Contains(fullURL, "?") {
			separator = "&"
		}
		fullURL = fullURL + separator + r.queryParams.Encode()
	}

	bodyReader, err := r.buildBody()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.recordMetrics(ctx, false)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		span.RecordError(err)
		r.recordMetrics(ctx, false)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	response := &Response{Response: resp, body: body}

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}

	if r.errorHandler != nil {
		if handlerErr := r.errorHandler(resp.StatusCode, body); handlerErr != nil {
			span.SetStatus(codes.Error, handlerErr.Error())
			r.recordMetrics(ctx, false)
			return response, handlerErr
		}
	}

	if r.result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, r.result); err != nil {
			span.RecordError(err)
			r.recordMetrics(ctx, false)
			return response, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	r.recordMetrics(ctx, !response.IsError())
	return response, nil
}

func (r *requestBuilder) buildBody() (io.Reader, error) {
	if r.form != nil {
		r.SetHeader("Content-Type", "application/x-www-form-urlencoded")
		return strings.NewReader(r.form.Encode()), nil
	}
	if r.body == nil {
		return nil, nil
	}
	switch b := r.body.(type) {
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		jsonBody, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.SetHeader("Content-Type", "application/json")
		}
		return bytes.NewReader(jsonBody), nil
	}
}

func (r *requestBuilder) recordMetrics(ctx context.Context, success bool) {
	r.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", r.providerName),
		attribute.Bool("success", success),
	))
}
