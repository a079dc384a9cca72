package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	"github.com/diogo/choicemate/internal/models"
)

// HTTPDoer is the part of an HTTP client the API client needs.
// tls_client.HttpClient satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientInterface is what the rest of the application uses to talk to the backend
type ClientInterface interface {
	QuestionnaireNext(ctx context.Context, req models.QuestionnaireRequest) (*models.QuestionnaireResponse, error)
	Explain(ctx context.Context, req models.ExplainRequest) (*models.ExplainResponse, error)
	Decide(ctx context.Context, req models.DecideRequest) (json.RawMessage, error)
	Health(ctx context.Context) (*models.HealthResponse, error)
	BaseURL() string
}

var _ ClientInterface = (*Client)(nil)

// Client talks JSON to the decision backend
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient HTTPDoer
	logger     *zap.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport, mostly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new backend client. An empty baseURL is accepted:
// every call then fails with a not-configured error, so the UI can still start.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		timeout: 60 * time.Second,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// BaseURL returns the configured base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// QuestionnaireNext advances the questionnaire by one round
func (c *Client) QuestionnaireNext(ctx context.Context, req models.QuestionnaireRequest) (*models.QuestionnaireResponse, error) {
	var out models.QuestionnaireResponse
	if err := c.postJSON(ctx, models.EndpointQuestionnaireNext, req, &out); err != nil {
		return nil, err
	}
	out.State = models.NormalizeJSON(out.State)
	out.Decision = models.NormalizeJSON(out.Decision)
	return &out, nil
}

// Explain asks the backend for a natural-language explanation of a decision
func (c *Client) Explain(ctx context.Context, req models.ExplainRequest) (*models.ExplainResponse, error) {
	var out models.ExplainResponse
	if err := c.postJSON(ctx, models.EndpointExplain, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decide scores complete facts directly, bypassing the questionnaire.
// The decision is returned verbatim.
func (c *Client) Decide(ctx context.Context, req models.DecideRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.postJSON(ctx, models.EndpointDecide, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks that the backend is reachable
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	if err := c.do(ctx, http.MethodGet, models.EndpointHealth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
