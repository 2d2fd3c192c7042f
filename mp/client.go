package mp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/xrdgo/resource"
)

// DefaultEndpoint is the legacy Materials Project REST endpoint.
const DefaultEndpoint = "https://legacy.materialsproject.org/rest/v2"

// maxResponseBytes bounds a single response body.
const maxResponseBytes = 256 << 20

type options struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	controller *resource.Controller
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithHTTPClient sets the HTTP client. Sessions close its idle connections on Close.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds every query. Zero disables the per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithController throttles queries.
func WithController(c *resource.Controller) Option {
	return func(o *options) { o.controller = c }
}

// WithLogger sets the logger for per-query debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Client holds the API key and transport. It is safe for concurrent use.
type Client struct {
	apiKey string
	opts   options
}

// NewClient creates a client for apiKey.
func NewClient(apiKey string, optFns ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	opts := options{
		endpoint: DefaultEndpoint,
		timeout:  60 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.httpClient == nil {
		opts.httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}
	return &Client{apiKey: apiKey, opts: opts}, nil
}

// Open starts a session. The session must be closed to release connections.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Session{client: c}, nil
}

// Session is a scoped connection to the API. It implements scrape.Source.
type Session struct {
	client  *Client
	closed  atomic.Bool
	queries atomic.Int64
}

// Close releases idle connections. Subsequent queries fail with ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.client.opts.httpClient.CloseIdleConnections()
	}
	return nil
}

// Queries returns the number of queries issued by the session.
func (s *Session) Queries() int64 {
	return s.queries.Load()
}

type envelope struct {
	ValidResponse bool                           `json:"valid_response"`
	Response      []map[string]gojson.RawMessage `json:"response"`
	Error         string                         `json:"error"`
}

// query runs one criteria/properties query and returns the result documents.
func (s *Session) query(ctx context.Context, criteria any, properties []string) ([]map[string]gojson.RawMessage, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	opts := s.client.opts

	crit, err := gojson.Marshal(criteria)
	if err != nil {
		return nil, err
	}
	props, err := gojson.Marshal(properties)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("criteria", string(crit))
	form.Set("properties", string(props))

	var docs []map[string]gojson.RawMessage
	err = opts.controller.Do(ctx, func(ctx context.Context) error {
		if opts.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.endpoint+"/query", strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-API-KEY", s.client.apiKey)

		start := time.Now()
		s.queries.Add(1)
		resp, err := opts.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resource.NewReader(ctx, resp.Body, opts.controller), maxResponseBytes))
		if err != nil {
			return err
		}
		opts.logger.DebugContext(ctx, "mp query",
			slog.String("properties", strings.Join(properties, ",")),
			slog.Int("status", resp.StatusCode),
			slog.Int("bytes", len(body)),
			slog.Duration("duration", time.Since(start)),
		)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}

		var env envelope
		if err := gojson.Unmarshal(body, &env); err != nil {
			return &MalformedError{Property: "response", Err: err}
		}
		if !env.ValidResponse {
			return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
		}
		docs = env.Response
		return nil
	})
	return docs, err
}
