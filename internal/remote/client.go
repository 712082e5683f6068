// Package remote is the HTTP client for the companion backend. It owns the
// wire shapes of the eight backend operations and classifies failures into
// the client error taxonomy; policy (retries, gating) lives with callers.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"solace/internal/endpoint"
	"solace/internal/platform/metrics"
	dErrors "solace/pkg/domain-errors"
)

// Client calls the companion backend at a resolved endpoint set.
type Client struct {
	endpoints   endpoint.Endpoints
	httpClient  *http.Client
	userAgent   string
	metrics     *metrics.Metrics
	reqTimeout  time.Duration
	chatTimeout time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeouts sets the per-request deadlines for regular and chat calls.
func WithTimeouts(request, chat time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.reqTimeout = request
		}
		if chat > 0 {
			c.chatTimeout = chat
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMetrics enables per-operation request latency recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a backend client for the given endpoint set.
func NewClient(endpoints endpoint.Endpoints, opts ...Option) *Client {
	c := &Client{
		endpoints:   endpoints,
		httpClient:  &http.Client{},
		userAgent:   "solace-client/1.0",
		reqTimeout:  10 * time.Second,
		chatTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the endpoint set this client talks to.
func (c *Client) Endpoints() endpoint.Endpoints {
	return c.endpoints
}

// Login authenticates the user. A success=false body surfaces the
// server-supplied message (or a default) as an unauthorized error; no
// automatic retry happens on transport failure.
func (c *Client) Login(ctx context.Context, username, password string) (*Auth, error) {
	return c.authenticate(ctx, "login", c.endpoints.Login, "login failed", username, password)
}

// Register creates an account, with the same result contract as Login.
func (c *Client) Register(ctx context.Context, username, password string) (*Auth, error) {
	return c.authenticate(ctx, "register", c.endpoints.Register, "registration failed", username, password)
}

func (c *Client) authenticate(ctx context.Context, op, url, defaultMsg, username, password string) (*Auth, error) {
	var resp authResponse
	if _, err := c.doJSON(ctx, op, http.MethodPost, url, "", authRequest{Username: username, Password: password}, &resp, c.reqTimeout); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = defaultMsg
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, msg)
	}
	return &Auth{UserID: resp.UserID, UserName: resp.UserName, Token: resp.Token}, nil
}

// FetchConsent reads the authoritative consent record for a user.
func (c *Client) FetchConsent(ctx context.Context, userID string) (*ConsentStatus, error) {
	target := c.endpoints.Consent + "/" + url.PathEscape(userID)
	var status ConsentStatus
	if _, err := c.doJSON(ctx, "consent.fetch", http.MethodGet, target, "", nil, &status, c.reqTimeout); err != nil {
		return nil, err
	}
	return &status, nil
}

// PushConsent records a consent decision with the backend. Callers treat
// this as best-effort.
func (c *Client) PushConsent(ctx context.Context, userID string, consent bool, date time.Time) error {
	body := consentPush{UserID: userID, Consent: consent, Date: date.UTC().Format(time.RFC3339)}
	_, err := c.doJSON(ctx, "consent.push", http.MethodPost, c.endpoints.Consent, "", body, nil, c.reqTimeout)
	return err
}

// SubmitSurvey posts one survey submission under the session token.
func (c *Client) SubmitSurvey(ctx context.Context, token string, submission SurveySubmission) error {
	_, err := c.doJSON(ctx, "survey.submit", http.MethodPost, c.endpoints.Survey, token, submission, nil, c.reqTimeout)
	return err
}

// SendChat relays one chat message under the session token.
func (c *Client) SendChat(ctx context.Context, token, userID, userType, message string) (*ChatReply, error) {
	body := chatRequest{Message: message, UserID: userID, UserType: userType}
	var reply ChatReply
	if _, err := c.doJSON(ctx, "chat.send", http.MethodPost, c.endpoints.Chat, token, body, &reply, c.chatTimeout); err != nil {
		return nil, err
	}
	return &reply, nil
}

// FetchStatistics loads the interaction summary for a user.
func (c *Client) FetchStatistics(ctx context.Context, token, userID string) (*Statistics, error) {
	target := c.endpoints.Statistics + "/" + url.PathEscape(userID)
	var stats Statistics
	if _, err := c.doJSON(ctx, "statistics.fetch", http.MethodGet, target, token, nil, &stats, c.reqTimeout); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchMoodHistory loads the emotion history series for the last days.
func (c *Client) FetchMoodHistory(ctx context.Context, token, userID string, days int) ([]MoodPoint, error) {
	target := fmt.Sprintf("%s/%s?days=%d", c.endpoints.History, url.PathEscape(userID), days)
	var resp historyResponse
	if _, err := c.doJSON(ctx, "history.fetch", http.MethodGet, target, token, nil, &resp, c.reqTimeout); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// Probe tests connectivity to an arbitrary base URL by posting a probe
// message to its chat endpoint. A 2xx, 400, or 401 means the backend
// answered; 502 and 503 mean it is up but degraded.
func (c *Client) Probe(ctx context.Context, base string, timeout time.Duration) ProbeResult {
	eps := endpoint.EndpointsFor(base)
	probe := chatRequest{Message: "test", UserID: "test"}
	status, err := c.doJSON(ctx, "probe", http.MethodPost, eps.Chat, "", probe, nil, timeout)
	switch {
	case err == nil, status == http.StatusBadRequest, status == http.StatusUnauthorized:
		return ProbeResult{State: ProbeReachable, Status: status}
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable:
		return ProbeResult{State: ProbeDegraded, Status: status}
	default:
		return ProbeResult{State: ProbeUnreachable, Status: status}
	}
}

// doJSON executes one JSON request and decodes the body into out when it is
// non-nil. It returns the HTTP status code alongside the classified error so
// callers can branch on specific statuses without re-parsing messages.
func (c *Client) doJSON(ctx context.Context, op, method, target, token string, body, out any, timeout time.Duration) (int, error) {
	if c.metrics != nil {
		start := time.Now()
		defer func() {
			c.metrics.RequestLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to marshal request", err)
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The request never reached the server.
		return 0, dErrors.NewNetwork(dErrors.CodeTransport,
			"unable to reach the companion backend", c.endpoints.Base, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, dErrors.NewNetwork(dErrors.CodeTransport,
			"failed to read backend response", c.endpoints.Base, err)
	}

	if err := classifyStatus(resp.StatusCode, c.endpoints.Base); err != nil {
		return resp.StatusCode, err
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, dErrors.NewNetwork(dErrors.CodeInternal,
				"failed to parse backend response", c.endpoints.Base, err)
		}
	}
	return resp.StatusCode, nil
}

func classifyStatus(status int, base string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return dErrors.NewNetwork(dErrors.CodeUnavailable,
			fmt.Sprintf("backend temporarily unavailable (status %d)", status), base, nil)
	case status == http.StatusUnauthorized:
		return dErrors.NewNetwork(dErrors.CodeUnauthorized, "session rejected by backend", base, nil)
	case status == http.StatusNotFound:
		return dErrors.NewNetwork(dErrors.CodeNotFound, "resource not found", base, nil)
	default:
		return dErrors.NewNetwork(dErrors.CodeInternal,
			fmt.Sprintf("unexpected backend status %d", status), base, nil)
	}
}
