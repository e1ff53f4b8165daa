package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource yields the bearer credential for backend calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds the HTTP client settings.
type Config struct {
	BaseURL string `mapstructure:"base_url"`

	// AudioURL is the text-to-speech function endpoint. Optional.
	AudioURL string `mapstructure:"audio_url"`

	Timeout time.Duration `mapstructure:"timeout"`

	// RequestsPerSecond and Burst shape outgoing traffic. Zero disables
	// limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:8000",
		Timeout:           60 * time.Second,
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL  string
	audioURL string
	http     *http.Client
	tokens   TokenSource
	limiter  *rate.Limiter
	metrics  *Metrics
	log      *zap.Logger
}

// NewClient creates a backend client. metrics and log may be nil.
func NewClient(cfg Config, tokens TokenSource, metrics *Metrics, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		audioURL: cfg.AudioURL,
		http:     &http.Client{Timeout: cfg.Timeout},
		tokens:   tokens,
		limiter:  limiter,
		metrics:  metrics,
		log:      log.Named("backend"),
	}, nil
}

// CreateSession validates the form and asks the service for a new session.
func (c *Client) CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var resp sessionResponse
	if err := c.do(ctx, "create_session", http.MethodPost, c.baseURL+"/interview/create_interview_session", in, &resp); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess, err := resp.session()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if sess.SessionID == "" {
		return nil, fmt.Errorf("create session: response has no session id")
	}
	if sess.JobRole == "" {
		sess.JobRole = in.JobRole
	}
	return sess, nil
}

// FetchQuestions loads the questions of an existing session.
func (c *Client) FetchQuestions(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	var resp sessionResponse
	endpoint := c.baseURL + "/interview/session/" + url.PathEscape(sessionID)
	if err := c.do(ctx, "fetch_questions", http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	sess, err := resp.session()
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	if sess.SessionID == "" {
		sess.SessionID = sessionID
	}
	return sess, nil
}

// EvaluateAnswer scores one answer.
func (c *Client) EvaluateAnswer(ctx context.Context, in EvaluateInput) (*Evaluation, error) {
	var resp evaluationResponse
	if err := c.do(ctx, "evaluate_answer", http.MethodPost, c.baseURL+"/interview/evaluate_answer", in, &resp); err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}
	eval, err := resp.evaluation()
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}
	return eval, nil
}

// GenerateAudio asks the text-to-speech function for a spoken rendition of
// text and returns the clip URL.
func (c *Client) GenerateAudio(ctx context.Context, text string) (string, error) {
	if c.audioURL == "" {
		return "", fmt.Errorf("generate audio: no audio endpoint configured")
	}
	var resp audioResponse
	body := map[string]string{"text": text}
	if err := c.do(ctx, "generate_audio", http.MethodPost, c.audioURL, body, &resp); err != nil {
		return "", fmt.Errorf("generate audio: %w", err)
	}
	if resp.AudioURL == "" {
		return "", fmt.Errorf("generate audio: response has no audioUrl")
	}
	return resp.AudioURL, nil
}

// do performs an authenticated JSON request and decodes the response into
// out. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op, 0, time.Since(start))
		c.log.Warn("backend request failed", zap.String("operation", op), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	elapsed := time.Since(start)
	c.metrics.observe(op, resp.StatusCode, elapsed)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("backend request",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var d detailResponse
		if json.Unmarshal(data, &d) == nil {
			apiErr.Detail = detailText(d.Detail)
		}
		if apiErr.Detail == "" {
			apiErr.Detail = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
