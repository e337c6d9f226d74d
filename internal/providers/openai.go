package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/chorusbot/chorus/internal/config"
)

var oracleCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "chorus",
	Subsystem: "oracle",
	Name:      "calls_total",
	Help:      "Oracle calls by outcome.",
}, []string{"outcome"})

// OpenAIProvider makes direct HTTP calls to any OpenAI-compatible
// chat-completions endpoint. A rate limiter keeps a burst of concurrent
// persona decisions from hammering the gateway.
type OpenAIProvider struct {
	apiKey       string
	apiBase      string
	model        string
	maxTokens    int
	temperature  float64
	extraHeaders map[string]string
	timeout      time.Duration
	limiter      *rate.Limiter
	httpClient   *http.Client
}

// NewOpenAIProvider constructs a provider from the oracle config block.
func NewOpenAIProvider(cfg config.OracleConfig) *OpenAIProvider {
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}

	return &OpenAIProvider{
		apiKey:       cfg.APIKey,
		apiBase:      base,
		model:        cfg.Model,
		maxTokens:    maxTokens,
		temperature:  cfg.Temperature,
		extraHeaders: cfg.ExtraHeaders,
		timeout:      timeout,
		limiter:      limiter,
		httpClient:   &http.Client{Timeout: timeout + 5*time.Second},
	}
}

func (p *OpenAIProvider) DefaultModel() string { return p.model }

// Ask implements Oracle via the /chat/completions endpoint.
func (p *OpenAIProvider) Ask(ctx context.Context, system string, messages []Message) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	wire := make([]map[string]string, 0, len(messages)+1)
	if system != "" {
		wire = append(wire, map[string]string{"role": "system", "content": system})
	}
	for _, m := range messages {
		wire = append(wire, map[string]string{"role": m.Role, "content": m.Content})
	}

	body := map[string]any{
		"model":       p.model,
		"messages":    wire,
		"max_tokens":  p.maxTokens,
		"temperature": p.temperature,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	for k, v := range p.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		oracleCalls.WithLabelValues("error").Inc()
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		oracleCalls.WithLabelValues("error").Inc()
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		oracleCalls.WithLabelValues("http_error").Inc()
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, friendlyHTTPError(resp.StatusCode, raw))
	}

	text, err := parseCompletion(raw)
	if err != nil {
		oracleCalls.WithLabelValues("parse_error").Inc()
		return "", err
	}
	oracleCalls.WithLabelValues("ok").Inc()
	return text, nil
}

func parseCompletion(raw []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contains no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// friendlyHTTPError extracts the provider's error message when present,
// falling back to a trimmed raw body.
func friendlyHTTPError(status int, raw []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return http.StatusText(status)
	}
	return s
}
