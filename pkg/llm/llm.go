// Package llm implements the translation provider contract: a single
// text-generation operation with retry and connection pooling, composed
// with marker-based extraction, across three wire-format variants.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vasic-labs/doctranslate/pkg/prompt"
)

// Variant selects the wire format a Provider speaks.
type Variant string

const (
	// VariantLocal speaks the Ollama-style generate API:
	// POST {model, prompt, stream:false, options:{num_ctx}}, reads .response.
	VariantLocal Variant = "local"
	// VariantHostedChat speaks an OpenAI-compatible chat completions API:
	// POST {model, messages:[{role,content}], stream:false} with bearer auth,
	// reads .choices[0].message.content.
	VariantHostedChat Variant = "hosted-chat"
	// VariantHostedMultimodal speaks the Gemini generateContent API:
	// POST {contents:[{parts:[{text}]}], generationConfig:{...}} with an
	// API-key header, reads .candidates[0].content.parts[0].text.
	VariantHostedMultimodal Variant = "hosted-multimodal"
)

// Defaults mirrored from the reference implementation's configuration.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultMaxAttempts    = 2
	DefaultRetryDelay     = 2 * time.Second
	DefaultOllamaNumCtx   = 2048
	DefaultMaxIdlePerHost = 5
	DefaultMaxIdleTotal   = 10
)

// Config configures a single Provider instance.
type Config struct {
	Variant Variant

	// APIEndpoint is the full request URL for VariantLocal and
	// VariantHostedChat. For VariantHostedMultimodal the model id is
	// appended to a fixed Gemini API base unless APIEndpoint is set
	// explicitly.
	APIEndpoint string
	APIKey      string
	Model       string

	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	NumCtx      int

	// RateLimitPerSecond bounds outbound requests issued through this
	// provider instance; zero disables limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.NumCtx <= 0 {
		c.NumCtx = DefaultOllamaNumCtx
	}
}

// Provider is a reusable LLM client: one HTTP client per instance, shared
// across every call, with keep-alive connection pooling.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	extractRe  *regexp.Regexp
}

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models/"

// New constructs a Provider. When cfg.Variant is VariantLocal but the model
// id begins with "gemini", the variant is transparently switched to
// VariantHostedMultimodal (spec.md §4.1 auto-variant selection).
func New(cfg Config) *Provider {
	cfg.applyDefaults()
	if cfg.Variant == VariantLocal && strings.HasPrefix(cfg.Model, "gemini") {
		cfg.Variant = VariantHostedMultimodal
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleTotal,
		MaxIdleConnsPerHost: DefaultMaxIdlePerHost,
		IdleConnTimeout:     90 * time.Second,
	}

	var limiter *rate.Limiter
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}

	escapedIn := regexp.QuoteMeta(prompt.OutputTagIn)
	escapedOut := regexp.QuoteMeta(prompt.OutputTagOut)

	return &Provider{
		cfg:        cfg,
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		limiter:    limiter,
		extractRe:  regexp.MustCompile("(?s)" + escapedIn + "(.*?)" + escapedOut),
	}
}

// Close drains the provider's HTTP connection pool.
func (p *Provider) Close() {
	p.httpClient.CloseIdleConnections()
}

// Failure kinds, classified by behaviour rather than by concrete error
// type, per spec.md §7.
var (
	ErrTransient = errors.New("llm: transient failure")
)

// Generate sends prompt to the provider and returns the raw response text,
// retrying transient failures (timeout, non-2xx, malformed body, transport
// error) up to cfg.MaxAttempts times with a fixed delay between attempts.
// On final failure it returns an error; it never panics.
func (p *Provider) Generate(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(p.cfg.RetryDelay):
			}
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		result, err := p.doRequest(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %v", ErrTransient, lastErr)
}

func (p *Provider) doRequest(ctx context.Context, text string) (string, error) {
	switch p.cfg.Variant {
	case VariantHostedChat:
		return p.doHostedChat(ctx, text)
	case VariantHostedMultimodal:
		return p.doHostedMultimodal(ctx, text)
	default:
		return p.doLocal(ctx, text)
	}
}

func (p *Provider) postJSON(ctx context.Context, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("non-2xx status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type localRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type localResponse struct {
	Response string `json:"response"`
}

func (p *Provider) doLocal(ctx context.Context, text string) (string, error) {
	payload := localRequest{
		Model:   p.cfg.Model,
		Prompt:  text,
		Stream:  false,
		Options: map[string]interface{}{"num_ctx": p.cfg.NumCtx},
	}

	body, err := p.postJSON(ctx, p.cfg.APIEndpoint, nil, payload)
	if err != nil {
		return "", err
	}

	var parsed localResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed JSON body: %w", err)
	}
	return parsed.Response, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *Provider) doHostedChat(ctx context.Context, text string) (string, error) {
	payload := chatRequest{
		Model:    p.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: text}},
		Stream:   false,
	}

	headers := map[string]string{}
	if p.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.cfg.APIKey
	}

	body, err := p.postJSON(ctx, p.cfg.APIEndpoint, headers, payload)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed JSON body: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

type multimodalRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type multimodalResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *Provider) doHostedMultimodal(ctx context.Context, text string) (string, error) {
	var payload multimodalRequest
	payload.Contents = []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}{{Parts: []struct {
		Text string `json:"text"`
	}{{Text: text}}}}
	payload.GenerationConfig.Temperature = 0.7
	payload.GenerationConfig.MaxOutputTokens = 2048

	endpoint := p.cfg.APIEndpoint
	if endpoint == "" {
		endpoint = geminiAPIBase + p.cfg.Model + ":generateContent"
	}
	headers := map[string]string{"x-goog-api-key": p.cfg.APIKey}

	body, err := p.postJSON(ctx, endpoint, headers, payload)
	if err != nil {
		return "", err
	}

	var parsed multimodalResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed JSON body: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// Translate composes Generate with extraction of text between the fixed
// <TRANSLATED>/</TRANSLATED> markers. originalInput is the untranslated main
// content; if the markers are absent and the raw response contains
// originalInput verbatim, the response is treated as an echoed prompt and
// discarded (ok=false). If markers are absent and there is no echo, the
// trimmed raw response is returned as a fallback.
func (p *Provider) Translate(ctx context.Context, llmPrompt, originalInput string) (translated string, ok bool, err error) {
	raw, err := p.Generate(ctx, llmPrompt)
	if err != nil {
		return "", false, err
	}
	if raw == "" {
		return "", false, nil
	}

	if match := p.extractRe.FindStringSubmatch(raw); match != nil {
		return strings.TrimSpace(match[1]), true, nil
	}

	if originalInput != "" && strings.Contains(raw, originalInput) {
		return "", false, nil
	}
	return strings.TrimSpace(raw), true, nil
}

// ListModels is an idempotent discovery operation for the outer discovery
// endpoint; the core translation pipeline never calls it. Only
// VariantHostedMultimodal lists models; every other variant returns an
// error.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	switch p.cfg.Variant {
	case VariantHostedMultimodal:
		return p.listGeminiModels(ctx)
	default:
		return nil, fmt.Errorf("llm: list_models not supported for variant %s", p.cfg.Variant)
	}
}

type geminiModelsResponse struct {
	Models []struct {
		Name                     string   `json:"name"`
		SupportedGenerationTypes []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

func (p *Provider) listGeminiModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://generativelanguage.googleapis.com/v1beta/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("non-2xx status %d", resp.StatusCode)
	}

	var parsed geminiModelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		name := strings.TrimPrefix(m.Name, "models/")
		for _, method := range m.SupportedGenerationTypes {
			if method == "generateContent" {
				names = append(names, name)
				break
			}
		}
	}
	return names, nil
}
