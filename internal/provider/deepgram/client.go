package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"murmur/internal/language"
	"murmur/internal/provider"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

const (
	defaultBaseURL   = "https://api.deepgram.com"
	defaultModel     = "nova-2"
	defaultMimeType  = "audio/wav"
	maxErrorBodySize = 4 << 10
)

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	SmartFormat bool
}

var _ provider.Transcriber = (*Client)(nil)

// Client wraps the /v1/listen endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The default has no
// client-level timeout; callers bound each call with a context deadline.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a provider client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:      strings.TrimSpace(cfg.APIKey),
			BaseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:       strings.TrimSpace(cfg.Model),
			SmartFormat: cfg.SmartFormat,
		},
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	return client
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// StatusError reports a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("deepgram: http %d", e.StatusCode)
	}
	return fmt.Sprintf("deepgram: http %d: %s", e.StatusCode, body)
}

// RetryDelay returns the Retry-After wait the server asked for.
func (e *StatusError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// Transient reports whether the status is worth retrying: rate limiting or a
// server-side failure.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Transcribe sends one audio buffer and returns the parsed response. Every
// failure wraps services.ErrProvider; a context deadline additionally wraps
// services.ErrTimeout, and a 429 or 5xx status wraps services.ErrTransient.
func (c *Client) Transcribe(ctx context.Context, req provider.Request) (transcript.Response, error) {
	if c.cfg.APIKey == "" {
		return transcript.Response{}, services.Wrap(services.ErrConfiguration, "provider", "transcribe", "api key required", nil)
	}
	if len(req.Audio) == 0 {
		return transcript.Response{}, services.Wrap(services.ErrValidation, "provider", "transcribe", "empty audio", nil)
	}
	endpoint, err := c.endpoint(req)
	if err != nil {
		return transcript.Response{}, services.Wrap(services.ErrProvider, "provider", "build url", "", err)
	}

	mime := strings.TrimSpace(req.MimeType)
	if mime == "" {
		mime = defaultMimeType
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.Audio))
	if err != nil {
		return transcript.Response{}, services.Wrap(services.ErrProvider, "provider", "new request", "", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", mime)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transcript.Response{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		if statusErr.Transient() {
			return transcript.Response{}, services.Wrap(services.ErrTransient, "provider", "transcribe", "",
				fmt.Errorf("%w: %w", services.ErrProvider, statusErr))
		}
		return transcript.Response{}, services.Wrap(services.ErrProvider, "provider", "transcribe", "", statusErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transcript.Response{}, classifyTransportError(ctx, err)
	}
	parsed, err := Parse(body)
	if err != nil {
		return transcript.Response{}, services.Wrap(services.ErrProvider, "provider", "decode", "", err)
	}
	if parsed.Model == "" {
		parsed.Model = c.cfg.Model
	}
	return parsed, nil
}

func (c *Client) endpoint(req provider.Request) (string, error) {
	base, err := url.JoinPath(c.cfg.BaseURL, "v1", "listen")
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("model", c.cfg.Model)
	params.Set("smart_format", strconv.FormatBool(c.cfg.SmartFormat))
	params.Set("punctuate", "true")
	if lang := strings.TrimSpace(req.Language); lang == "" || language.IsAuto(lang) {
		params.Set("detect_language", "true")
	} else {
		params.Set("language", lang)
	}
	if req.Diarize {
		params.Set("diarize", "true")
		params.Set("paragraphs", "true")
	}
	return base + "?" + params.Encode(), nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "provider", "transcribe", "attempt deadline exceeded",
				errors.Join(services.ErrProvider, err))
		}
		return services.Wrap(services.ErrProvider, "provider", "transcribe", "cancelled", ctxErr)
	}
	return services.Wrap(services.ErrProvider, "provider", "transcribe", "http error", err)
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}

type modelInfo struct {
	Name string `json:"name"`
}

type listenResponse struct {
	Metadata struct {
		Duration  float64              `json:"duration"`
		Channels  int                  `json:"channels"`
		ModelInfo map[string]modelInfo `json:"model_info"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string `json:"transcript"`
				Paragraphs *struct {
					Paragraphs []struct {
						Speaker   *int    `json:"speaker"`
						Start     float64 `json:"start"`
						End       float64 `json:"end"`
						Sentences []struct {
							Text string `json:"text"`
						} `json:"sentences"`
					} `json:"paragraphs"`
				} `json:"paragraphs"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Parse decodes a /v1/listen JSON body. The first alternative of the first
// channel is used.
func Parse(body []byte) (transcript.Response, error) {
	var raw listenResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return transcript.Response{}, fmt.Errorf("parse listen response: %w", err)
	}
	if len(raw.Results.Channels) == 0 || len(raw.Results.Channels[0].Alternatives) == 0 {
		return transcript.Response{}, errors.New("listen response has no alternatives")
	}
	channel := raw.Results.Channels[0]
	alt := channel.Alternatives[0]

	out := transcript.Response{
		Text:     strings.TrimSpace(alt.Transcript),
		Duration: raw.Metadata.Duration,
		Channels: raw.Metadata.Channels,
		Language: channel.DetectedLanguage,
		Model:    modelName(raw.Metadata.ModelInfo),
	}
	if alt.Paragraphs != nil {
		for _, p := range alt.Paragraphs.Paragraphs {
			if p.Speaker == nil {
				continue
			}
			parts := make([]string, 0, len(p.Sentences))
			for _, s := range p.Sentences {
				if text := strings.TrimSpace(s.Text); text != "" {
					parts = append(parts, text)
				}
			}
			if len(parts) == 0 {
				continue
			}
			out.Paragraphs = append(out.Paragraphs, transcript.Paragraph{
				Speaker: *p.Speaker,
				Start:   p.Start,
				End:     p.End,
				Text:    strings.Join(parts, " "),
			})
		}
	}
	return out, nil
}

func modelName(info map[string]modelInfo) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if name := strings.TrimSpace(info[k].Name); name != "" {
			return name
		}
	}
	return ""
}
