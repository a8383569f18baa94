package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/infigaming-com/fxboard/rate"
	"github.com/infigaming-com/fxboard/request"
	"go.uber.org/zap"
)

const DefaultAPIBaseURL = "https://api.cloudflare.com"

type Config struct {
	APIToken string   `yaml:"api_token" env:"CLOUDFLARE_API_TOKEN"`
	ZoneID   string   `yaml:"zone_id" env:"CLOUDFLARE_ZONE_ID"`
	Files    []string `yaml:"files" env:"CLOUDFLARE_PURGE_FILES" env-separator:","`
}

// Enabled reports whether purging is configured at all.
func (c Config) Enabled() bool {
	return c.APIToken != "" && c.ZoneID != "" && len(c.Files) > 0
}

type purgeRequest struct {
	Files []string `json:"files"`
}

type purgeResponse struct {
	Success  bool             `json:"success"`
	Errors   []responseDetail `json:"errors"`
	Messages []responseDetail `json:"messages"`
}

type responseDetail struct {
	Message string `json:"message"`
}

// Purger drops cached copies of the rate pages from Cloudflare after the data behind them changed.
type Purger struct {
	lg         *zap.Logger
	cfg        Config
	apiBaseURL string
	client     *http.Client
	timeout    time.Duration
}

type Option func(*Purger)

func WithLogger(lg *zap.Logger) Option {
	return func(p *Purger) {
		if lg != nil {
			p.lg = lg
		}
	}
}

func WithAPIBaseURL(url string) Option {
	return func(p *Purger) {
		p.apiBaseURL = strings.TrimRight(url, "/")
	}
}

func WithHttpClient(client *http.Client) Option {
	return func(p *Purger) {
		p.client = client
	}
}

// WithTimeout bounds one purge including its retry.
func WithTimeout(d time.Duration) Option {
	return func(p *Purger) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPurger(cfg Config, opts ...Option) (*Purger, error) {
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, errors.New("cloudflare API token must not be empty")
	}
	if strings.TrimSpace(cfg.ZoneID) == "" {
		return nil, errors.New("cloudflare zone ID must not be empty")
	}
	if len(cfg.Files) == 0 {
		return nil, errors.New("files must not be empty")
	}

	p := &Purger{
		lg:         zap.L(),
		cfg:        cfg,
		apiBaseURL: DefaultAPIBaseURL,
		timeout:    15 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Purge clears the configured file URLs. Transport failures are retried once.
func (p *Purger) Purge(ctx context.Context) error {
	body, err := json.Marshal(purgeRequest{Files: p.cfg.Files})
	if err != nil {
		return fmt.Errorf("cloudflare purge marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/client/v4/zones/%s/purge_cache", p.apiBaseURL, p.cfg.ZoneID)

	opts := []request.Option{
		request.WithLogger(p.lg),
		request.WithRetry(1),
		request.WithRequestTimeout(5 * time.Second),
		request.WithRequestHeaders(map[string]string{
			"Authorization": "Bearer " + p.cfg.APIToken,
			"Content-Type":  "application/json",
		}),
	}
	if p.client != nil {
		opts = append(opts, request.WithHttpClient(p.client))
	}

	p.lg.Info("purging cloudflare cache", zap.String("zone_id", p.cfg.ZoneID), zap.Int("file_count", len(p.cfg.Files)))
	status, responseBody, err := request.Post(ctx, endpoint, body, opts...)
	if err != nil {
		return fmt.Errorf("cloudflare purge execute request: %w", err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("cloudflare purge unexpected status %d: %s", status, extractAPIError(responseBody))
	}

	var parsed purgeResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return fmt.Errorf("cloudflare purge decode response: %w", err)
	}
	if !parsed.Success {
		return fmt.Errorf("cloudflare purge unsuccessful: %s", extractFailureMessage(parsed))
	}

	p.lg.Info("cloudflare cache purge succeeded", zap.String("zone_id", p.cfg.ZoneID), zap.Int("file_count", len(p.cfg.Files)))
	return nil
}

// RefreshHook purges in the background after a snapshot was replaced, so the refresh itself never waits on Cloudflare.
func (p *Purger) RefreshHook() func(ctx context.Context, source rate.Source, snapshot *rate.Snapshot) {
	return func(ctx context.Context, source rate.Source, snapshot *rate.Snapshot) {
		go func() {
			purgeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
			defer cancel()
			if err := p.Purge(purgeCtx); err != nil {
				p.lg.Error("cloudflare purge after refresh failed",
					zap.String("source", source.String()),
					zap.String("digest", snapshot.Digest()),
					zap.Error(err),
				)
			}
		}()
	}
}

func extractAPIError(body []byte) string {
	var parsed purgeResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if message := extractFailureMessage(parsed); message != "" {
			return message
		}
	}
	return string(body)
}

func extractFailureMessage(resp purgeResponse) string {
	for _, detail := range resp.Errors {
		if detail.Message != "" {
			return detail.Message
		}
	}
	for _, detail := range resp.Messages {
		if detail.Message != "" {
			return detail.Message
		}
	}
	return ""
}
