package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjannette/contract-gateway/internal/httputil"
)

const defaultName = "ContractGateway"

// Sender posts gateway events to a Slack or Discord compatible webhook.
// With no webhook configured events are only logged.
type Sender struct {
	webhookURL string
	name       string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *zap.Logger
}

func NewSender(webhookURL, name string, log *zap.Logger) *Sender {
	if name == "" {
		name = defaultName
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("notify")
	return &Sender{
		webhookURL: webhookURL,
		name:       name,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				log.Warn("Webhook attempt failed, retrying",
					zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
			},
		},
		log: log,
	}
}

// Send delivers msg, blocking through retries. Failures are logged, never returned.
func (s *Sender) Send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.name, msg)
	s.log.Info(formatted)

	if s.webhookURL == "" {
		return
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		s.log.Error("Marshal webhook payload", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.log.Error("Failed to send notification after retries", zap.Error(err))
		return
	}
	resp.Body.Close()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.name,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.name,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
