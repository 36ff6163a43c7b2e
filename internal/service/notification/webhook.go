package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var _ WebhookService = (*HTTPWebhookService)(nil)

// HTTPWebhookService 以 JSON POST 推送
type HTTPWebhookService struct {
	client *http.Client
}

func NewHTTPWebhookService(timeout time.Duration) *HTTPWebhookService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPWebhookService{client: &http.Client{Timeout: timeout}}
}

func (s *HTTPWebhookService) Send(ctx context.Context, url string, data map[string]any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}
	return nil
}
