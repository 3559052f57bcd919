// Package notify announces archived chunks to an external workflow webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vod-archiver/internal/archive"
)

const userAgent = "vod-archiver/0.1.0"

// Service is the notification surface used by the planner.
type Service interface {
	ChunkArchived(ctx context.Context, rec archive.ChunkRecord) error
}

// NewService builds a webhook-backed notifier. When no webhook URL is
// configured, a noop implementation is returned.
func NewService(webhookURL string, timeout time.Duration) Service {
	if webhookURL == "" {
		return noopService{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhookService{
		endpoint: webhookURL,
		client:   &http.Client{Timeout: timeout},
	}
}

type noopService struct{}

func (noopService) ChunkArchived(context.Context, archive.ChunkRecord) error { return nil }

type webhookService struct {
	endpoint string
	client   *http.Client
}

type chunkPayload struct {
	Folder    string `json:"folder"`
	Target    string `json:"target"`
	SourceURL string `json:"source_url"`
	Chunk     int    `json:"chunk"`
}

// ChunkArchived posts the chunk's folder and position to the webhook so a
// downstream workflow can pick the files up.
func (s *webhookService) ChunkArchived(ctx context.Context, rec archive.ChunkRecord) error {
	body, err := json.Marshal(chunkPayload{
		Folder:    rec.Title,
		Target:    rec.Target,
		SourceURL: rec.SourceURL,
		Chunk:     rec.ChunkIndex,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
