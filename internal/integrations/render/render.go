package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dan9191/stress-service/internal/config"
	"github.com/Dan9191/stress-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxDocumentSize = 20 << 20

// Client posts report payloads to the document rendering service
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a rendering client. It returns nil when no
// rendering service is configured.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	if cfg.RenderURL == "" {
		return nil
	}
	return &Client{
		url: cfg.RenderURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Render returns the PDF document for the payload
func (c *Client) Render(ctx context.Context, payload *models.ReportPayload) ([]byte, error) {
	body, err := json.Marshal(map[string]interface{}{"payload": payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	doc, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if len(doc) > maxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
	}

	c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"bytes":      len(doc),
		"elapsed":    time.Since(start).String(),
	}).Info("Report rendered")
	return doc, nil
}
