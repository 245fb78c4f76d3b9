package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OCRClient talks to the OCR sidecar service: image bytes in, recognized
// text out as JSON.
type OCRClient struct {
	baseURL string
	client  *http.Client
}

func NewOCRClient(baseURL string) *OCRClient {
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	return &OCRClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ocrResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (c *OCRClient) Recognize(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ocr service: status %d", resp.StatusCode)
	}

	var decoded ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ocr service: %s", decoded.Error)
	}
	return decoded.Text, nil
}
