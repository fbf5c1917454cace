package facematch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Encoding is a face embedding returned by the face matching provider.
type Encoding []float64

// Provider is the face encoding capability consumed by the frame
// validator. One call returns an encoding per face found in the image.
type Provider interface {
	Encode(ctx context.Context, image []byte) ([]Encoding, error)
}

// Client represents the face matching service client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// EncodeRequest represents the request to encode faces in one image.
type EncodeRequest struct {
	Image []byte `json:"image"` // standard base64 via encoding/json
}

// EncodeResponse represents the encodings of every face found.
type EncodeResponse struct {
	Encodings []Encoding `json:"encodings"`
}

// NewClient creates a new face matching service client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // face encoding can be slow on CPU
		},
		logger: logger,
	}
}

// Encode sends one image and returns an encoding per detected face.
func (c *Client) Encode(ctx context.Context, image []byte) ([]Encoding, error) {
	reqBody := EncodeRequest{
		Image: image,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/encode", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face matching service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result EncodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Encodings, nil
}
