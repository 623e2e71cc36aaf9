package marker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPDetector posts JPEG bytes to a vision service.
//
// The service answers with JSON:
//
//	{"found": true, "id": 7, "corners": [{"x":..,"y":..}, ... 4 points]}
type HTTPDetector struct {
	URL    string
	Client *http.Client
}

// NewHTTPDetector returns a detector for url with the given request timeout.
func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDetector{URL: url, Client: &http.Client{Timeout: timeout}}
}

type detectResponse struct {
	Found   bool `json:"found"`
	ID      int  `json:"id"`
	Corners []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"corners"`
	Error string `json:"error,omitempty"`
}

// Detect implements Detector.
func (d *HTTPDetector) Detect(ctx context.Context, jpeg []byte) (*Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(jpeg))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call vision service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read vision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision service returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var dr detectResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}
	if dr.Error != "" {
		return nil, fmt.Errorf("vision service error: %s", dr.Error)
	}
	if !dr.Found {
		return &Detection{}, nil
	}
	if len(dr.Corners) != 4 {
		return nil, fmt.Errorf("vision service returned %d corners, want 4", len(dr.Corners))
	}

	det := &Detection{Found: true, ID: dr.ID}
	for i, c := range dr.Corners {
		det.Corners[i].X, det.Corners[i].Y = c.X, c.Y
	}
	return det, nil
}
