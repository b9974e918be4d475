package ipgeo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/gaptime-companion/internal/domain/location"
	"github.com/yanqian/gaptime-companion/pkg/util"
)

const (
	defaultBaseURL = "http://ip-api.com/json/"
	// City-level fixes; reported so callers can tell them apart from GPS.
	ipAccuracyMeters = 5000
)

// Client resolves the caller's public IP address to a coarse position.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient builds an API client.
func NewClient(baseURL string) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		baseURL: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: util.NowUTC,
	}
}

// CurrentPosition implements location.Provider. The lookup is always low
// accuracy, so EnableHighAccuracy has no effect.
func (c *Client) CurrentPosition(ctx context.Context, _ location.Options) (location.Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return location.Position{}, fmt.Errorf("build geolocation request: %w", err)
	}
	q := req.URL.Query()
	q.Set("fields", "status,message,lat,lon")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return location.Position{}, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return location.Position{}, &location.Error{Code: location.PermissionDenied, Message: fmt.Sprintf("geolocation rejected: status=%d", resp.StatusCode)}
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return location.Position{}, &location.Error{Code: location.PositionUnavailable, Message: fmt.Sprintf("geolocation error: status=%d body=%s", resp.StatusCode, string(payload))}
	}

	var raw apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&raw); err != nil {
		return location.Position{}, fmt.Errorf("decode geolocation response: %w", err)
	}
	if raw.Status != "success" {
		return location.Position{}, &location.Error{Code: location.PositionUnavailable, Message: firstNonEmpty(raw.Message, "geolocation lookup failed")}
	}

	return location.Position{
		Latitude:  raw.Lat,
		Longitude: raw.Lon,
		Accuracy:  ipAccuracyMeters,
		Timestamp: c.now(),
	}, nil
}

type apiResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ location.Provider = (*Client)(nil)
