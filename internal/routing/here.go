package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skyrescue-backend/internal/models"
)

// RouteRequest describes a single pedestrian routing request.
type RouteRequest struct {
	Origin      models.LatLng
	Destination models.LatLng
	Via         *models.LatLng
	AvoidAreas  []models.BoundingBox
}

// RouteResult is a computed path with its total length.
type RouteResult struct {
	Path           []models.LatLng
	DistanceMeters float64
}

// RouteService computes walking routes between two coordinates.
type RouteService interface {
	CalculateRoute(ctx context.Context, req RouteRequest) (*RouteResult, error)
}

// HereClient calls the HERE Routing API v8.
type HereClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *RouteCache
}

// NewHereClient creates a routing client for api.hereapi.com.
func NewHereClient(apiKey string) *HereClient {
	return &HereClient{
		apiKey:  apiKey,
		baseURL: "https://router.hereapi.com/v8/routes",
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   NewRouteCache(),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *HereClient) SetBaseURL(u string) {
	c.baseURL = u
}

// CalculateRoute calls HERE Routing v8 for a pedestrian route.
func (c *HereClient) CalculateRoute(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	signature := c.cache.GenerateSignature(req)
	if cached, ok := c.cache.Get(signature); ok {
		log.Printf("🗺️  [HERE] Cache hit for route %s", signature)
		return cached, nil
	}

	log.Printf("🗺️  [HERE] Requesting pedestrian route")
	log.Printf("   Origin: (%.6f, %.6f)", req.Origin.Lat, req.Origin.Lng)
	log.Printf("   Destination: (%.6f, %.6f)", req.Destination.Lat, req.Destination.Lng)
	if len(req.AvoidAreas) > 0 {
		log.Printf("   Avoiding %d hazard zones", len(req.AvoidAreas))
	}

	params := url.Values{}
	params.Add("apiKey", c.apiKey)
	params.Add("routingMode", "fast")
	params.Add("transportMode", "pedestrian")
	params.Add("return", "polyline,summary")
	params.Add("origin", fmt.Sprintf("%f,%f", req.Origin.Lat, req.Origin.Lng))
	params.Add("destination", fmt.Sprintf("%f,%f", req.Destination.Lat, req.Destination.Lng))
	if req.Via != nil {
		params.Add("via", fmt.Sprintf("%f,%f", req.Via.Lat, req.Via.Lng))
	}
	if len(req.AvoidAreas) > 0 {
		params.Add("avoid[areas]", formatAvoidAreas(req.AvoidAreas))
	}

	fullURL := c.baseURL + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("   ❌ HERE API error (%d): %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("HERE API returned status %d: %s", resp.StatusCode, string(body))
	}

	var hereResp struct {
		Routes []struct {
			Sections []struct {
				Polyline string `json:"polyline"`
				Summary  struct {
					Length   float64 `json:"length"` // meters
					Duration float64 `json:"duration"`
				} `json:"summary"`
			} `json:"sections"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(body, &hereResp); err != nil {
		log.Printf("   ❌ Failed to parse HERE response: %v", err)
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(hereResp.Routes) == 0 || len(hereResp.Routes[0].Sections) == 0 {
		return nil, fmt.Errorf("HERE API returned no route")
	}

	result := &RouteResult{}
	for _, section := range hereResp.Routes[0].Sections {
		points, err := DecodePolyline(section.Polyline)
		if err != nil {
			return nil, fmt.Errorf("failed to decode polyline: %w", err)
		}
		result.Path = append(result.Path, points...)
		result.DistanceMeters += section.Summary.Length
	}

	log.Printf("   ✅ Route found: %d points, %.0fm", len(result.Path), result.DistanceMeters)
	c.cache.Set(signature, result)
	return result, nil
}

// formatAvoidAreas renders bounding boxes in HERE's avoid[areas] syntax:
// bbox:{west},{north},{east},{south} entries joined with "|".
func formatAvoidAreas(areas []models.BoundingBox) string {
	parts := make([]string, 0, len(areas))
	for _, a := range areas {
		parts = append(parts, fmt.Sprintf("bbox:%f,%f,%f,%f", a.West, a.North, a.East, a.South))
	}
	return strings.Join(parts, "|")
}
