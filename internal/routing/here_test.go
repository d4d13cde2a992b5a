package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrescue-backend/internal/models"
)

func TestHereClientCalculateRoute(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"apiKey":        q.Get("apiKey"),
			"routingMode":   q.Get("routingMode"),
			"transportMode": q.Get("transportMode"),
			"origin":        q.Get("origin"),
			"destination":   q.Get("destination"),
			"avoid[areas]":  q.Get("avoid[areas]"),
		}
		fmt.Fprint(w, `{"routes":[{"sections":[{"polyline":"BFoz5xJ67i1B1B7PzIhaxL7Y","summary":{"length":1500,"duration":1080}}]}]}`)
	}))
	defer server.Close()

	client := NewHereClient("test-key")
	client.SetBaseURL(server.URL)

	result, err := client.CalculateRoute(context.Background(), RouteRequest{
		Origin:      models.LatLng{Lat: 35.7796, Lng: -78.6382},
		Destination: models.LatLng{Lat: 35.7816, Lng: -78.6422},
		AvoidAreas: []models.BoundingBox{
			{West: -78.6327, North: 35.7771, East: -78.6317, South: 35.7761},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotQuery["apiKey"])
	assert.Equal(t, "fast", gotQuery["routingMode"])
	assert.Equal(t, "pedestrian", gotQuery["transportMode"])
	assert.Equal(t, "35.779600,-78.638200", gotQuery["origin"])
	assert.Equal(t, "35.781600,-78.642200", gotQuery["destination"])
	assert.Equal(t, "bbox:-78.632700,35.777100,-78.631700,35.776100", gotQuery["avoid[areas]"])

	assert.Len(t, result.Path, 4)
	assert.Equal(t, 1500.0, result.DistanceMeters)
	assert.InDelta(t, 50.1022829, result.Path[0].Lat, 1e-6)
}

func TestHereClientCachesRoutes(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"routes":[{"sections":[{"polyline":"BFoz5xJ67i1B1B7PzIhaxL7Y","summary":{"length":800,"duration":600}}]}]}`)
	}))
	defer server.Close()

	client := NewHereClient("test-key")
	client.SetBaseURL(server.URL)

	req := RouteRequest{
		Origin:      models.LatLng{Lat: 35.7796, Lng: -78.6382},
		Destination: models.LatLng{Lat: 35.7816, Lng: -78.6422},
	}
	_, err := client.CalculateRoute(context.Background(), req)
	require.NoError(t, err)
	_, err = client.CalculateRoute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// Different avoid areas must not reuse the cached route.
	req.AvoidAreas = []models.BoundingBox{{West: -78.64, North: 35.78, East: -78.63, South: 35.77}}
	_, err = client.CalculateRoute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestRouteCacheSignatureCoversAllBoxEdges(t *testing.T) {
	cache := NewRouteCache()
	base := RouteRequest{
		Origin:      models.LatLng{Lat: 35.7796, Lng: -78.6382},
		Destination: models.LatLng{Lat: 35.7816, Lng: -78.6422},
		AvoidAreas:  []models.BoundingBox{{West: -78.64, North: 35.78, East: -78.63, South: 35.77}},
	}

	// Same West/North corner, different East/South edges.
	narrower := base
	narrower.AvoidAreas = []models.BoundingBox{{West: -78.64, North: 35.78, East: -78.635, South: 35.775}}

	assert.NotEqual(t, cache.GenerateSignature(base), cache.GenerateSignature(narrower))
}

func TestHereClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewHereClient("bad-key")
	client.SetBaseURL(server.URL)

	_, err := client.CalculateRoute(context.Background(), RouteRequest{})
	assert.ErrorContains(t, err, "status 401")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"routes":[]}`)
	}))
	defer empty.Close()

	client2 := NewHereClient("test-key")
	client2.SetBaseURL(empty.URL)
	_, err = client2.CalculateRoute(context.Background(), RouteRequest{Origin: models.LatLng{Lat: 1}})
	assert.ErrorContains(t, err, "no route")
}
