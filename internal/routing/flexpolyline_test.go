package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePolyline(t *testing.T) {
	// Reference encoding of a short path near Frankfurt at precision 5.
	path, err := DecodePolyline("BFoz5xJ67i1B1B7PzIhaxL7Y")
	require.NoError(t, err)
	require.Len(t, path, 4)

	assert.InDelta(t, 50.1022829, path[0].Lat, 1e-6)
	assert.InDelta(t, 8.6982122, path[0].Lng, 1e-6)
	assert.InDelta(t, 50.1020076, path[1].Lat, 1e-6)
	assert.InDelta(t, 8.6956695, path[1].Lng, 1e-6)
	assert.InDelta(t, 50.1006313, path[2].Lat, 1e-6)
	assert.InDelta(t, 8.6914960, path[2].Lng, 1e-6)
	assert.InDelta(t, 50.0987800, path[3].Lat, 1e-6)
	assert.InDelta(t, 8.6875156, path[3].Lng, 1e-6)
}

func TestDecodePolylineRejectsBadInput(t *testing.T) {
	_, err := DecodePolyline("!!not-a-polyline!!")
	assert.Error(t, err)

	// Version byte other than 1.
	_, err = DecodePolyline("CFoz5xJ67i1B")
	assert.Error(t, err)
}

func TestDecodePolylineEmptyPath(t *testing.T) {
	// Version + header only, no coordinates.
	path, err := DecodePolyline("BF")
	require.NoError(t, err)
	assert.Empty(t, path)
}
