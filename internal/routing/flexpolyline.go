package routing

import (
	"fmt"
	"math"

	"skyrescue-backend/internal/models"
)

// HERE's flexible polyline encoding: URL-safe base64 alphabet, values in
// 5-bit chunks with a continuation bit, coordinates as zigzag deltas.
const flexAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var flexDecode [128]int8

func init() {
	for i := range flexDecode {
		flexDecode[i] = -1
	}
	for i := 0; i < len(flexAlphabet); i++ {
		flexDecode[flexAlphabet[i]] = int8(i)
	}
}

// DecodePolyline decodes a flexible-polyline string into coordinates.
// A third dimension, when present, is decoded and discarded.
func DecodePolyline(encoded string) ([]models.LatLng, error) {
	pos := 0

	readUnsigned := func() (uint64, error) {
		var result uint64
		var shift uint
		for {
			if pos >= len(encoded) {
				return 0, fmt.Errorf("truncated polyline at offset %d", pos)
			}
			c := encoded[pos]
			if c >= 128 || flexDecode[c] < 0 {
				return 0, fmt.Errorf("invalid polyline character %q at offset %d", c, pos)
			}
			v := uint64(flexDecode[c])
			pos++
			result |= (v & 0x1F) << shift
			if v < 0x20 {
				return result, nil
			}
			shift += 5
		}
	}

	readSigned := func() (int64, error) {
		u, err := readUnsigned()
		if err != nil {
			return 0, err
		}
		return int64(u>>1) ^ -int64(u&1), nil
	}

	version, err := readUnsigned()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported polyline version %d", version)
	}

	header, err := readUnsigned()
	if err != nil {
		return nil, err
	}
	precision2D := header & 15
	type3D := (header >> 4) & 7
	factor := math.Pow10(int(precision2D))

	var path []models.LatLng
	var lat, lng int64
	for pos < len(encoded) {
		dLat, err := readSigned()
		if err != nil {
			return nil, err
		}
		dLng, err := readSigned()
		if err != nil {
			return nil, err
		}
		lat += dLat
		lng += dLng
		if type3D != 0 {
			if _, err := readSigned(); err != nil {
				return nil, err
			}
		}
		path = append(path, models.LatLng{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}
	return path, nil
}
