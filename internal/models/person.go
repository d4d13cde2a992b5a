package models

import "time"

// Person is a single person detection produced by a drone's vision pipeline.
// BBox carries the detection bounding box; only the first two components
// (lat, lng) are meaningful for map placement.
type Person struct {
	ID         string     `json:"id" db:"id"`
	Confidence float64    `json:"confidence" db:"confidence"`
	BBox       [4]float64 `json:"bbox"`
	Image      string     `json:"image" db:"image"` // base64 thumbnail, may be empty
	DetectedAt time.Time  `json:"timestamp" db:"detected_at"`
}

// Position returns the mapped coordinate of the detection
func (p Person) Position() LatLng {
	return LatLng{Lat: p.BBox[0], Lng: p.BBox[1]}
}

// PersonRow is the persisted form of a detection
type PersonRow struct {
	ID         string  `db:"id"`
	Confidence float64 `db:"confidence"`
	Latitude   float64 `db:"latitude"`
	Longitude  float64 `db:"longitude"`
	Image      string  `db:"image"`
	DetectedAt int64   `db:"detected_at"`
}

func (p Person) ToRow() PersonRow {
	return PersonRow{
		ID:         p.ID,
		Confidence: p.Confidence,
		Latitude:   p.BBox[0],
		Longitude:  p.BBox[1],
		Image:      p.Image,
		DetectedAt: p.DetectedAt.Unix(),
	}
}

func (r PersonRow) ToPerson() Person {
	return Person{
		ID:         r.ID,
		Confidence: r.Confidence,
		BBox:       [4]float64{r.Latitude, r.Longitude, 0, 0},
		Image:      r.Image,
		DetectedAt: time.Unix(r.DetectedAt, 0).UTC(),
	}
}
