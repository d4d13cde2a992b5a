package models

import (
	"fmt"
	"time"
)

// HazardKind is the canonical hazard taxonomy. Some upstream producers
// still emit "warning" for downed power infrastructure; that alias is
// normalized to HazardPower at the decode boundary.
type HazardKind string

const (
	HazardPower HazardKind = "power"
	HazardFire  HazardKind = "fire"
)

// NormalizeHazardKind maps legacy kind names onto the canonical taxonomy
func NormalizeHazardKind(s string) HazardKind {
	if s == "warning" {
		return HazardPower
	}
	return HazardKind(s)
}

// Severity is an ordered scale driving badge color and route avoidance
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Rank returns the position of s on the severity scale, 0 for unknown
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityModerate:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Hazard is a reported danger area on the map
type Hazard struct {
	ID        string     `json:"id" db:"id"`
	Kind      HazardKind `json:"type" db:"kind"`
	Location  LatLng     `json:"location"`
	Severity  Severity   `json:"severity" db:"severity"`
	Details   string     `json:"details" db:"details"`
	CreatedBy string     `json:"createdBy" db:"created_by"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// HazardRow is the persisted form of a hazard report
type HazardRow struct {
	ID        string  `db:"id"`
	Kind      string  `db:"kind"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	Severity  string  `db:"severity"`
	Details   string  `db:"details"`
	CreatedBy string  `db:"created_by"`
	CreatedAt int64   `db:"created_at"`
}

func (h Hazard) ToRow() HazardRow {
	return HazardRow{
		ID:        h.ID,
		Kind:      string(h.Kind),
		Latitude:  h.Location.Lat,
		Longitude: h.Location.Lng,
		Severity:  string(h.Severity),
		Details:   h.Details,
		CreatedBy: h.CreatedBy,
		CreatedAt: h.CreatedAt.Unix(),
	}
}

func (r HazardRow) ToHazard() Hazard {
	return Hazard{
		ID:        r.ID,
		Kind:      NormalizeHazardKind(r.Kind),
		Location:  LatLng{Lat: r.Latitude, Lng: r.Longitude},
		Severity:  Severity(r.Severity),
		Details:   r.Details,
		CreatedBy: r.CreatedBy,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
}

// FormatTimeAgo renders a hazard age for the detail panel and alert text
func FormatTimeAgo(t, now time.Time) string {
	minutes := int(now.Sub(t).Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hr ago", hours)
	}
	days := hours / 24
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
