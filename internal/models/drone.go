package models

import "time"

// Drone is the live status of a deployed drone. Name is the unique key;
// updates to an existing name replace that entry in place.
type Drone struct {
	Name               string    `json:"name" db:"name"`
	IsConnected        bool      `json:"isConnected" db:"is_connected"`
	BatteryLevel       int       `json:"batteryLevel" db:"battery_level"`
	Position           LatLng    `json:"location"`
	StartingCoordinate string    `json:"startingCoordinate" db:"starting_coordinate"`
	LastUpdate         time.Time `json:"timestamp" db:"last_update"`
}

// DroneRow is the persisted form of a drone status snapshot
type DroneRow struct {
	Name               string  `db:"name"`
	IsConnected        bool    `db:"is_connected"`
	BatteryLevel       int     `db:"battery_level"`
	Latitude           float64 `db:"latitude"`
	Longitude          float64 `db:"longitude"`
	StartingCoordinate string  `db:"starting_coordinate"`
	LastUpdate         int64   `db:"last_update"`
}

func (d Drone) ToRow() DroneRow {
	return DroneRow{
		Name:               d.Name,
		IsConnected:        d.IsConnected,
		BatteryLevel:       d.BatteryLevel,
		Latitude:           d.Position.Lat,
		Longitude:          d.Position.Lng,
		StartingCoordinate: d.StartingCoordinate,
		LastUpdate:         d.LastUpdate.Unix(),
	}
}

func (r DroneRow) ToDrone() Drone {
	return Drone{
		Name:               r.Name,
		IsConnected:        r.IsConnected,
		BatteryLevel:       r.BatteryLevel,
		Position:           LatLng{Lat: r.Latitude, Lng: r.Longitude},
		StartingCoordinate: r.StartingCoordinate,
		LastUpdate:         time.Unix(r.LastUpdate, 0).UTC(),
	}
}
