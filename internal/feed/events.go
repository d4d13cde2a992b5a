package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"skyrescue-backend/internal/models"
)

// Inbound frames are JSON objects dispatched on a string "event" field.
// Telemetry frames carry no event tag; they are recognized by shape.
const (
	eventDisplayHazards = "display_hazards"
	eventPlanRoute      = "plan_route"
	eventChatChunk      = "chat_chunk"
	eventAgentComplete  = "AGENT_RESPONSE_COMPLETE"
)

// Outbound frame events
const (
	EventDeploy    = "DEPLOY"
	EventQuery     = "query"
	EventGetDrones = "GET_DRONES"
)

// Event is the decoded form of an inbound frame, one variant per event name
type Event interface {
	isEvent()
}

// TelemetryEvent is the implicit {persons, frame, droneStatus} shape
type TelemetryEvent struct {
	Persons     []models.Person
	Frame       string
	DroneStatus *models.Drone
}

// DisplayHazardsEvent replaces the hazard-kind display filter and the
// drone/person visibility flags
type DisplayHazardsEvent struct {
	Filter models.DisplayFilter
}

// PlanRouteEvent carries the hazard kinds dismissed from route
// avoidance and the destination person id
type PlanRouteEvent struct {
	AvoidedKinds  []models.HazardKind
	DestinationID string
}

// ChatChunkEvent appends streamed text to the in-progress agent message
type ChatChunkEvent struct {
	Content string
}

// AgentCompleteEvent flushes the accumulated agent message
type AgentCompleteEvent struct{}

func (TelemetryEvent) isEvent()      {}
func (DisplayHazardsEvent) isEvent() {}
func (PlanRouteEvent) isEvent()      {}
func (ChatChunkEvent) isEvent()      {}
func (AgentCompleteEvent) isEvent()  {}

type rawFrame struct {
	Event   string          `json:"event"`
	Hazards []string        `json:"hazards"`
	Drones  *bool           `json:"drones"`
	Humans  *bool           `json:"humans"`
	ID      string          `json:"id"`
	Content string          `json:"content"`
	Persons json.RawMessage `json:"persons"`
	Frame   string          `json:"frame"`
	Status  json.RawMessage `json:"droneStatus"`
}

type rawPerson struct {
	ID         string     `json:"id"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
	Image      string     `json:"image"`
	Timestamp  string     `json:"timestamp"`
}

type rawDrone struct {
	Name               string        `json:"name"`
	IsConnected        bool          `json:"isConnected"`
	BatteryLevel       int           `json:"batteryLevel"`
	Location           models.LatLng `json:"location"`
	StartingCoordinate string        `json:"startingCoordinate"`
	Timestamp          string        `json:"timestamp"`
}

// DecodeEvent parses one inbound frame into its typed variant.
// Unknown event names are an error; callers log and skip the frame.
func DecodeEvent(data []byte, now time.Time) (Event, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	switch raw.Event {
	case eventDisplayHazards:
		filter := models.DisplayFilter{HazardKinds: raw.Hazards}
		if raw.Drones != nil {
			filter.ShowDrones = *raw.Drones
		}
		if raw.Humans != nil {
			filter.ShowPeople = *raw.Humans
		}
		return DisplayHazardsEvent{Filter: filter}, nil

	case eventPlanRoute:
		kinds := make([]models.HazardKind, 0, len(raw.Hazards))
		for _, h := range raw.Hazards {
			kinds = append(kinds, models.NormalizeHazardKind(h))
		}
		return PlanRouteEvent{AvoidedKinds: kinds, DestinationID: raw.ID}, nil

	case eventChatChunk:
		return ChatChunkEvent{Content: raw.Content}, nil

	case eventAgentComplete:
		return AgentCompleteEvent{}, nil

	case "":
		if raw.Persons == nil && raw.Status == nil {
			return nil, fmt.Errorf("frame has no event tag and no telemetry shape")
		}
		return decodeTelemetry(raw, now)

	default:
		return nil, fmt.Errorf("unknown event %q", raw.Event)
	}
}

func decodeTelemetry(raw rawFrame, now time.Time) (Event, error) {
	ev := TelemetryEvent{Frame: raw.Frame}

	if raw.Persons != nil {
		var rawPersons []rawPerson
		if err := json.Unmarshal(raw.Persons, &rawPersons); err != nil {
			return nil, fmt.Errorf("invalid persons payload: %w", err)
		}
		for _, rp := range rawPersons {
			ev.Persons = append(ev.Persons, models.Person{
				ID:         rp.ID,
				Confidence: rp.Confidence,
				BBox:       rp.BBox,
				Image:      rp.Image,
				DetectedAt: parseTimestamp(rp.Timestamp, now),
			})
		}
	}

	if raw.Status != nil {
		var rd rawDrone
		if err := json.Unmarshal(raw.Status, &rd); err != nil {
			return nil, fmt.Errorf("invalid droneStatus payload: %w", err)
		}
		ev.DroneStatus = &models.Drone{
			Name:               rd.Name,
			IsConnected:        rd.IsConnected,
			BatteryLevel:       rd.BatteryLevel,
			Position:           rd.Location,
			StartingCoordinate: rd.StartingCoordinate,
			LastUpdate:         parseTimestamp(rd.Timestamp, now),
		}
	}

	return ev, nil
}

func parseTimestamp(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return fallback
}

// QueryFrame builds the outbound agent query frame
func QueryFrame(message string) ([]byte, error) {
	return json.Marshal(map[string]string{
		"event":   EventQuery,
		"message": message,
	})
}

// CommandFrame builds a bare outbound command frame such as DEPLOY
func CommandFrame(event string) ([]byte, error) {
	return json.Marshal(map[string]string{"event": event})
}
