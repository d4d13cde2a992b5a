package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/store"
)

const pollInterval = time.Second

// Poller periodically fetches person and drone snapshots over REST as a
// fallback and supplement to the push channel. Live snapshots belong to
// real mode only; ticks are skipped in fake mode so polled entities
// never contaminate a simulated deployment.
type Poller struct {
	baseURL string
	client  *http.Client
	store   *store.Store
	mode    func() Mode
}

func NewPoller(baseURL string, st *store.Store, mode func() Mode) *Poller {
	return &Poller{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		store:   st,
		mode:    mode,
	}
}

// Run polls until the context is cancelled. Fetch failures are logged
// and retried on the next tick; they never stop the loop.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.mode() != ModeReal {
				continue
			}
			if err := p.poll(ctx); err != nil {
				log.Printf("⚠️ [POLL] snapshot fetch failed: %v", err)
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	persons, err := p.fetchPersons(ctx)
	if err != nil {
		return err
	}
	if len(persons) > 0 {
		p.store.UpsertPersons(persons)
	}

	drone, err := p.fetchDroneStatus(ctx)
	if err != nil {
		return err
	}
	if drone != nil {
		p.store.UpsertDrone(*drone)
	}
	return nil
}

func (p *Poller) fetchPersons(ctx context.Context) ([]models.Person, error) {
	body, err := p.get(ctx, p.baseURL+"/api/persons")
	if err != nil {
		return nil, err
	}

	var raw []rawPerson
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid persons response: %w", err)
	}

	now := time.Now()
	persons := make([]models.Person, 0, len(raw))
	for _, rp := range raw {
		persons = append(persons, models.Person{
			ID:         rp.ID,
			Confidence: rp.Confidence,
			BBox:       rp.BBox,
			Image:      rp.Image,
			DetectedAt: parseTimestamp(rp.Timestamp, now),
		})
	}
	return persons, nil
}

func (p *Poller) fetchDroneStatus(ctx context.Context) (*models.Drone, error) {
	body, err := p.get(ctx, p.baseURL+"/api/drone_status")
	if err != nil {
		return nil, err
	}

	var rd rawDrone
	if err := json.Unmarshal(body, &rd); err != nil {
		return nil, fmt.Errorf("invalid drone status response: %w", err)
	}
	if rd.Name == "" {
		return nil, nil
	}
	return &models.Drone{
		Name:               rd.Name,
		IsConnected:        rd.IsConnected,
		BatteryLevel:       rd.BatteryLevel,
		Position:           rd.Location,
		StartingCoordinate: rd.StartingCoordinate,
		LastUpdate:         parseTimestamp(rd.Timestamp, time.Now()),
	}, nil
}

func (p *Poller) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
