package store

import (
	"log"
	"sync"

	"skyrescue-backend/internal/models"
)

// UpdateKind identifies which collection changed
type UpdateKind string

const (
	UpdatePersons UpdateKind = "persons"
	UpdateDrones  UpdateKind = "drones"
	UpdateHazards UpdateKind = "hazards"
	UpdateFilter  UpdateKind = "filter"
)

// Update is delivered to subscribers after every store mutation
type Update struct {
	Kind    UpdateKind
	Persons []models.Person
	Drones  []models.Drone
	Hazards []models.Hazard
	Filter  models.DisplayFilter
}

// Store holds the current mapping-view state: persons, drones, hazards
// and the display filter. All writes are full-snapshot replacements or
// keyed upserts; readers receive copies and must treat them as immutable.
type Store struct {
	mu      sync.RWMutex
	persons []models.Person
	drones  []models.Drone
	hazards []models.Hazard
	filter  models.DisplayFilter

	subMu sync.Mutex
	subs  []chan Update
}

func New() *Store {
	return &Store{
		filter: models.DefaultDisplayFilter(),
	}
}

// Subscribe returns a channel receiving every subsequent store update.
// Slow subscribers are skipped for individual updates, never blocked on.
func (s *Store) Subscribe() <-chan Update {
	ch := make(chan Update, 64)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) publish(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			log.Printf("⚠️ store subscriber buffer full, dropping %s update", u.Kind)
		}
	}
}

// SetPersons replaces the active detection set with a full snapshot.
// An empty snapshot is valid and clears all person markers.
func (s *Store) SetPersons(persons []models.Person) {
	s.mu.Lock()
	s.persons = append([]models.Person(nil), persons...)
	snapshot := append([]models.Person(nil), s.persons...)
	s.mu.Unlock()
	s.publish(Update{Kind: UpdatePersons, Persons: snapshot})
}

// UpsertPersons merges detections by id: existing ids are replaced in
// place, new ids are appended. Used by the live push channel, which is
// additive rather than snapshot-based.
func (s *Store) UpsertPersons(persons []models.Person) {
	s.mu.Lock()
	for _, p := range persons {
		replaced := false
		for i := range s.persons {
			if s.persons[i].ID == p.ID {
				s.persons[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			s.persons = append(s.persons, p)
		}
	}
	snapshot := append([]models.Person(nil), s.persons...)
	s.mu.Unlock()
	s.publish(Update{Kind: UpdatePersons, Persons: snapshot})
}

// SetDrones replaces the drone set with a full snapshot
func (s *Store) SetDrones(drones []models.Drone) {
	s.mu.Lock()
	s.drones = append([]models.Drone(nil), drones...)
	snapshot := append([]models.Drone(nil), s.drones...)
	s.mu.Unlock()
	s.publish(Update{Kind: UpdateDrones, Drones: snapshot})
}

// UpsertDrone replaces the entry with the same name in place, preserving
// array order; unknown names are appended.
func (s *Store) UpsertDrone(d models.Drone) {
	s.mu.Lock()
	replaced := false
	for i := range s.drones {
		if s.drones[i].Name == d.Name {
			s.drones[i] = d
			replaced = true
			break
		}
	}
	if !replaced {
		s.drones = append(s.drones, d)
	}
	snapshot := append([]models.Drone(nil), s.drones...)
	s.mu.Unlock()
	s.publish(Update{Kind: UpdateDrones, Drones: snapshot})
}

// MarkDronesDisconnected clears the connectivity flag on every drone.
// Called when the upstream push channel closes.
func (s *Store) MarkDronesDisconnected() {
	s.mu.Lock()
	for i := range s.drones {
		s.drones[i].IsConnected = false
	}
	snapshot := append([]models.Drone(nil), s.drones...)
	s.mu.Unlock()
	s.publish(Update{Kind: UpdateDrones, Drones: snapshot})
}

// SetHazards replaces the hazard set with a full snapshot
func (s *Store) SetHazards(hazards []models.Hazard) {
	s.mu.Lock()
	s.hazards = append([]models.Hazard(nil), hazards...)
	snapshot := append([]models.Hazard(nil), s.hazards...)
	s.mu.Unlock()
	s.publish(Update{Kind: UpdateHazards, Hazards: snapshot})
}

// SetFilter replaces the display filter
func (s *Store) SetFilter(f models.DisplayFilter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	s.publish(Update{Kind: UpdateFilter, Filter: f})
}

// Persons returns a copy of the active detection set
func (s *Store) Persons() []models.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Person(nil), s.persons...)
}

// Drones returns a copy of the drone set
func (s *Store) Drones() []models.Drone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Drone(nil), s.drones...)
}

// Hazards returns a copy of the hazard set
func (s *Store) Hazards() []models.Hazard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Hazard(nil), s.hazards...)
}

// Filter returns the current display filter
func (s *Store) Filter() models.DisplayFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// FindPerson looks up a detection by id, ok=false when absent
func (s *Store) FindPerson(id string) (models.Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.persons {
		if p.ID == id {
			return p, true
		}
	}
	return models.Person{}, false
}

// FindDrone looks up a drone by name, ok=false when absent
func (s *Store) FindDrone(name string) (models.Drone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.drones {
		if d.Name == name {
			return d, true
		}
	}
	return models.Drone{}, false
}

// FindHazard looks up a hazard by id, ok=false when absent
func (s *Store) FindHazard(id string) (models.Hazard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hazards {
		if h.ID == id {
			return h, true
		}
	}
	return models.Hazard{}, false
}

// Clear drops all entities. Used when switching data-source modes so
// simulated state never leaks into live mode and vice versa.
func (s *Store) Clear() {
	s.SetPersons(nil)
	s.SetDrones(nil)
	s.SetHazards(nil)
	s.SetFilter(models.DefaultDisplayFilter())
}
