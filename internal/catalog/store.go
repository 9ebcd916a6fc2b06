package catalog

import (
	"sync"

	"ayat-booking/internal/models"
)

// Store owns the loaded catalog for the lifetime of the process together
// with the live booked-seat counts. Callers only ever get copies.
type Store struct {
	mu      sync.RWMutex
	events  []models.EventDescriptor
	loadErr error
	booked  map[string]int
}

func NewStore(events []models.EventDescriptor, loadErr error) *Store {
	return &Store{
		events:  events,
		loadErr: loadErr,
		booked:  make(map[string]int),
	}
}

// Err is the catalog load error, if loading failed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Events returns a snapshot with live seat counts applied.
func (s *Store) Events() []models.EventDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EventDescriptor, len(s.events))
	for i, e := range s.events {
		out[i] = s.withLiveCounts(e)
	}
	return out
}

func (s *Store) Event(id string) (models.EventDescriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.ID == id {
			return s.withLiveCounts(e), true
		}
	}
	return models.EventDescriptor{}, false
}

func (s *Store) withLiveCounts(e models.EventDescriptor) models.EventDescriptor {
	raw, ok := e.Availability.(models.RawCounts)
	if !ok {
		return e
	}
	if booked, ok := s.booked[e.ID]; ok {
		raw.Booked = booked
	}
	e.Availability = raw
	return e
}

// ApplyBooked replaces the live booked counts. Events missing from the
// map fall back to the catalog's own bookedSeats.
func (s *Store) ApplyBooked(booked map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.booked = make(map[string]int, len(booked))
	for id, n := range booked {
		s.booked[id] = n
	}
}

// AddBooked bumps the live count of a raw-count event. Status-driven
// events do not track seats and are left alone.
func (s *Store) AddBooked(eventID string, tickets int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.ID != eventID {
			continue
		}
		raw, ok := e.Availability.(models.RawCounts)
		if !ok {
			return
		}
		current, ok := s.booked[eventID]
		if !ok {
			current = raw.Booked
		}
		s.booked[eventID] = current + tickets
		return
	}
}
