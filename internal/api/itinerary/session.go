package itinerary

import (
	"sync"

	"github.com/voyplan/itinerary-api/internal/types"
)

// Session is the in-memory itinerary state for one owner: two ordered lists
// (places, restaurants) plus the active city context. It exclusively owns the
// lists while the session is active; the durable copy is synchronized only at
// explicit save/load boundaries. All operations are total and never fail.
type Session struct {
	mu              sync.Mutex
	cityName        string
	cityCoordinates *types.Coordinates
	places          []types.Place
	restaurants     []types.Place
}

// SessionState is a point-in-time copy of a session, safe to hand out.
type SessionState struct {
	CityName        string             `json:"city_name"`
	CityCoordinates *types.Coordinates `json:"city_coordinates,omitempty"`
	Places          []types.Place      `json:"places"`
	Restaurants     []types.Place      `json:"restaurants"`
}

// SetCity records the active city context after a fresh search.
func (s *Session) SetCity(name string, coords types.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cityName = name
	c := coords
	s.cityCoordinates = &c
}

// Add appends the place to the list for category unless a place with the
// same ID is already there. Duplicate suppression is by ID, not full
// equality; a duplicate is a silent no-op. Returns whether the list changed.
func (s *Session) Add(p types.Place, category types.PlaceCategory) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.listFor(category)
	for _, existing := range *list {
		if existing.ID == p.ID {
			return false
		}
	}
	*list = append(*list, p)
	return true
}

// Remove deletes the place with the given ID from the category's list.
// Absent IDs are a no-op, not an error.
func (s *Session) Remove(id string, category types.PlaceCategory) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.listFor(category)
	for i, existing := range *list {
		if existing.ID == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// Move removes the item at index from the source category's list and
// reinserts it at toIndex in the target category's list. Cross-category moves
// are allowed and the item's Category field is deliberately left untouched;
// the two lists act as ordering buckets. Out-of-range source indices are a
// no-op; the target index is clamped.
func (s *Session) Move(from types.PlaceCategory, index int, to types.PlaceCategory, toIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.listFor(from)
	if index < 0 || index >= len(*src) {
		return false
	}

	item := (*src)[index]
	*src = append((*src)[:index], (*src)[index+1:]...)

	dst := s.listFor(to)
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(*dst) {
		toIndex = len(*dst)
	}
	*dst = append(*dst, types.Place{})
	copy((*dst)[toIndex+1:], (*dst)[toIndex:])
	(*dst)[toIndex] = item
	return true
}

// Clear resets both lists and the city context. Used on logout and city
// reset.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cityName = ""
	s.cityCoordinates = nil
	s.places = nil
	s.restaurants = nil
}

// Load replaces both lists and the city context wholesale with the contents
// of a persisted itinerary. Nothing is merged.
func (s *Session) Load(it *types.Itinerary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cityName = it.CityName
	c := it.CityCoordinates
	s.cityCoordinates = &c
	s.places = append([]types.Place(nil), it.Places...)
	s.restaurants = append([]types.Place(nil), it.Restaurants...)
}

// Snapshot returns a copy of the session state at call time. A save persists
// this snapshot; mutations made during an in-flight save are simply not part
// of it.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		CityName:    s.cityName,
		Places:      append([]types.Place(nil), s.places...),
		Restaurants: append([]types.Place(nil), s.restaurants...),
	}
	if s.cityCoordinates != nil {
		c := *s.cityCoordinates
		state.CityCoordinates = &c
	}
	return state
}

// Len returns the combined item count across both lists.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.places) + len(s.restaurants)
}

// listFor must be called with the mutex held. Unknown categories fall back
// to the places list.
func (s *Session) listFor(category types.PlaceCategory) *[]types.Place {
	if category == types.CategoryRestaurant {
		return &s.restaurants
	}
	return &s.places
}

// SessionManager hands out the per-owner session. The map lock only guards
// session lookup; each session carries its own lock.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Get returns the session for an owner, creating it on first use.
func (m *SessionManager) Get(owner string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[owner]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[owner]; ok {
		return s
	}
	s = &Session{}
	m.sessions[owner] = s
	return s
}
