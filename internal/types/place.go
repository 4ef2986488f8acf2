package types

import (
	"time"

	"github.com/google/uuid"
)

// PlaceCategory distinguishes the two POI buckets returned by a city search.
type PlaceCategory string

const (
	CategoryAttraction PlaceCategory = "attraction"
	CategoryRestaurant PlaceCategory = "restaurant"
)

// Valid reports whether c is one of the known categories.
func (c PlaceCategory) Valid() bool {
	return c == CategoryAttraction || c == CategoryRestaurant
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a point of interest as returned by the places provider.
// Immutable once fetched. Lat/Lon are pointers because the provider may
// return a record without coordinates; such a place cannot be mapped but
// is still listable.
type Place struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Lat         *float64      `json:"lat,omitempty"`
	Lon         *float64      `json:"lon,omitempty"`
	Category    PlaceCategory `json:"category"`
	AddressLine string        `json:"address_line,omitempty"`
}

// DisplayName returns the place name, falling back to "Unnamed" for records
// that were stored without one (e.g. loaded from an old itinerary snapshot).
// Nameless provider candidates never make it into a fresh search result.
func (p Place) DisplayName() string {
	if p.Name == "" {
		return "Unnamed"
	}
	return p.Name
}

// ForecastDay is one collapsed day of the short-term forecast: the first
// upstream sample of that calendar day.
type ForecastDay struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"temperature"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// SearchResult is the merged response for a single city query. It is either
// complete or not produced at all; no field is ever silently empty because a
// provider call failed.
type SearchResult struct {
	CityCoordinates Coordinates   `json:"city_coordinates"`
	Places          []Place       `json:"places"`
	Restaurants     []Place       `json:"restaurants"`
	Forecast        []ForecastDay `json:"forecast"`
}

// Itinerary is a persisted selection of places and restaurants for one city.
// Within Places and within Restaurants every Place.ID is unique. Records are
// only ever created and explicitly deleted, never implicitly destroyed.
type Itinerary struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	CityName        string      `json:"city_name"`
	CityCoordinates Coordinates `json:"city_coordinates"`
	Places          []Place     `json:"places"`
	Restaurants     []Place     `json:"restaurants"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SaveItineraryRequest is the JSON body for POST /itineraries.
type SaveItineraryRequest struct {
	CityName        string      `json:"city_name"`
	CityCoordinates Coordinates `json:"city_coordinates"`
	Places          []Place     `json:"places"`
	Restaurants     []Place     `json:"restaurants"`
}

// SearchRequest is the JSON body for POST /places.
type SearchRequest struct {
	City string `json:"city"`
}

// NearbyRequest is the JSON body for POST /places/nearby-restaurants.
type NearbyRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
