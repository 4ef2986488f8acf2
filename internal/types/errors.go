package types

import "errors"

// Error taxonomy for the search/itinerary core. Handlers map these with
// errors.Is so the client can tell "city not found" apart from "service
// unavailable"; collapsing them into one generic message is a regression.
var (
	// ErrCityNotFound means the geocoder returned zero candidates for the
	// user's text. User-correctable, not a server fault.
	ErrCityNotFound = errors.New("city not found")

	// ErrUpstreamUnavailable is a transient provider failure (transport
	// error, non-2xx status, timeout). Retry-by-user.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrPartialFailure means at least one of the concurrent fan-out calls
	// failed after geocoding succeeded. The whole aggregation fails; no
	// partial data is ever returned.
	ErrPartialFailure = errors.New("partial provider failure")

	// ErrEmptySelection rejects a save with both itinerary lists empty,
	// before any durable write.
	ErrEmptySelection = errors.New("itinerary selection is empty")
)
