package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/voyplan/itinerary-api/internal/api/auth"
	"github.com/voyplan/itinerary-api/internal/api/itinerary"
	"github.com/voyplan/itinerary-api/internal/api/search"
)

// Config contains dependencies needed for the router setup
type Config struct {
	SearchHandler          *search.Handler
	ItineraryHandler       *itinerary.Handler
	AuthHandler            *auth.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Public routes, no JWT required.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)

			r.Post("/places", cfg.SearchHandler.Search)
			r.Post("/places/nearby-restaurants", cfg.SearchHandler.NearbyRestaurants)
		})

		// Protected routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)

			r.Get("/itineraries", cfg.ItineraryHandler.ListItineraries)
			r.Post("/itineraries", cfg.ItineraryHandler.SaveItinerary)

			r.Route("/session", func(r chi.Router) {
				r.Get("/", cfg.ItineraryHandler.GetSession)
				r.Post("/city", cfg.ItineraryHandler.SetCity)
				r.Post("/items", cfg.ItineraryHandler.AddItem)
				r.Delete("/items", cfg.ItineraryHandler.RemoveItem)
				r.Post("/move", cfg.ItineraryHandler.MoveItem)
				r.Post("/clear", cfg.ItineraryHandler.ClearSession)
				r.Post("/save", cfg.ItineraryHandler.SaveSession)
				r.Post("/load/{itineraryID}", cfg.ItineraryHandler.LoadItinerary)
			})
		})
	})

	return r
}
