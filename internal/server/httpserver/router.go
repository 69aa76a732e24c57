package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/tripkeeper/internal/server/uploads"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router builds the route table:
//
//	GET    /health
//	POST   /auth/register, /auth/login, /auth/refresh
//	GET    /trips          (bearer)
//	POST   /trips          (bearer)
//	PUT    /trips/{id}     (bearer)
//	DELETE /trips/{id}     (bearer)
//	POST   /uploads
//	GET    /files/*        when a local file handler is configured
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
		r.Post("/refresh", s.Refresh)
	})

	r.Route("/trips", func(r chi.Router) {
		r.Use(s.accessTokenMiddleware)
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Put("/{id}", s.UpdateTrip)
		r.Delete("/{id}", s.DeleteTrip)
	})

	r.Post("/uploads", s.Upload)

	if s.files != nil {
		r.Handle(uploads.FilesPrefix+"*", s.files)
	}

	return r
}
