package router

import (
	"net/http"

	"roadside/internal/controller"
	"roadside/internal/middleware"

	"github.com/justinas/alice"
	"github.com/rs/cors"
)

type Options struct {
	JWTSecret      string
	SignInURL      string
	AllowedOrigins []string
	// Applied to the cancel route only. Nil means no limit.
	RateLimit alice.Constructor
	Log       middleware.Logger
}

func NewRouter(c *controller.Controller, opts Options) http.Handler {
	mux := http.NewServeMux()

	auth := alice.New(middleware.Authenticate(opts.JWTSecret, opts.SignInURL))
	cancel := auth
	if opts.RateLimit != nil {
		cancel = auth.Append(opts.RateLimit)
	}

	mux.HandleFunc("GET /api/ping", c.Ping)
	mux.Handle("GET /api/requests", auth.ThenFunc(c.Requests))
	mux.Handle("GET /api/requests/{source}/{requestId}", auth.ThenFunc(c.Request))
	mux.Handle("GET /api/requests/{source}/{requestId}/bids", auth.ThenFunc(c.RequestBids))
	mux.Handle("POST /api/requests/{source}/{requestId}/cancel", cancel.ThenFunc(c.Cancel))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler

	return alice.New(
		middleware.Recover(opts.Log),
		middleware.RequestLog(opts.Log),
		corsHandler,
	).Then(mux)
}
