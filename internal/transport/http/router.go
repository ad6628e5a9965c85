package http

import (
	"crypto/rsa"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obsmw "disbroad/internal/observability/middleware"
	"disbroad/internal/service"
	"disbroad/internal/transport/ws"
)

// Options carries the transport knobs the router needs beyond the services
// themselves.
type Options struct {
	CORSOrigins    []string
	OwnerPublicKey *rsa.PublicKey
	Log            *slog.Logger

	// VerificationTTL bounds the lifetime of email verification codes issued
	// at registration.
	VerificationTTL time.Duration
}

func NewRouter(accounts service.AccountService, tokens service.TokenService, files service.FileService, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	verificationTTL := opts.VerificationTTL
	if verificationTTL <= 0 {
		verificationTTL = 24 * time.Hour
	}
	users := &userHandler{accounts: accounts, tokens: tokens, verificationTTL: verificationTTL, log: log}
	fileH := &fileHandler{files: files}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(obsmw.WithRequestID)
	r.Use(obsmw.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsIfSet(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to the disbroad API. See /healthz for liveness and /users for the user surface.",
		})
	})

	r.Route("/users", func(r chi.Router) {
		// Credential endpoints take the brunt of abuse; rate-limit them by IP.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(30, 1*time.Minute))
			r.Post("/", users.register)
			r.Post("/login", users.login)
			r.Post("/verify", users.verify)
		})

		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			conn, err := ws.Accept(w, req)
			if err != nil {
				log.Warn("websocket upgrade rejected", "endpoint", "users", "error", err)
				return
			}
			ws.NewUserSession(conn, accounts, tokens, log).Run(req.Context())
		})

		r.With(optionalAuth(tokens)).Get("/{id}", users.get)

		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(tokens))
			r.Get("/", users.list)
			r.Put("/", users.update)
			r.Put("/password", users.setPassword)
			r.Delete("/", users.delete)
		})
	})

	r.Route("/devices", func(r chi.Router) {
		r.Use(bearerAuth(tokens))
		r.Get("/{id}", users.getDevice)
	})

	r.Route("/files", func(r chi.Router) {
		r.Get("/{id}", fileH.get)
		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(tokens))
			r.Get("/", fileH.listOwn)
			r.Post("/", fileH.create)
		})
	})

	r.Get("/admin/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := ws.Accept(w, req)
		if err != nil {
			log.Warn("websocket upgrade rejected", "endpoint", "admin", "error", err)
			return
		}
		if err := ws.Handshake(conn, opts.OwnerPublicKey); err != nil {
			log.Warn("admin handshake failed", "remote", clientIP(req), "error", err)
			return
		}
		ws.NewAdminSession(conn, accounts, tokens, log).Run(req.Context())
	})

	return r
}

func originsIfSet(origins []string) []string {
	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 {
		return []string{"*"}
	}
	return cleaned
}
