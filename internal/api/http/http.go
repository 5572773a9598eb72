package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"log/slog"

	"github.com/profitlens/analytics/internal/analytics"
	"github.com/profitlens/analytics/internal/dependency"
)

// Config is the configuration for the http server
type Config struct {
	Port           string   `mapstructure:"port"`
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
}

// Server is the http server
type Server struct {
	hs      *http.Server
	c       *Config
	jwtAuth *jwtauth.JWTAuth
	svc     *analytics.Service
	rep     dependency.Repository
	done    chan struct{}
}

// New creates a new server
func New(config *Config) *Server {
	return &Server{
		c:       config,
		jwtAuth: jwtauth.New("HS256", []byte(config.JWTSecret), nil),
		done:    make(chan struct{}),
	}
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.c.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.jwtAuth))
		r.Use(s.authenticator)

		r.Get("/overview", s.getOverview)
		r.Get("/pnl", s.getPnLTable)

		r.Route("/costs", func(r chi.Router) {
			r.Get("/", s.listCostPolicies)
			r.Post("/", s.addCostPolicy)
			r.Delete("/{id}", s.deactivateCostPolicy)
		})

		r.Route("/return-rate", func(r chi.Router) {
			r.Get("/", s.listReturnRateEntries)
			r.Put("/", s.setReturnRate)
		})

		r.Get("/sync-status", s.getSyncStatus)
	})

	return r
}

// Start starts the server
func (s *Server) Start(ctx context.Context, svc *analytics.Service, rep dependency.Repository) error {
	s.svc = svc
	s.rep = rep

	ctx, cancel := context.WithCancel(ctx)
	hsDone := make(chan struct{})

	go func() {
		<-hsDone
		close(s.done)
	}()

	listenerAddr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:    listenerAddr,
		Handler: h2c.NewHandler(s.router(), &http2.Server{}),
	}

	go func() {
		slog.Default().InfoContext(ctx, fmt.Sprintf("profitlens new listener on: http://%v", listenerAddr))
		err := s.hs.ListenAndServe()
		if err == http.ErrServerClosed {
			slog.Default().InfoContext(ctx, "http server returned")
		} else {
			slog.Default().ErrorContext(ctx, "http server exited with an error",
				slog.String("err", err.Error()))
		}
		cancel()
		close(hsDone)
	}()

	return nil
}

// Stop shuts the http server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.hs.Shutdown(ctx)
}
