// Package devserver is an in-memory implementation of the hackathon platform
// API. It backs `hackforge devserver` for local work and the end-to-end tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/internal/logging"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// maxBody bounds JSON request bodies.
const maxBody = 1 << 20

// Server is the API. It implements http.Handler.
type Server struct {
	logger *zap.Logger
	router chi.Router
	reg    *prometheus.Registry
	reqs   *prometheus.CounterVec

	mu       sync.RWMutex
	accounts map[string]*account // by email
	tokens   map[string]string   // token -> user id
	uploads  map[string]upload

	hackathons *resource[domain.Hackathon]
	projects   *resource[domain.Project]
	teams      *resource[domain.Team]

	judgesMu    sync.RWMutex
	judges      map[string][]domain.Judge      // by hackathon id
	evaluations map[string][]domain.Evaluation // by hackathon id

	sockets *sockets
}

type account struct {
	profile  domain.UserProfile
	password string // argon2id hash
}

type upload struct {
	contentType string
	data        []byte
}

// New returns an empty server.
func New(logger *zap.Logger) *Server {
	s := &Server{
		logger:      logging.OrNop(logger).Named("devserver"),
		reg:         prometheus.NewRegistry(),
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		uploads:     make(map[string]upload),
		judges:      make(map[string][]domain.Judge),
		evaluations: make(map[string][]domain.Evaluation),
	}
	s.reqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hackforge_devserver_requests_total",
		Help: "API requests served, by route and status.",
	}, []string{"method", "route", "status"})
	s.reg.MustRegister(s.reqs)

	s.sockets = newSockets(s.logger)
	s.hackathons = newResource(s, events.KindHackathonUpdated, hackathonRules)
	s.projects = newResource(s, events.KindProjectUpdated, projectRules)
	s.teams = newResource(s, events.KindTeamUpdated, teamRules)
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry exposes the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry { return s.reg }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleSocket)
	r.Get("/uploads/{name}", s.handleUpload)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Post("/users/{id}/avatar", s.handleAvatar)
		})

		s.hackathons.mount(r, "/hackathons")
		s.projects.mount(r, "/projects")
		s.teams.mount(r, "/teams")

		r.Get("/judges/hackathons/{id}/judges", s.handleJudges)
		r.Get("/judges/hackathons/{id}/evaluations", s.handleEvaluations)
	})
	return r
}

// Close drops every websocket connection.
func (s *Server) Close() {
	s.sockets.closeAll()
}

// Broadcast pushes an event to every connected client.
func (s *Server) Broadcast(kind events.Kind, data any) {
	s.sockets.send("", kind, data)
}

// SendTo pushes an event to the connections of one user.
func (s *Server) SendTo(userID string, kind events.Kind, data any) {
	s.sockets.send(userID, kind, data)
}

// Connections returns the number of open websocket connections.
func (s *Server) Connections() int {
	return s.sockets.count()
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.reqs.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.logger.Debug("request",
			zap.String("method", r.Method), zap.String("route", route),
			zap.Int("status", status), zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type ctxKey struct{}

// requireAuth rejects requests without a known bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func (s *Server) authenticate(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || tok == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[tok]
	return id, ok
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Message: msg})
}

func writeValidation(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, struct {
			envelope
			Errors map[string]string `json:"errors"`
		}{envelope{Message: err.Error()}, verr.Fields})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
