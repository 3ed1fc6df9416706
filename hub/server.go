// Package main provides the HTTP server for the clipharbor hub.
//
// WHY a dedicated server file:
// Separates HTTP routing and request handling from state management
// (state.go) and the session lifecycle (session.go). This keeps each file
// focused on one responsibility — the server handles network communication
// while state owns shared data and sessions own individual connections.
package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clipharbor/hub/shared/apierr"
	"github.com/clipharbor/hub/shared/auth"
	"github.com/clipharbor/hub/shared/config"
	"github.com/clipharbor/hub/shared/models"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP frontend for the clipharbor hub.
// WHY a struct: Holds shared dependencies (state, config) so handler
// methods can access them without global variables. Makes testing easier
// since you can inject a test State instance.
type Server struct {
	state     *State
	authToken string
	webRoot   string
	mux       *http.ServeMux
}

// NewServer creates a Server wired to the given state and auth token.
// WHY accept dependencies: Follows dependency injection so callers (main,
// tests) control which state and credentials the server uses.
func NewServer(state *State, authToken, webRoot string) *Server {
	s := &Server{
		state:     state,
		authToken: authToken,
		webRoot:   webRoot,
		mux:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers every HTTP endpoint on the internal ServeMux.
// WHY centralized routing: A single place to see the full API surface,
// making it easy to audit endpoints, add middleware, or generate docs
// later.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/clip-sync/{device_id}", s.withAuth(s.handleClipSync))
	s.mux.HandleFunc("GET /api/device-list", s.withAuth(s.handleDeviceList))
	s.mux.HandleFunc("GET /api/online-device-list", s.withAuth(s.handleOnlineDeviceList))
	s.mux.HandleFunc("GET /api/query", s.withAuth(s.handleQuery))
	s.mux.HandleFunc("POST /api/upload-image/{device_id}", s.withAuth(s.handleUploadImage))
	s.mux.HandleFunc("GET /api/collection/{device_id}", s.withAuth(s.handleCollection))
	s.mux.Handle("GET /api/images/", s.withAuth(http.StripPrefix("/api/images/", http.FileServer(http.Dir(imageRootOf(s)))).ServeHTTP))

	s.mux.HandleFunc("GET /favicon.ico", s.handleFavicon)
	s.mux.Handle("/", http.FileServer(http.Dir(s.webRoot)))
}

func imageRootOf(s *Server) string {
	return s.state.imageRoot()
}

// ServeHTTP delegates to the internal mux so Server satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address.
// WHY a convenience method: Encapsulates the standard http.Server setup
// with sensible timeouts so callers only need to provide an address
// string.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.WithField("addr", addr).Info("hub listening")
	return srv.ListenAndServe()
}

// withAuth gates a handler behind the bearer/api-key check.
// WHY a wrapper instead of inline checks: every /api route needs the exact
// same check; centralizing it means a route can never be added without it
// by accident.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.Authenticate(r, s.authToken) {
			apierr.Write(w, apierr.New(apierr.Unauthorized, "invalid or missing credential"))
			return
		}
		next(w, r)
	}
}

// --- Handlers ----------------------------------------------------------------

// handleClipSync upgrades an HTTP connection to WebSocket and hands it off
// to a Session for the rest of its lifetime.
//
// WHY CheckOrigin returns true: clipharbor runs on a private network, not
// the public internet. Strict origin checking would block legitimate agent
// connections since they don't come from a browser with an Origin header.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleClipSync(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	if deviceID == "" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "device_id required"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithFields(log.Fields{"device": deviceID, "error": err}).Error("websocket upgrade failed")
		return
	}

	log.WithField("device", deviceID).Info("session upgraded")
	NewSession(deviceID, conn, s.state).Run()
}

// handleDeviceList returns every device ID ever seen, alphabetically
// sorted.
func (s *Server) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	devices := s.state.AllDevices()
	sort.Strings(devices)
	writeJSON(w, devices)
}

// handleOnlineDeviceList returns currently connected device IDs, sorted.
func (s *Server) handleOnlineDeviceList(w http.ResponseWriter, r *http.Request) {
	devices := s.state.OnlineDevices()
	sort.Strings(devices)
	writeJSON(w, devices)
}

// handleQuery parses the search/query-by-source/time-range parameters and
// runs them against the global state, which primes the digest cache for
// every image result before returning.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := models.QueryParams{
		Q:           q.Get("q"),
		Size:        10,
		SortByScore: q.Get("sort") == "score",
	}
	if from := q.Get("from"); from != "" {
		params.From = strings.Split(from, ",")
	}
	if begin := q.Get("begin"); begin != "" {
		if v, err := strconv.ParseInt(begin, 10, 64); err == nil {
			params.Begin = &v
		}
	}
	if end := q.Get("end"); end != "" {
		if v, err := strconv.ParseInt(end, 10, 64); err == nil {
			params.End = &v
		}
	}
	if size := q.Get("size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil {
			params.Size = v
		}
	}
	if skip := q.Get("skip"); skip != "" {
		if v, err := strconv.Atoi(skip); err == nil {
			params.Skip = v
		}
	}

	result, err := s.state.Query(params)
	if err != nil {
		log.WithError(err).Error("query failed")
		apierr.Write(w, apierr.New(apierr.Internal, "query failed"))
		return
	}
	writeJSON(w, result)
}

// handleCollection returns the sorted filenames a device has uploaded.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	names, err := s.state.blobs.List(deviceID)
	if err != nil {
		apierr.Write(w, apierr.New(apierr.NotFound, "no such device collection"))
		return
	}
	sort.Strings(names)
	writeJSON(w, names)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// listenAndServeTLS starts srv with the certificate/key pair named in cfg,
// matching the plain ListenAndServe's timeout configuration.
func listenAndServeTLS(srv *Server, cfg *config.HubConfig) error {
	httpSrv := &http.Server{
		Addr:         cfg.Endpoint,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.WithField("addr", cfg.Endpoint).Info("hub listening (TLS)")
	return httpSrv.ListenAndServeTLS(cfg.CertPath, cfg.KeyPath)
}
