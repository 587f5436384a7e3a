package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sandlotlabs/dugout/pkg/api/handlers"
	"github.com/sandlotlabs/dugout/pkg/api/middleware"
	authproviders "github.com/sandlotlabs/dugout/pkg/auth/providers"
	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/hub"
	"github.com/sandlotlabs/dugout/pkg/log"
	"github.com/sandlotlabs/dugout/pkg/repositories"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	Repository   repositories.Repository
	RoomManager  *hub.RoomManager
	DefaultRules baseball.Rules
}

// NewAPIServer creates the http.Server carrying both the room REST API
// and the websocket attach point for room sessions.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	authMiddleware := middleware.NewAuthMiddleware(opts.AuthProvider)

	r := NewRouter(opts, authMiddleware)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: r,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the route table. Split out so tests can drive the
// routes through httptest without binding a port.
func NewRouter(opts NewAPIServerOptions, authMiddleware func(http.Handler) http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/rooms", authMiddleware(handlers.HandleCreateRoom(opts.RoomManager, opts.DefaultRules))).Methods(http.MethodPost)
	r.Handle("/rooms", authMiddleware(handlers.HandleListRooms(opts.Repository))).Methods(http.MethodGet)
	r.Handle("/rooms/{roomID}", authMiddleware(handlers.HandleGetRoom(opts.Repository))).Methods(http.MethodGet)
	r.Handle("/rooms/{roomID}/reset", authMiddleware(handlers.HandleResetRoom(opts.RoomManager))).Methods(http.MethodPost)
	r.Handle("/results", authMiddleware(handlers.HandleListResults(opts.Repository))).Methods(http.MethodGet)

	// Websocket sessions authenticate in-band with joinTeam, not with a
	// bearer token.
	r.HandleFunc("/ws/{roomID}", opts.RoomManager.ServeWS)

	return r
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
