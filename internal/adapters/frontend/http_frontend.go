package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	maxRequestBytes = 4 << 20
	shutdownTimeout = 5 * time.Second
)

// HTTPFrontend serves the dashboard JSON API and the result stream
type HTTPFrontend struct {
	controller *core.SubmissionController
	logger     *zap.Logger
	listenAddr string
	hub        *Hub
	handler    http.Handler
	server     *http.Server
	listener   net.Listener
}

type emailRequest struct {
	EmailText string `json:"email_text"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type historyResponse struct {
	Count   int          `json:"count"`
	Results []ResultView `json:"results"`
}

type statusResponse struct {
	UserEmail        string            `json:"user_email"`
	Slots            map[string]string `json:"slots"`
	HistoryLength    int               `json:"history_length"`
	WebSocketClients int               `json:"websocket_clients"`
}

// NewHTTPFrontend creates the dashboard API. The hub is subscribed to the
// controller's history here.
func NewHTTPFrontend(controller *core.SubmissionController, logger *zap.Logger, cfg config.HTTPServerConfig) *HTTPFrontend {
	f := &HTTPFrontend{
		controller: controller,
		logger:     logger,
		listenAddr: cfg.ListenAddress,
		hub:        NewHub(logger, cfg.AllowedOrigins),
	}
	controller.History().OnPrepend(f.hub.Broadcast)

	router := mux.NewRouter()
	router.HandleFunc("/api/predict/email", f.predictEmail).Methods(http.MethodPost)
	router.HandleFunc("/api/predict/url", f.predictURL).Methods(http.MethodPost)
	router.HandleFunc("/api/history", f.history).Methods(http.MethodGet)
	router.HandleFunc("/api/status", f.status).Methods(http.MethodGet)
	router.HandleFunc("/api/ws", f.hub.ServeWS).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
	f.handler = c.Handler(router)

	return f
}

// Name identifies the frontend
func (f *HTTPFrontend) Name() string {
	return "http"
}

// Handler returns the routed handler with CORS applied
func (f *HTTPFrontend) Handler() http.Handler {
	return f.handler
}

// Hub returns the websocket hub fed by the history
func (f *HTTPFrontend) Hub() *Hub {
	return f.hub
}

// Addr returns the bound listen address once started
func (f *HTTPFrontend) Addr() string {
	if f.listener == nil {
		return f.listenAddr
	}
	return f.listener.Addr().String()
}

// Start binds the listener and serves in the background
func (f *HTTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}
	f.listener = ln
	f.server = &http.Server{
		Handler:           f.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go f.hub.Run()
	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	f.logger.Info("HTTP frontend started", zap.String("address", ln.Addr().String()))
	return nil
}

// Stop shuts the server down and disconnects websocket clients
func (f *HTTPFrontend) Stop() error {
	f.hub.Stop()
	if f.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := f.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

func (f *HTTPFrontend) predictEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f.submit(w, r, core.KindEmail, req.EmailText)
}

func (f *HTTPFrontend) predictURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f.submit(w, r, core.KindURL, req.URL)
}

func (f *HTTPFrontend) submit(w http.ResponseWriter, r *http.Request, kind core.AnalysisKind, payload string) {
	result, err := f.controller.Submit(r.Context(), kind, payload)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error(), Kind: string(kind)})
		return
	}
	writeJSON(w, http.StatusOK, NewResultView(*result))
}

// history lists results newest first, optionally only those of ?kind=
func (f *HTTPFrontend) history(w http.ResponseWriter, r *http.Request) {
	var kind core.AnalysisKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, err := core.ParseKind(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		kind = parsed
	}

	resp := historyResponse{Results: []ResultView{}}
	for result := range f.controller.History().All() {
		if kind != "" && result.Kind != kind {
			continue
		}
		resp.Results = append(resp.Results, NewResultView(result))
	}
	resp.Count = len(resp.Results)
	writeJSON(w, http.StatusOK, resp)
}

func (f *HTTPFrontend) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		UserEmail:        f.controller.Session().UserEmail,
		Slots:            make(map[string]string, len(core.Kinds)),
		HistoryLength:    f.controller.History().Len(),
		WebSocketClients: f.hub.ClientCount(),
	}
	for _, kind := range core.Kinds {
		resp.Slots[string(kind)] = f.controller.State(kind).String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusForError maps submission failures to HTTP status codes
func statusForError(err error) int {
	switch {
	case core.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSlotBusy):
		return http.StatusConflict
	case core.IsClassifierError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
