package environment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	domain "github.com/oshokin/site-environment/internal/domain/environment"
	"github.com/oshokin/site-environment/internal/logger"
)

// Request parameters accepted by the override endpoint.
const (
	ParamEmergencyCall = "emergency_call_module"
	ParamShutdownRelay = "shutdown_relay"
)

// Response bodies of the HTTP API.
const (
	MessageCannotOpen        = "Error: cannot open JSON file"
	MessageMissingParameters = "Missing parameters."
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain"
)

// DocumentLoader reads the persisted document bytes.
type DocumentLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

// StateController is the slice of shared state the API touches.
type StateController interface {
	OverrideAlarm(field domain.AlarmField, value domain.Switch) error
	Snapshot() domain.Snapshot
}

// Handler serves the HTTP API.
type Handler struct {
	// documents is the canonical document store.
	documents DocumentLoader
	// state holds the live simulator state.
	state StateController
	// stream serves the websocket feed, if configured.
	stream http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithStream mounts a websocket feed under /stream.
func WithStream(stream http.Handler) Option {
	return func(h *Handler) {
		h.stream = stream
	}
}

// NewHandler creates a Handler.
func NewHandler(documents DocumentLoader, state StateController, opts ...Option) *Handler {
	h := &Handler{
		documents: documents,
		state:     state,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Routes returns the router with every endpoint and middleware attached.
func (h *Handler) Routes(ctx context.Context) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/environment", h.getEnvironment).Methods(http.MethodGet)
	r.HandleFunc("/update_relay_state", h.updateRelayState).Methods(http.MethodPost)
	r.HandleFunc("/state", h.getState).Methods(http.MethodGet)

	if h.stream != nil {
		r.Handle("/stream", h.stream).Methods(http.MethodGet)
	}

	r.Use(recoverMiddleware(ctx), logMiddleware(ctx))

	return r
}

// getEnvironment returns the persisted document verbatim.
// It never consults the in-memory state.
func (h *Handler) getEnvironment(w http.ResponseWriter, r *http.Request) {
	raw, err := h.documents.Load(r.Context())
	if err != nil {
		logger.WarnKV(r.Context(), "Could not read document", "error", err)
		writeText(w, http.StatusInternalServerError, MessageCannotOpen)

		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// updateRelayState applies manual overrides of the alarm outputs.
// A parameter counts when present, even with an empty value.
func (h *Handler) updateRelayState(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.DebugKV(r.Context(), "Malformed override parameters", "error", err)
	}

	var msg strings.Builder

	overrides := []struct {
		param string
		field domain.AlarmField
		label string
	}{
		{param: ParamEmergencyCall, field: domain.FieldEmergencyCall, label: "Emergency call"},
		{param: ParamShutdownRelay, field: domain.FieldMachineShutdown, label: "Shutdown relay"},
	}

	for _, o := range overrides {
		values, ok := r.Form[o.param]
		if !ok {
			continue
		}

		var value string
		if len(values) > 0 {
			value = values[0]
		}

		if err := h.state.OverrideAlarm(o.field, domain.Switch(value)); err != nil {
			logger.ErrorKV(r.Context(), "Override failed", "field", o.field, "error", err)
			continue
		}

		logger.InfoKV(r.Context(), "Alarm overridden", "field", o.field, "value", value)

		msg.WriteString(o.label + " updated to " + value + ". ")
	}

	if msg.Len() == 0 {
		msg.WriteString(MessageMissingParameters)
	}

	writeText(w, http.StatusOK, msg.String())
}

// getState returns the in-memory snapshot.
func (h *Handler) getState(w http.ResponseWriter, _ *http.Request) {
	snap := h.state.Snapshot()

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(snap)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
