package control

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"qtunnel/internal/domain"
	"qtunnel/internal/hub"
)

// Server is the hub's read-mostly control surface, consumed by the external
// collaborators (account, backup, firewall and database services). It reads
// hub state and submits messages; it never touches session secrets.
type Server struct {
	hub *hub.Hub
	log *slog.Logger
}

// NewServer wires the control surface over h.
func NewServer(h *hub.Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{hub: h, log: log.With("component", "control")}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", requireMethod(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/status", requireMethod(http.MethodGet, s.handleStatus))
	mux.HandleFunc("/stats", requireMethod(http.MethodGet, s.handleStats))
	mux.HandleFunc("/connect", requireMethod(http.MethodPost, s.handleConnect))
	mux.HandleFunc("/send", requireMethod(http.MethodPost, s.handleSend))
	return mux
}

// requireMethod replicates the method matching that net/http's ServeMux
// patterns ("GET /health") provide on newer Go releases; the local toolchain
// predates pattern support.
func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Health())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Sessions: s.hub.Status()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Stats())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ServiceName == "" {
		writeError(w, http.StatusBadRequest, "missing service_name")
		return
	}
	writeJSON(w, http.StatusOK, s.hub.ConnectionInfo(req.ServiceName))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if req.Sender == "" || req.Target == "" || len(req.Message) == 0 {
		writeError(w, http.StatusBadRequest, "missing sender, target, or message")
		return
	}
	err := s.hub.Send(req.Sender, req.Target, req.Message)
	if errors.Is(err, hub.ErrUnknownTarget) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.log.Error("send failed", "target", req.Target, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SendResponse{Status: "routed"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// StatusResponse wraps the registry snapshot.
type StatusResponse struct {
	Sessions []domain.SessionSummary `json:"sessions"`
}

// ConnectRequest asks for handshake bootstrap info on behalf of a named
// service.
type ConnectRequest struct {
	ServiceName string `json:"service_name"`
}

// SendRequest routes one message through the hub on behalf of the caller.
type SendRequest struct {
	Sender  domain.ServiceID `json:"sender"`
	Target  domain.ServiceID `json:"target"`
	Message []byte           `json:"message"`
}

// SendResponse reports the routing outcome.
type SendResponse struct {
	Status string `json:"status"`
}
