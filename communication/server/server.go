package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"awreplay/archive"
	"awreplay/catalog"
	"awreplay/communication"
	"awreplay/engine"
	"awreplay/game"
	"awreplay/gamemaster"
	"awreplay/meta"
	"awreplay/phpser"
	"awreplay/replay"

	"github.com/rs/zerolog/log"
)

// Server exposes a GameMaster over HTTP and a websocket update stream.
type Server struct {
	mux     *http.ServeMux
	gm      *gamemaster.GameMaster
	catalog *catalog.Catalog
}

// New creates a server with all routes. The catalog may be nil.
func New(gm *gamemaster.GameMaster, c *catalog.Catalog) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		gm:      gm,
		catalog: c,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/replays", s.handleLoad)
	s.mux.HandleFunc("GET /api/replays", s.handleList)
	s.mux.HandleFunc("GET /api/replays/{id}", s.handleGet)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/control", s.handleControl)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, meta.MAX_ENTRY_SIZE+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(data) > meta.MAX_ENTRY_SIZE {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("archive larger than %d bytes", meta.MAX_ENTRY_SIZE))
		return
	}
	resp, err := s.gm.Load(r.Context(), data)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusNotFound, errors.New("no catalog configured"))
		return
	}
	q := r.URL.Query()
	f := catalog.Filter{Faction: q.Get("faction")}
	var err error
	if f.MapID, err = intParam(q.Get("map")); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	player, err := intParam(q.Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	f.Player = game.PlayerID(player)

	entries, err := s.catalog.List(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusNotFound, errors.New("no catalog configured"))
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad match id %q", r.PathValue("id")))
		return
	}
	e, err := s.catalog.Get(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.gm.Snapshot(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type controlResponse struct {
	Status engine.Status `json:"status"`
	Error  string        `json:"error,omitempty"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var cmd communication.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	status, err := s.gm.Control(r.Context(), cmd)
	if err != nil {
		writeJSON(w, statusFor(err), controlResponse{Status: status, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, controlResponse{Status: status})
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var (
		corrupt   *archive.CorruptArchiveError
		decode    *phpser.DecodeError
		invalid   *replay.ValidationError
		violation *game.RuleViolation
	)
	switch {
	case errors.Is(err, communication.ErrNoReplay), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &corrupt), errors.As(err, &decode), errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.As(err, &violation), errors.Is(err, engine.ErrAtEnd):
		return http.StatusConflict
	case errors.Is(err, engine.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error().Msgf("request failed: %v", err)
	}
	writeJSON(w, status, communication.ErrorPayload{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
