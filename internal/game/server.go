package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"example.com/sketchwars/internal/metrics"
)

// Server exposes the room registry over HTTP and WebSocket.
type Server struct {
	rooms *Registry
	log   *slog.Logger
}

func NewServer(rooms *Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{rooms: rooms, log: log}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/rooms", s.handleCreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}", s.handleRoomState).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/join", s.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/leave", s.handleLeave).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/ban", s.handleBan).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/pause", s.handlePause).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/ws", s.handleWS).Methods(http.MethodGet)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, req *http.Request) {
	room := s.rooms.Create()
	metrics.RoomsCreated.Inc()
	writeJSON(w, http.StatusCreated, map[string]any{
		"roomId": room.ID(),
	})
}

func (s *Server) handleRoomState(w http.ResponseWriter, req *http.Request) {
	room, ok := s.rooms.Get(mux.Vars(req)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}
	writeJSON(w, http.StatusOK, room.Snapshot())
}

func (s *Server) handleJoin(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	roomID := mux.Vars(req)["id"]
	room := s.rooms.GetOrCreate(roomID)
	res, err := room.Join(body.Username)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"roomId":       roomID,
		"playerId":     res.PlayerID,
		"player":       res.Player,
		"isCreator":    res.IsCreator,
		"gameStarted":  res.GameStarted,
		"websocketUrl": fmt.Sprintf("/rooms/%s/ws?playerId=%s", roomID, res.PlayerID),
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, req *http.Request) {
	var body struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "playerId required")
		return
	}

	room, ok := s.rooms.Get(mux.Vars(req)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}
	if err := room.Leave(body.PlayerID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleStart(w http.ResponseWriter, req *http.Request) {
	var body struct {
		PlayerID string `json:"playerId"`
		StartSettings
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "playerId required")
		return
	}

	room, ok := s.rooms.Get(mux.Vars(req)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}
	if err := room.StartGame(body.PlayerID, body.StartSettings); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleBan(w http.ResponseWriter, req *http.Request) {
	var body struct {
		RequesterID string `json:"requesterId"`
		TargetID    string `json:"targetPlayerId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RequesterID == "" || body.TargetID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "requesterId and targetPlayerId required")
		return
	}

	room, ok := s.rooms.Get(mux.Vars(req)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}
	if err := room.Ban(body.RequesterID, body.TargetID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePause(w http.ResponseWriter, req *http.Request) {
	var body struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "playerId required")
		return
	}

	room, ok := s.rooms.Get(mux.Vars(req)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}
	paused, err := room.Pause(body.PlayerID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "isPaused": paused})
}

func (s *Server) handleWS(w http.ResponseWriter, req *http.Request) {
	playerID := req.URL.Query().Get("playerId")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "playerId query parameter required")
		return
	}
	// a room nobody has joined cannot contain playerID, so never
	// materialize one here
	room, ok := s.rooms.Get(mux.Vars(req)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}

	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.log.Debug("ws upgrade failed", "room", room.ID(), "err", err)
		return
	}

	cc := newClientConn(ws)
	go cc.writePump()

	if err := room.Connect(playerID, cc); err != nil {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown or banned player"),
			time.Now().Add(writeWait))
		cc.Close()
		return
	}
	metrics.WSConnections.Inc()

	s.readPump(room, playerID, cc)

	room.Disconnect(playerID, cc)
	cc.Close()
}

// response helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

func writeGameError(w http.ResponseWriter, err error) {
	status, code := http.StatusBadRequest, "bad_request"
	switch {
	case errors.Is(err, ErrRoomFull):
		code = "room_full"
	case errors.Is(err, ErrNameTaken):
		code = "name_taken"
	case errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrAlreadyStarted):
		code = "already_started"
	case errors.Is(err, ErrNotEnoughPlayers):
		code = "not_enough_players"
	case errors.Is(err, ErrInvalidTarget):
		code = "invalid_target"
	case errors.Is(err, ErrNoActiveGame):
		code = "no_active_game"
	case errors.Is(err, ErrInvalidChoice):
		code = "invalid_choice"
	}
	writeError(w, status, code, err.Error())
}
