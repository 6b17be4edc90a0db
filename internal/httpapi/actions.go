package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"example.com/impostor/internal/auth"
	"example.com/impostor/internal/game"
	"example.com/impostor/internal/notify"
	"example.com/impostor/internal/ratelimit"
	"example.com/impostor/internal/words"
)

// CategoryLister yields the curated word lists. Optional; the action returns
// an empty list when no backing store is wired.
type CategoryLister interface {
	List(ctx context.Context) ([]words.Category, error)
}

// Server is the online API surface: one action envelope endpoint plus the
// share-QR, word-import and websocket routes.
type Server struct {
	Rooms      *game.Service
	Creds      *auth.Service
	Limits     *ratelimit.Limiter
	Broker     notify.Broker
	Categories CategoryLister
	Log        *slog.Logger
	PublicURL  string
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/actions", s.handleAction)
	mux.HandleFunc("POST /api/words/import", s.handleWordImport)
	mux.HandleFunc("GET /api/rooms/{code}/qr", s.handleJoinQR)
	mux.HandleFunc("GET /ws/{roomID}", s.handleWS)
}

// actionRequest is the envelope: {"action": "...", "roomId": "...", ...}.
// The participant id always travels in the X-Participant-ID header, the
// credential (when required) as an Authorization bearer token.
type actionRequest struct {
	Action        string   `json:"action"`
	RoomID        string   `json:"roomId"`
	JoinCode      string   `json:"joinCode"`
	DisplayName   string   `json:"displayName"`
	Words         []string `json:"words"`
	ImpostorCount *int     `json:"impostorCount"`
}

type registrationResponse struct {
	RoomID        string `json:"roomId"`
	JoinCode      string `json:"joinCode"`
	ParticipantID string `json:"participantId"`
	Credential    string `json:"credential"`
}

type roleResponse struct {
	Role *string `json:"role"`
	Word *string `json:"word"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	pid := r.Header.Get("X-Participant-ID")
	if !validUUID(pid) {
		writeError(w, http.StatusBadRequest, "validation_error", "valid X-Participant-ID header required")
		return
	}

	var req actionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid json")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "action is required")
		return
	}

	if ok, retryAfter := s.Limits.Allow(req.Action, pid); !ok {
		writeRateLimited(w, retryAfter)
		return
	}

	ctx := r.Context()

	switch req.Action {
	case "create_room":
		room, cred, err := s.Rooms.CreateRoom(ctx, pid, sanitizeText(req.DisplayName))
		if err != nil {
			writeServiceError(w, s.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, registrationResponse{
			RoomID:        room.ID,
			JoinCode:      room.JoinCode,
			ParticipantID: pid,
			Credential:    cred,
		})

	case "register_participant":
		room, cred, err := s.Rooms.JoinRoom(ctx, req.JoinCode, pid, sanitizeText(req.DisplayName))
		if err != nil {
			writeServiceError(w, s.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, registrationResponse{
			RoomID:        room.ID,
			JoinCode:      room.JoinCode,
			ParticipantID: pid,
			Credential:    cred,
		})

	case "get_players":
		if !validUUID(req.RoomID) {
			writeError(w, http.StatusBadRequest, "validation_error", "valid roomId required")
			return
		}
		players, err := s.Rooms.Roster(ctx, req.RoomID)
		if err != nil {
			writeServiceError(w, s.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"players": players})

	case "get_categories":
		if s.Categories == nil {
			writeJSON(w, http.StatusOK, map[string]any{"categories": []words.Category{}})
			return
		}
		cats, err := s.Categories.List(ctx)
		if err != nil {
			writeServiceError(w, s.Log, err)
			return
		}
		if cats == nil {
			cats = []words.Category{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": cats})

	case "start_round", "new_round", "update_room", "delete_room", "leave_room", "get_my_role":
		s.handleSecuredAction(w, r, pid, req)

	default:
		writeError(w, http.StatusBadRequest, "unknown_action", "unknown action")
	}
}

func (s *Server) handleSecuredAction(w http.ResponseWriter, r *http.Request, pid string, req actionRequest) {
	if !validUUID(req.RoomID) {
		writeError(w, http.StatusBadRequest, "validation_error", "valid roomId required")
		return
	}

	cred := bearerToken(r)
	if cred == "" {
		writeError(w, http.StatusUnauthorized, "credential_required", "credential required")
		return
	}

	ctx := r.Context()
	if err := s.authorize(ctx, cred, pid, req.RoomID); err != nil {
		writeServiceError(w, s.Log, err)
		return
	}

	var err error
	switch req.Action {
	case "start_round":
		var bank []string
		if req.Words != nil {
			bank = sanitizeWords(req.Words)
		}
		err = s.Rooms.StartRound(ctx, req.RoomID, pid, bank, req.ImpostorCount)

	case "new_round":
		err = s.Rooms.NewRound(ctx, req.RoomID, pid)

	case "update_room":
		var bank []string
		if req.Words != nil {
			bank = sanitizeWords(req.Words)
		}
		err = s.Rooms.UpdateConfig(ctx, req.RoomID, pid, bank, req.ImpostorCount)

	case "delete_room":
		err = s.Rooms.DeleteRoom(ctx, req.RoomID, pid)

	case "leave_room":
		err = s.Rooms.LeaveRoom(ctx, req.RoomID, pid)

	case "get_my_role":
		role, word, merr := s.Rooms.MyRole(ctx, req.RoomID, pid)
		if merr != nil {
			writeServiceError(w, s.Log, merr)
			return
		}
		resp := roleResponse{}
		if role != game.RoleUnset {
			v := string(role)
			resp.Role = &v
		}
		if word != "" {
			resp.Word = &word
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if err != nil {
		writeServiceError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// authorize verifies the credential signature and then compares it against
// the on-file copy for that participant. A missing participant and a wrong
// credential are indistinguishable to the caller.
func (s *Server) authorize(ctx context.Context, cred, pid, roomID string) error {
	if _, err := s.Creds.Verify(cred, pid, roomID); err != nil {
		return auth.ErrInvalidCredential
	}

	room, err := s.Rooms.Room(ctx, roomID)
	if err != nil {
		return err
	}
	p := room.Participant(pid)
	if p == nil || !auth.Matches(cred, p.Credential) {
		if s.Log != nil {
			s.Log.Warn("credential mismatch, possible impersonation attempt",
				"room_id", roomID, "participant_id", pid)
		}
		return auth.ErrInvalidCredential
	}
	return nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func (s *Server) handleWordImport(w http.ResponseWriter, r *http.Request) {
	pid := r.Header.Get("X-Participant-ID")
	if !validUUID(pid) {
		writeError(w, http.StatusBadRequest, "validation_error", "valid X-Participant-ID header required")
		return
	}
	if ok, retryAfter := s.Limits.Allow("import_words", pid); !ok {
		writeRateLimited(w, retryAfter)
		return
	}

	list, err := words.ImportCSV(http.MaxBytesReader(w, r.Body, 1<<20), game.MaxWords)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "no usable words in file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"words": sanitizeWords(list)})
}
