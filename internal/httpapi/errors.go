package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"example.com/impostor/internal/auth"
	"example.com/impostor/internal/game"
)

type ErrorResponse struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	writeJSON(w, code, ErrorResponse{Code: errCode, Message: msg})
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(retryAfter.Seconds()) + 1
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Code:              "rate_limited",
		Message:           "too many requests, back off and retry",
		RetryAfterSeconds: secs,
	})
}

// writeServiceError maps domain errors onto the wire taxonomy. Anything
// unrecognized is logged with a correlation id and surfaced as an opaque
// internal error; callers never see stack traces or schema detail.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, game.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, game.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "not_found", "room not found")
	case errors.Is(err, game.ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, "not_found", "participant not found in room")
	case errors.Is(err, game.ErrNotHost):
		writeError(w, http.StatusForbidden, "not_host", "only the host can perform this action")
	case errors.Is(err, auth.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "invalid_credential", "invalid credential")
	case errors.Is(err, game.ErrRoomAlreadyPlaying):
		writeError(w, http.StatusConflict, "room_already_playing", "game already started")
	case errors.Is(err, game.ErrNoWordsAvailable):
		writeError(w, http.StatusConflict, "no_words", "at least one word is required")
	case errors.Is(err, game.ErrInsufficientParticipants):
		writeError(w, http.StatusConflict, "insufficient_participants", err.Error())
	default:
		corrID := uuid.NewString()
		if log != nil {
			log.Error("internal error", "correlation_id", corrID, "err", err)
		}
		writeError(w, http.StatusInternalServerError, "internal", "internal error (ref "+corrID+")")
	}
}
