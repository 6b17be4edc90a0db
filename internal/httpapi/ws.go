package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS is the best-effort push channel: GET /ws/{roomID}?participantId=..&token=..
// Credentials travel as query params because browsers cannot set headers on
// websocket dials. Clients re-fetch state on every event and on (re)connect,
// so a missed event is never fatal.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	pid := r.URL.Query().Get("participantId")
	token := r.URL.Query().Get("token")

	if !validUUID(roomID) || !validUUID(pid) {
		http.Error(w, "invalid room or participant id", http.StatusBadRequest)
		return
	}
	if token == "" {
		http.Error(w, "credential required", http.StatusUnauthorized)
		return
	}
	if err := s.authorize(r.Context(), token, pid, roomID); err != nil {
		http.Error(w, "invalid credential", http.StatusUnauthorized)
		return
	}

	events, cancel, err := s.Broker.Subscribe(r.Context(), roomID)
	if err != nil {
		http.Error(w, "subscribe failed", http.StatusInternalServerError)
		return
	}
	defer cancel()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = ws.Close() }()

	done := make(chan struct{})

	// writer loop
	go func() {
		defer close(done)
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := ws.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
					return
				}
			}
		}
	}()

	// reader loop: clients send nothing meaningful, we only watch for close
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-done
}
