package httpapi

import (
	"net"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// handleJoinQR renders the join link for a room's code as a PNG so the host
// can share it across devices. PNG encoding is the most expensive response we
// produce and the endpoint needs no participant header, so it is limited by
// client address instead.
func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	if ok, retryAfter := s.Limits.Allow("room_qr", clientAddr(r)); !ok {
		writeRateLimited(w, retryAfter)
		return
	}

	room, err := s.Rooms.RoomByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeServiceError(w, s.Log, err)
		return
	}

	joinURL := strings.TrimSuffix(s.PublicURL, "/") + "/?join=" + room.JoinCode
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		writeServiceError(w, s.Log, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// clientAddr is the rate-limit key for unauthenticated endpoints: the remote
// host without the ephemeral port, so one client shares one window.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
