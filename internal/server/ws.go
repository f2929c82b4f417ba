package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarkMessage is sent once per processed frame.
type LandmarkMessage struct {
	Frame  int       `json:"frame"`
	Vector []float64 `json:"vector"`
}

// LandmarksHandler streams landmark vectors over WebSocket.
type LandmarksHandler struct {
	preview *Preview
	logger  *zap.Logger
}

// NewLandmarksHandler creates a new LandmarksHandler over the given preview.
func NewLandmarksHandler(p *Preview, logger *zap.Logger) *LandmarksHandler {
	return &LandmarksHandler{preview: p, logger: logger}
}

// ServeHTTP upgrades the connection and sends every new vector until either side closes.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	seq := 0
	for {
		snap, ok := h.preview.Next(ctx, seq)
		if !ok {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
		seq = snap.Seq

		msg := LandmarkMessage{Frame: snap.Seq, Vector: snap.Vector[:]}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
