package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shivamghaware/BlogIn/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsBuffer     = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// streamFilter reads ?kinds=post,comment&signals=data_changed.
func streamFilter(r *http.Request) events.Filter {
	var f events.Filter
	for _, k := range splitList(r.URL.Query().Get("kinds")) {
		f.Kinds = append(f.Kinds, events.Kind(k))
	}
	for _, s := range splitList(r.URL.Query().Get("signals")) {
		f.Signals = append(f.Signals, events.Signal(s))
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// visible hides other sessions' session_ended events from this client.
func visible(e events.Event, sessionID string) bool {
	if e.Signal != events.SessionEnded {
		return true
	}
	return sessionID != "" && e.SessionID == sessionID
}

// streamHandler pushes change events to a WebSocket client until either
// side goes away or the server shuts down.
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	filter := streamFilter(r)
	sid := sessionID(r)

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logg.Error("http/ws", "Failed to upgrade the websocket", err)
		return
	}
	defer ws.Close()
	logg.Info("http/ws", "Websocket client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.streams, cancel)
	defer stop()

	// The read side only handles control frames; an error means the client left.
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	stream := s.store.Bus().Stream(ctx, filter, wsBuffer)
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-stream:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return
			}
			if !visible(e, sid) {
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteJSON(e); err != nil {
				logg.Info("http/ws", "Websocket client disconnected")
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
