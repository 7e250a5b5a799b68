// ABOUTME: HTTP handler for the push channel endpoint
// ABOUTME: Upgrades websocket requests into hub sessions and answers plain GETs with status
package realtime

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// clientMessage is the only inbound frame the server understands: room
// membership changes. Anything else is ignored.
type clientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// Handler serves the push channel endpoint. Upgrade requests become hub
// sessions; plain GETs get a JSON status payload so the endpoint is probeable.
func Handler(hub *Hub, logger *log.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "ok",
				"clients": hub.ClientCount(),
			})
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
			return
		}

		s := hub.Add(conn)

		go func() {
			defer hub.Remove(s)
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}

				var msg clientMessage
				if err := json.Unmarshal(data, &msg); err != nil {
					continue
				}
				switch msg.Action {
				case "join":
					hub.JoinRoom(s, msg.Room)
				case "leave":
					hub.LeaveRoom(s, msg.Room)
				}
			}
		}()
	}
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}
