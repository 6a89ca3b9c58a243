package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"HealthAssist/middleware"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/services"
)

const (
	wsReadLimit   = 1 << 20
	wsReadTimeout = 60 * time.Second
	wsWriteWait   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

type wsStartPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wsFrame struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Offline bool   `json:"offline,omitempty"`
	Stopped bool   `json:"stopped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatWS relays one chat exchange over a WebSocket.
// Client protocol (JSON messages):
//
//	-> {type: "start", message: string}
//	<- {type: "delta", data: string}
//	<- {type: "done", ok: true, offline?: bool, stopped?: bool}
//	<- {type: "error", error: string}
//
// A {type: "stop"} frame sent while the reply streams cancels it. Rate
// limiting happens here, once the token names the caller.
func ChatWS(resolver middleware.TokenResolver, limiter *middleware.RateLimiter, relay *services.ChatRelay, log *logger.Logger) gin.HandlerFunc {
	log = log.With("handler", "ChatWS")
	return func(c *gin.Context) {
		// Authenticate via ?token=JWT
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			abortWithError(c, http.StatusUnauthorized, "missing token query")
			return
		}
		s, err := resolver.Resolve(c.Request.Context(), tokenStr)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if !limiter.Allow(middleware.CallerKey(c, s.UserID)) {
			abortWithError(c, http.StatusTooManyRequests, "too many requests")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "userID", s.UserID, "error", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})

		send := func(f wsFrame) error {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return conn.WriteJSON(f)
		}

		// exactly one start message per connection
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			log.Debug("websocket closed before start", "userID", s.UserID, "error", err)
			return
		}
		var start wsStartPayload
		if err := json.Unmarshal(msgBytes, &start); err != nil || strings.ToLower(start.Type) != "start" || strings.TrimSpace(start.Message) == "" {
			_ = send(wsFrame{Type: "error", Error: "invalid start payload"})
			return
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		stream, err := relay.Open(ctx, s.UserID, start.Message)
		if err != nil && ctx.Err() != nil {
			log.Debug("websocket closed before the reply started", "userID", s.UserID, "error", err)
			return
		}
		if err != nil {
			log.Error("chat request failed", "userID", s.UserID, "error", err)
			_ = send(wsFrame{Type: "error", Error: err.Error()})
			return
		}

		stopped := make(chan struct{})
		go watchForStop(conn, stopped, cancel)

		_, err = stream.Pipe(ctx, func(tok string) error {
			return send(wsFrame{Type: "delta", Data: tok})
		})

		// a stop that lands after the reply finished does not mark it stopped
		if err != nil && isClosed(stopped) {
			_ = send(wsFrame{Type: "done", OK: true, Stopped: true, Offline: stream.Offline()})
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("websocket chat stream interrupted", "userID", s.UserID, "error", err)
			_ = send(wsFrame{Type: "error", Error: "stream interrupted"})
			return
		}
		_ = send(wsFrame{Type: "done", OK: true, Offline: stream.Offline()})
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// watchForStop reads client frames until a stop request or a read error.
// Only a stop request cancels the relay.
func watchForStop(conn *websocket.Conn, stopped chan<- struct{}, cancel context.CancelFunc) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			return
		}
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		var obj struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(msg, &obj)
		if strings.EqualFold(strings.TrimSpace(obj.Type), "stop") {
			close(stopped)
			cancel()
			return
		}
	}
}
