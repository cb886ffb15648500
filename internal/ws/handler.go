package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

func (ws *WSServer) Serve() http.Handler {
	mux := http.NewServeMux()

	// main and only route for the WebSocket server
	mux.HandleFunc("/", ws.MainHandler)

	return ws.corsMiddleware(mux)
}

func (ws *WSServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (ws *WSServer) MainHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
	if err != nil {
		ws.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer c.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := ws.manager.Subscribe(subscriberQueue)
	id := sub.ID
	defer ws.manager.Unsubscribe(id)

	ws.logger.Info("resolver connected", zap.String("remote", r.RemoteAddr), zap.Uint64("subscriber", id), zap.Int("subscribers", ws.manager.Subscribers()))

	go ws.readLoop(ctx, cancel, c)

	for {
		select {
		case m, ok := <-sub.C:
			if !ok {
				c.Close(websocket.StatusGoingAway, "relayer shutting down")
				return
			}
			if err := ws.write(ctx, c, m); err != nil {
				ws.logger.Warn("failed to write message", zap.Uint64("subscriber", id), zap.Error(err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (ws *WSServer) write(ctx context.Context, c *websocket.Conn, m []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, m)
}

// readLoop hands resolver messages to the manager until the peer goes away.
func (ws *WSServer) readLoop(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn) {
	defer cancel()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		if err := ws.manager.HandleReceiveEvent(data); err != nil {
			ws.logger.Warn("rejected resolver event", zap.Error(err))
			ws.reply(ctx, c, "ERROR "+err.Error())
		}
	}
}

func (ws *WSServer) reply(ctx context.Context, c *websocket.Conn, msg string) {
	if err := ws.write(ctx, c, []byte(msg)); err != nil {
		ws.logger.Debug("failed to reply", zap.Error(err))
	}
}
