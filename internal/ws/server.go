package ws

import (
	"fmt"
	"net/http"
	"time"

	"maker/internal/manager"

	"go.uber.org/zap"
)

const (
	writeTimeout    = time.Second
	subscriberQueue = 64
)

// WSServer streams relayer events to resolvers and accepts their escrow
// deployment reports.
type WSServer struct {
	port    int
	manager *manager.Manager
	logger  *zap.Logger
}

func newWSServer(port int, m *manager.Manager, logger *zap.Logger) *WSServer {
	return &WSServer{
		port:    port,
		manager: m,
		logger:  logger.With(zap.String("module", "ws")),
	}
}

// NewHandler returns the websocket handler without binding a port.
func NewHandler(m *manager.Manager, logger *zap.Logger) http.Handler {
	return newWSServer(0, m, logger).Serve()
}

func NewWSServer(port int, m *manager.Manager, logger *zap.Logger) *http.Server {
	ws := newWSServer(port, m, logger)

	// Connections are long lived, only the upgrade request is bounded.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", ws.port),
		Handler:           ws.Serve(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}
