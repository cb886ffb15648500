package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"maker/internal/common"
	"maker/internal/manager"

	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

// QuoteSource supplies quotes when the relayer proxies an upstream quoter.
type QuoteSource interface {
	GetQuote(ctx context.Context, params common.QuoteRequestParams) (*common.Quote, error)
}

type Options struct {
	Port int
	// Upstream proxies quote requests when set. Otherwise the relayer
	// answers with DefaultQuote.
	Upstream     QuoteSource
	DefaultQuote *common.Quote
}

type APIServer struct {
	port         int
	upstream     QuoteSource
	defaultQuote *common.Quote
	manager      *manager.Manager
	decoder      *schema.Decoder
	logger       *zap.Logger
}

func newAPIServer(opts Options, m *manager.Manager, logger *zap.Logger) *APIServer {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	defaultQuote := opts.DefaultQuote
	if defaultQuote == nil {
		defaultQuote = DefaultQuote()
	}

	return &APIServer{
		port:         opts.Port,
		upstream:     opts.Upstream,
		defaultQuote: defaultQuote,
		manager:      m,
		decoder:      decoder,
		logger:       logger.With(zap.String("module", "api")),
	}
}

// NewRouter returns the relayer HTTP handler without binding a port.
func NewRouter(opts Options, m *manager.Manager, logger *zap.Logger) http.Handler {
	return newAPIServer(opts, m, logger).RegisterRoutes()
}

func NewAPIServer(opts Options, m *manager.Manager, logger *zap.Logger) *http.Server {
	s := newAPIServer(opts, m, logger)

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
