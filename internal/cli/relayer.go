package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"maker/internal/api"
	"maker/internal/manager"
	"maker/internal/ws"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// initServer serves until ctx is done, then gives in-flight requests
// shutdownTimeout to finish.
func initServer(ctx context.Context, name string, server *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("server", name), zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully, press Ctrl+C again to force", zap.String("server", name))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.String("server", name), zap.Error(err))
		return err
	}

	logger.Info("server exiting", zap.String("server", name))
	return nil
}

func newRelayerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relayer",
		Short: "Run a local relayer exposing the quoter, relayer and orders API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Create context that listens for the interrupt signal from the OS.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			m := manager.NewManager(a.logger)
			defer m.Close()

			opts := api.Options{Port: a.cfg.APIPort}
			if a.cfg.RelayerProxy {
				opts.Upstream = a.client()
			}

			servers := map[string]*http.Server{
				"api": api.NewAPIServer(opts, m, a.logger),
				"ws":  ws.NewWSServer(a.cfg.WSPort, m, a.logger),
			}

			var (
				wg       sync.WaitGroup
				errMu    sync.Mutex
				firstErr error
			)
			for name, server := range servers {
				wg.Add(1)
				go func(name string, server *http.Server) {
					defer wg.Done()
					if err := initServer(ctx, name, server, a.logger); err != nil {
						errMu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						errMu.Unlock()
						// bring the other server down too
						stop()
					}
				}(name, server)
			}
			wg.Wait()

			a.logger.Info("servers down, closing the manager")
			return firstErr
		},
	}
}
