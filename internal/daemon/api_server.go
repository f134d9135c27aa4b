package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"editorial/internal/config"
	"editorial/internal/logging"
)

type apiServer struct {
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
}

// newAPIServer binds the listener up front so a busy port fails startup.
func newAPIServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("paths.api_bind is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("api listen: %w", err)
	}
	return &apiServer{
		logger:   logging.NewComponentLogger(logger, "api-server"),
		listener: listener,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

func (s *apiServer) address() string {
	return s.listener.Addr().String()
}

// serve blocks until ctx is cancelled, then shuts the server down.
func (s *apiServer) serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()
	s.logger.Info("api server listening", logging.String("address", s.address()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	}
}
