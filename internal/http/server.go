package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
	"go.uber.org/zap"
)

// Server envuelve http.Server con timeouts sanos y apagado ordenado.
type Server struct {
	srv *http.Server
}

// NewServer crea el servidor con el handler ya armado.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start bloquea sirviendo requests hasta que el contexto se cancele,
// luego drena las conexiones en curso.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	logger.L().Info("http server listening", zap.String("addr", s.srv.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
