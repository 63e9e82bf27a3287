// Package keepalive serves the tiny HTTP endpoint some hosting platforms
// poll to keep the process awake.
package keepalive

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"regbot/core/logger"
)

// Server is the keep-alive HTTP listener.
type Server struct {
	srv *http.Server
}

// New builds a server answering GET / on the given address.
func New(listen string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Bot is alive!"))
	})
	return &Server{
		srv: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins serving in the background; listen failures are logged, not
// fatal, since keep-alive is a convenience and never gates the bot.
func (s *Server) Start() {
	go func() {
		logger.Info(context.Background(), "keepalive", "listen",
			slog.String("addr", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "keepalive", "serve.failed",
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Stop shuts the listener down, bounded by the context.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
