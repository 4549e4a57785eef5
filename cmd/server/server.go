package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	config "github.com/shivamghaware/BlogIn/internal/init"
	"github.com/shivamghaware/BlogIn/internal/ledger"
	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/middleware"
	"github.com/shivamghaware/BlogIn/internal/repository"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/suggest"
)

type Server struct {
	store    *store.Adapter
	repos    *repository.Repositories
	ledger   *ledger.Ledger
	sessions *middleware.Sessions
	suggest  *suggest.Service

	streams     context.Context
	stopStreams context.CancelFunc
}

var logg = logger.New()

// New wires the HTTP layer over one adapter. A nil suggestion service
// answers every request with no suggestions.
func New(a *store.Adapter, sessions *middleware.Sessions, svc *suggest.Service) *Server {
	if svc == nil {
		svc = suggest.NewService(nil)
	}
	repos := repository.New(a, nil)
	streams, stop := context.WithCancel(context.Background())
	return &Server{
		store:       a,
		repos:       repos,
		ledger:      ledger.New(a, repos),
		sessions:    sessions,
		suggest:     svc,
		streams:     streams,
		stopStreams: stop,
	}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	auth := func(h http.HandlerFunc) http.Handler { return s.sessions.Require(h) }
	open := func(h http.HandlerFunc) http.Handler { return s.sessions.Optional(h) }

	// Device sessions and accounts
	mux.Handle("POST /sessions", http.HandlerFunc(s.createSessionHandler))
	mux.Handle("POST /login", auth(s.loginHandler))
	mux.Handle("POST /signup", auth(s.signupHandler))
	mux.Handle("POST /logout", auth(s.logoutHandler))
	mux.Handle("GET /me", auth(s.meHandler))
	mux.Handle("PUT /me", auth(s.updateProfileHandler))
	mux.Handle("GET /me/liked", auth(s.likedPostsHandler))
	mux.Handle("GET /me/saved", auth(s.savedPostsHandler))

	// Users and follows
	mux.Handle("GET /users", http.HandlerFunc(s.listUsersHandler))
	mux.Handle("GET /users/{id}", open(s.getUserHandler))
	mux.Handle("GET /users/{id}/followers", http.HandlerFunc(s.followersHandler))
	mux.Handle("GET /users/{id}/following", http.HandlerFunc(s.followingHandler))
	mux.Handle("POST /users/{id}/follow", auth(s.followHandler))
	mux.Handle("DELETE /users/{id}/follow", auth(s.unfollowHandler))

	// Posts, comments, likes and bookmarks
	mux.Handle("GET /posts", http.HandlerFunc(s.listPostsHandler))
	mux.Handle("POST /posts", auth(s.createPostHandler))
	mux.Handle("GET /tags", http.HandlerFunc(s.tagsHandler))
	mux.Handle("GET /posts/{slug}", open(s.getPostHandler))
	mux.Handle("PUT /posts/{slug}", auth(s.updatePostHandler))
	mux.Handle("DELETE /posts/{slug}", auth(s.deletePostHandler))
	mux.Handle("GET /posts/{slug}/comments", http.HandlerFunc(s.listCommentsHandler))
	mux.Handle("POST /posts/{slug}/comments", auth(s.addCommentHandler))
	mux.Handle("GET /comments", http.HandlerFunc(s.allCommentsHandler))
	mux.Handle("POST /posts/{slug}/like", auth(s.likeHandler))
	mux.Handle("POST /posts/{slug}/bookmark", auth(s.bookmarkHandler))

	// Tag suggestions
	mux.Handle("GET /posts/{slug}/suggestions", http.HandlerFunc(s.storedSuggestionsHandler))
	mux.Handle("POST /suggestions", http.HandlerFunc(s.suggestHandler))

	// Live change stream and metrics
	mux.Handle("GET /ws", open(s.streamHandler))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Run serves until ctx ends, then shuts down gracefully. TLS is used when
// both certificate paths are configured.
func Run(ctx context.Context, s *Server, cfg *config.Config) error {
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second, // prevent slowloris attacks
		ReadTimeout:       10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			logg.Info("server", "Starting HTTPS server on "+cfg.ServerAddr)
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			logg.Info("server", "Starting HTTP server on "+cfg.ServerAddr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("server", "Server stopped unexpectedly", err)
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logg.Info("server", "Shutdown signal received")
	// Shutdown does not track hijacked WebSocket connections, so end them here.
	s.stopStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
		return err
	}
	logg.Info("server", "Server stopped gracefully")
	return nil
}
