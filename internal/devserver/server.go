// Package devserver serves the source tree over HTTP and live-reloads
// connected browsers through socket.io.
package devserver

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/unrolled/secure"
	"github.com/zishang520/socket.io/v2/socket"
)

const (
	clientPath = "/__assetgrid/client.js"
	healthPath = "/__assetgrid/health"
	socketPath = "/socket.io"
)

//go:embed static/client.js
var clientScript []byte

// Options configures a dev server session.
type Options struct {
	// Root is the directory served at "/".
	Root string
	Host string
	// Port to listen on; 0 picks a free port.
	Port int
	// Open is "local", "external" or empty.
	Open string
	// Notify enables the in-page error banner.
	Notify bool
	// Index lists the file names tried for directory requests.
	Index []string
	// Opener opens a URL in a browser. Defaults to the system browser.
	Opener func(url string) error
}

// Server is a running dev server session.
type Server struct {
	opts     Options
	io       *socket.Server
	http     *http.Server
	listener net.Listener
	served   chan struct{}
}

// Start binds the listening socket and serves in the background. A bind
// failure is returned immediately.
func Start(ctx context.Context, opts Options) (*Server, error) {
	logger := ctxlog.FromContext(ctx)

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, eris.Wrap(err, "resolving server root")
	}
	opts.Root = root
	if len(opts.Index) == 0 {
		opts.Index = []string{"index.html", "index.htm"}
	}
	if opts.Opener == nil {
		opts.Opener = openBrowser
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, eris.Wrapf(err, "dev server cannot listen on %s", addr)
	}

	s := &Server{
		opts:     opts,
		listener: ln,
		served:   make(chan struct{}),
	}
	s.io = newSocketServer(ctx)
	s.http = &http.Server{
		Handler:           s.routes(ctx),
		ReadHeaderTimeout: 15 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		defer close(s.served)
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Dev server failed unexpectedly.", "error", err)
		}
	}()

	logger.Info("Dev server started.", "url", s.URL(), "root", opts.Root)
	if opts.Open != "" {
		s.open(ctx)
	}
	return s, nil
}

func (s *Server) routes(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(healthPath, s.healthHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(clientPath, clientHandler).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix(socketPath + "/").Handler(s.io.ServeHandler(nil))
	r.PathPrefix("/").Handler(&staticHandler{root: s.opts.Root, index: s.opts.Index, logger: ctxlog.FromContext(ctx)})

	sm := secure.New(secure.Options{
		IsDevelopment:      true,
		ContentTypeNosniff: true,
	})
	return sm.Handler(noCache(r))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func clientHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(clientScript)
}

// noCache disables browser caching, every request must see the latest build.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// URL returns the local URL of the server.
func (s *Server) URL() string {
	return "http://" + net.JoinHostPort("localhost", s.port())
}

func (s *Server) port() string {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	return port
}

// Close disconnects every browser and stops serving.
func (s *Server) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Closing dev server...")

	s.io.Close(nil)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "dev server shutdown failed")
	}
	<-s.served

	logger.Info("Dev server stopped.")
	return nil
}
