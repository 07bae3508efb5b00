package devserver

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/zishang520/socket.io/v2/socket"
)

// Events sent to the browsers.
const (
	EventReload = "reload"
	EventInject = "inject"
	EventNotify = "notify"
)

func newSocketServer(ctx context.Context) *socket.Server {
	logger := ctxlog.FromContext(ctx)

	opts := socket.DefaultServerOptions()
	opts.SetServeClient(false)

	io := socket.NewServer(nil, opts)
	io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		logger.Debug("Browser connected.", "sid", client.Id())
	})
	return io
}

// Clients returns the number of connected browsers.
func (s *Server) Clients() int {
	return s.io.Sockets().Sockets().Len()
}

// Reload asks every connected browser to reload the page.
func (s *Server) Reload(ctx context.Context) {
	ctxlog.FromContext(ctx).Info("Reloading browsers.", "clients", s.Clients())
	s.io.Emit(EventReload)
}

// Stream reports changed files. When every file is a stylesheet below the
// server root, browsers swap the stylesheets in place; anything else
// reloads the page.
func (s *Server) Stream(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}

	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		u, ok := s.urlPath(p)
		if !ok || !strings.EqualFold(filepath.Ext(p), ".css") {
			s.Reload(ctx)
			return
		}
		urls = append(urls, u)
	}

	ctxlog.FromContext(ctx).Info("Injecting stylesheets.", "files", urls, "clients", s.Clients())
	s.io.Emit(EventInject, urls)
}

// Notify shows an error banner in every browser when notifications are
// enabled.
func (s *Server) Notify(ctx context.Context, title, message string) {
	if !s.opts.Notify {
		return
	}
	ctxlog.FromContext(ctx).Debug("Sending browser notification.", "title", title)
	s.io.Emit(EventNotify, map[string]string{"title": title, "message": message})
}

// urlPath maps an absolute file path to the URL path it is served at.
func (s *Server) urlPath(p string) (string, bool) {
	rel, err := filepath.Rel(s.opts.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return "/" + filepath.ToSlash(rel), true
}
