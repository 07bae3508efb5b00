package devserver

import (
	"context"
	"net"

	"github.com/pkg/browser"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

func openBrowser(url string) error {
	return browser.OpenURL(url)
}

// open launches a browser on the local or the LAN address. Failing to open a
// browser doesn't stop the session.
func (s *Server) open(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	url := s.URL()
	if s.opts.Open == "external" {
		if ip := externalIP(); ip != "" {
			url = "http://" + net.JoinHostPort(ip, s.port())
		} else {
			logger.Warn("No external address found, opening the local URL.")
		}
	}

	logger.Debug("Opening browser.", "url", url)
	if err := s.opts.Opener(url); err != nil {
		logger.Warn("Cannot open browser.", "url", url, "error", err)
	}
}

// externalIP returns the first non-loopback IPv4 address of the host.
func externalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
