package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/httputil"
	"github.com/utafrali/shopmesh/pkg/logger"
)

// runtimeProfiles are served by name under /debug/pprof/.
var runtimeProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// RegisterPprof mounts the runtime profiling endpoints under /debug/pprof,
// reachable only from allowedCIDRs (the same list that guards /metrics).
func RegisterPprof(r chi.Router, allowedCIDRs []string, log *slog.Logger) {
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, log))
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		for _, name := range runtimeProfiles {
			r.Method(http.MethodGet, "/"+name, pprof.Handler(name))
		}
	})
}

// Allowlist is a parsed set of networks.
type Allowlist []*net.IPNet

// ParseAllowlist parses entries as CIDRs. A bare address is taken as a single
// host. Entries that parse as neither are returned in invalid.
func ParseAllowlist(entries []string) (list Allowlist, invalid []string) {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			if ip := net.ParseIP(e); ip != nil {
				bits := 128
				if ip.To4() != nil {
					ip, bits = ip.To4(), 32
				}
				list = append(list, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			invalid = append(invalid, e)
			continue
		}
		list = append(list, n)
	}
	return list, invalid
}

// Allows reports whether remoteAddr (host or host:port) is inside the list.
func (a Allowlist) Allows(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range a {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// IPAllowlist rejects requests whose peer address is outside cidrs with 403.
// The peer address is r.RemoteAddr; forwarding headers are not trusted.
func IPAllowlist(cidrs []string, log *slog.Logger) func(http.Handler) http.Handler {
	list, invalid := ParseAllowlist(cidrs)
	for _, e := range invalid {
		log.Warn("invalid allowlist entry, skipping", slog.String("entry", e))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !list.Allows(r.RemoteAddr) {
				logger.WithContext(r.Context(), log).Warn("access denied by IP allowlist",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteError(w, r, apperrors.Forbidden("access restricted by IP allowlist"), log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
