package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// TrustedRealIP replaces r.RemoteAddr with the client address from X-Real-IP
// or the first X-Forwarded-For entry, but only when the connection comes from
// one of the trusted proxies. Entries may be CIDRs or bare IPs. With no
// trusted proxies, forwarding headers are ignored and RemoteAddr is reduced to
// its host part.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	nets := parseNetworks(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer := hostIP(r.RemoteAddr)
			if ip := forwardedIP(r); ip != nil && contains(nets, peer) {
				r.RemoteAddr = ip.String()
			} else if peer != nil {
				r.RemoteAddr = peer.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseNetworks(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, n, err := net.ParseCIDR(e); err == nil {
			nets = append(nets, n)
			continue
		}
		ip := net.ParseIP(e)
		if ip == nil {
			slog.Warn("realip: ignoring invalid trusted proxy", "entry", e)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

func forwardedIP(r *http.Request) net.IP {
	if v := r.Header.Get("X-Real-IP"); v != "" {
		return net.ParseIP(strings.TrimSpace(v))
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		return net.ParseIP(strings.TrimSpace(first))
	}
	return nil
}

func hostIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}

func contains(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
