package realtime

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy decides which browser origins may open a socket. Same-host and
// loopback pages are always accepted, as are requests without an Origin header.
type originPolicy struct {
	any   bool
	hosts map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{hosts: make(map[string]struct{})}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			p.any = true
			continue
		}
		if host := hostOf(origin); host != "" {
			p.hosts[host] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.any {
		return true
	}
	host := hostOf(origin)
	if host == "" {
		return false
	}
	if host == hostOf(r.Host) || isLoopback(host) {
		return true
	}
	_, ok := p.hosts[host]
	return ok
}

// hostOf returns the lower-cased host of an origin URL or host:port pair.
func hostOf(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		if err != nil {
			return ""
		}
		return strings.ToLower(u.Hostname())
	}
	if h, _, err := net.SplitHostPort(value); err == nil {
		return strings.ToLower(h)
	}
	return strings.ToLower(value)
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return host == "localhost"
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

// uniqueStreams normalises names, dropping blanks and duplicates in order.
func uniqueStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	out := make([]string, 0, len(streams))
	for _, stream := range streams {
		stream = normalizeStream(stream)
		if stream == "" {
			continue
		}
		if _, dup := seen[stream]; dup {
			continue
		}
		seen[stream] = struct{}{}
		out = append(out, stream)
	}
	return out
}
