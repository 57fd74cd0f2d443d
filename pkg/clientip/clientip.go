package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Config lists the proxy headers to trust, in priority order. With no
// headers configured only the TCP peer address is used.
type Config struct {
	TrustedHeaders []string `env:"CLIENT_IP_TRUSTED_HEADERS" envSeparator:","`
}

// Resolver determines the client address of a request.
type Resolver struct {
	headers []string
}

// NewResolver creates a resolver trusting the given headers, e.g.
// "CF-Connecting-IP" or "X-Forwarded-For". X-Forwarded-For yields its first
// valid entry.
func NewResolver(trustedHeaders ...string) *Resolver {
	headers := make([]string, 0, len(trustedHeaders))
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: headers}
}

func NewFromConfig(cfg Config) *Resolver {
	return NewResolver(cfg.TrustedHeaders...)
}

// IP returns the normalized client address, or "" if none can be parsed.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for candidate := range strings.SplitSeq(v, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
