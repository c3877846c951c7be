package utils

import (
	"net"
	"net/url"
	"strings"
	"sync"
)

var (
	extraOriginsMu sync.RWMutex
	extraOrigins   = map[string]bool{}
)

// AllowOrigins registers additional exact origins (e.g. the deployed
// frontend URL) on top of the built-in local/private allowance.
func AllowOrigins(origins ...string) {
	extraOriginsMu.Lock()
	defer extraOriginsMu.Unlock()
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			extraOrigins[o] = true
		}
	}
}

// IsAllowedOrigin checks whether an Origin header value should be trusted.
// Localhost and private/RFC1918 origins are always allowed so local frontend
// dev servers work out of the box; anything else must be registered
// explicitly via AllowOrigins.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	extraOriginsMu.RLock()
	registered := extraOrigins[strings.TrimRight(origin, "/")]
	extraOriginsMu.RUnlock()
	if registered {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()
	if hostname == "localhost" {
		return true
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return isPrivateIP(ip)
	}
	return false
}

// isPrivateIP returns true for RFC1918, loopback, and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	privateRanges := []*net.IPNet{
		mustParseCIDR("10.0.0.0/8"),
		mustParseCIDR("172.16.0.0/12"),
		mustParseCIDR("192.168.0.0/16"),
		mustParseCIDR("127.0.0.0/8"),
		mustParseCIDR("169.254.0.0/16"), // link-local IPv4
		mustParseCIDR("::1/128"),        // loopback IPv6
		mustParseCIDR("fe80::/10"),      // link-local IPv6
		mustParseCIDR("fc00::/7"),       // unique local IPv6
	}

	for _, network := range privateRanges {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDR(s string) *net.IPNet {
	_, network, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return network
}
