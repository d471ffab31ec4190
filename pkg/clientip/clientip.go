package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers are checked in this order before falling back to RemoteAddr.
var Headers = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the normalized client IP, or an empty string when none of
// the sources holds a valid address. For X-Forwarded-For the first valid
// entry wins.
func GetIP(r *http.Request) string {
	for _, h := range Headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for part := range strings.SplitSeq(v, ",") {
			if ip := parse(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parse(r.RemoteAddr)
	}
	return parse(host)
}

func parse(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	// IPv4-mapped IPv6 addresses count as the IPv4 client.
	return addr.Unmap().WithZone("").String()
}
