package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/trialbill/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "remote addr without port", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "cloudflare wins", headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"}, remote: "10.0.0.1:80", want: "203.0.113.7"},
		{name: "first valid forwarded", headers: map[string]string{"X-Forwarded-For": "garbage, 198.51.100.1, 10.0.0.2"}, remote: "10.0.0.1:80", want: "198.51.100.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 198.51.100.9 "}, remote: "10.0.0.1:80", want: "198.51.100.9"},
		{name: "invalid header falls back", headers: map[string]string{"X-Real-IP": "nope"}, remote: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "ipv6", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "mapped ipv4", headers: map[string]string{"X-Forwarded-For": "::ffff:192.0.2.5"}, remote: "10.0.0.1:80", want: "192.0.2.5"},
		{name: "nothing valid", remote: "bogus", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}
