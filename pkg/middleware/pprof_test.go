package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopmesh/pkg/logger"
)

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name   string
		cidrs  []string
		remote string
		want   int
	}{
		{name: "inside range", cidrs: []string{"127.0.0.0/8"}, remote: "127.0.0.1:1234", want: http.StatusOK},
		{name: "outside range", cidrs: []string{"10.0.0.0/8"}, remote: "192.168.1.1:1234", want: http.StatusForbidden},
		{name: "second of several", cidrs: []string{"10.0.0.0/8", "192.168.0.0/16"}, remote: "192.168.7.7:1", want: http.StatusOK},
		{name: "ipv6 loopback", cidrs: []string{"::1/128"}, remote: "[::1]:1234", want: http.StatusOK},
		{name: "invalid cidr skipped", cidrs: []string{"not-a-cidr", "127.0.0.0/8"}, remote: "127.0.0.1:1", want: http.StatusOK},
		{name: "empty list denies", cidrs: nil, remote: "127.0.0.1:1", want: http.StatusForbidden},
		{name: "unparseable remote", cidrs: []string{"0.0.0.0/0"}, remote: "garbage", want: http.StatusForbidden},
		{name: "bare host address", cidrs: []string{"10.1.2.3"}, remote: "10.1.2.3:80", want: http.StatusOK},
		{name: "bare host excludes neighbour", cidrs: []string{"10.1.2.3"}, remote: "10.1.2.4:80", want: http.StatusForbidden},
		{name: "remote without port", cidrs: []string{"127.0.0.0/8"}, remote: "127.0.0.1", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := IPAllowlist(tt.cidrs, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIPAllowlist_DeniedBodyUsesEnvelope(t *testing.T) {
	h := IPAllowlist([]string{"10.0.0.0/8"}, logger.Discard())(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "8.8.8.8:53"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "127.0.0.1:1"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req.RemoteAddr = "203.0.113.1:1"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestParseAllowlist(t *testing.T) {
	list, invalid := ParseAllowlist([]string{" 127.0.0.0/8 ", "", "::1", "10.0.0.1", "bogus", "300.1.1.1/8"})

	assert.Len(t, list, 3)
	assert.Equal(t, []string{"bogus", "300.1.1.1/8"}, invalid)
	assert.True(t, list.Allows("[::1]:9"))
	assert.True(t, list.Allows("10.0.0.1:9"))
	assert.False(t, list.Allows("10.0.0.2:9"))
}

func TestRegisterPprof_NamedProfiles(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, logger.Discard())

	for _, name := range []string{"goroutine", "heap"} {
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/"+name+"?debug=1", nil)
		req.RemoteAddr = "127.0.0.1:1"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.NotEmpty(t, rec.Body.String(), name)
	}
}
