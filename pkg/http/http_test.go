package http_test

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmod "github.com/NamanBalaji/signedplay/pkg/http"
)

func mustParseURL(raw string) *url.URL {
	u, _ := url.Parse(raw)
	return u
}

func TestNewRangeRequest(t *testing.T) {
	client := httpmod.NewClient(httpmod.WithUserAgent("test-agent"))
	defer client.Release()

	req, err := client.NewRangeRequest(context.Background(), mustParseURL("https://example.com/a.mp4"), "bytes=0-3")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "bytes=0-3", req.Header.Get("Range"))
	assert.Equal(t, "test-agent", req.Header.Get("User-Agent"))

	req, err = client.NewRangeRequest(context.Background(), mustParseURL("https://example.com/a.mp4"), "")
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Range"))
}

func TestClientSendsRangeHeader(t *testing.T) {
	var gotRange string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer server.Close()

	client := httpmod.NewClient()
	defer client.Release()

	req, err := client.NewRangeRequest(context.Background(), mustParseURL(server.URL), "bytes=10-19")
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "bytes=10-19", gotRange)
	assert.True(t, httpmod.AcceptsByteRanges(resp))
}

func TestClientVerifiesConnection(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())

	t.Run("accepted", func(t *testing.T) {
		var peers int
		client := httpmod.NewClient(
			httpmod.WithRootCAs(pool),
			httpmod.WithVerifyConnection(func(cs tls.ConnectionState) error {
				peers = len(cs.PeerCertificates)
				return nil
			}),
		)
		defer client.Release()

		req, err := client.NewRangeRequest(context.Background(), mustParseURL(server.URL), "")
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Positive(t, peers)
	})

	t.Run("declined", func(t *testing.T) {
		client := httpmod.NewClient(
			httpmod.WithRootCAs(pool),
			httpmod.WithVerifyConnection(func(tls.ConnectionState) error {
				return fmt.Errorf("%w: test", httpmod.ErrUntrustedServer)
			}),
		)
		defer client.Release()

		req, err := client.NewRangeRequest(context.Background(), mustParseURL(server.URL), "")
		require.NoError(t, err)

		_, err = client.Do(req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, httpmod.ErrUntrustedServer))
		assert.ErrorIs(t, httpmod.ClassifyError(err), httpmod.ErrTLSHandshake)
	})
}

func TestAcceptsByteRanges(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"bytes", true},
		{"Bytes", true},
		{"none", false},
		{"", false},
	}

	for _, tt := range tests {
		resp := &http.Response{Header: http.Header{}}
		if tt.value != "" {
			resp.Header.Set("Accept-Ranges", tt.value)
		}
		assert.Equal(t, tt.want, httpmod.AcceptsByteRanges(resp), tt.value)
	}
}

func TestResolveSignedURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"signed", "signed://media.example.com/v/1.mp4?t=1", "https://media.example.com/v/1.mp4?t=1", true},
		{"https passthrough", "https://media.example.com/a", "https://media.example.com/a", true},
		{"http passthrough", "http://media.example.com/a", "http://media.example.com/a", true},
		{"unsupported scheme", "ftp://media.example.com/a", "", false},
		{"missing host", "signed:///a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := httpmod.ResolveSignedURL(mustParseURL(tt.raw), httpmod.DefaultScheme)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}

	_, ok := httpmod.ResolveSignedURL(nil, httpmod.DefaultScheme)
	assert.False(t, ok)
}

func TestWithScheme(t *testing.T) {
	orig := mustParseURL("https://media.example.com/a.mp4")

	signed := httpmod.WithScheme(orig, httpmod.SignedScheme)
	assert.Equal(t, "signed://media.example.com/a.mp4", signed.String())
	assert.Equal(t, "https", orig.Scheme, "original must not be modified")
}
