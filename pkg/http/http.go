package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/NamanBalaji/signedplay/internal/logger"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultIdleTimeout    = 90 * time.Second
	keepAlivePeriod       = 30 * time.Second
	maxIdleConns          = 16
	tlsHandshakeTimeout   = 10 * time.Second
	expectContinueTimeout = 1 * time.Second
	maxConnsPerHost       = 4

	DefaultUserAgent = "signedplay/1.0"

	// SignedScheme tags resource URLs that must be loaded through a coordinator.
	SignedScheme = "signed"
	// DefaultScheme replaces SignedScheme before a request goes on the wire.
	DefaultScheme = "https"
)

// CertificateFunc supplies a client certificate during a TLS handshake.
type CertificateFunc func(*tls.CertificateRequestInfo) (*tls.Certificate, error)

// VerifyFunc inspects a server's connection state after standard
// certificate verification has passed.
type VerifyFunc func(tls.ConnectionState) error

type Option func(*clientOptions)

type clientOptions struct {
	userAgent           string
	connectTimeout      time.Duration
	tlsHandshakeTimeout time.Duration
	idleTimeout         time.Duration
	rootCAs             *x509.CertPool
	getCertificate      CertificateFunc
	verifyConnection    VerifyFunc
}

func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

func WithTLSHandshakeTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.tlsHandshakeTimeout = d
		}
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// WithRootCAs overrides the system roots used to verify servers.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *clientOptions) {
		o.rootCAs = pool
	}
}

// WithClientCertificate installs the callback answering client-certificate
// requests from the server.
func WithClientCertificate(fn CertificateFunc) Option {
	return func(o *clientOptions) {
		o.getCertificate = fn
	}
}

// WithVerifyConnection installs a server trust check that runs on every
// handshake, after the chain has been verified against the root CAs.
func WithVerifyConnection(fn VerifyFunc) Option {
	return func(o *clientOptions) {
		o.verifyConnection = fn
	}
}

type Client struct {
	*http.Client
	transport *http.Transport
	userAgent string
}

// NewClient creates a new HTTP client with custom transport settings.
func NewClient(opts ...Option) *Client {
	o := clientOptions{
		userAgent:           DefaultUserAgent,
		connectTimeout:      defaultConnectTimeout,
		tlsHandshakeTimeout: tlsHandshakeTimeout,
		idleTimeout:         defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   o.connectTimeout,
			KeepAlive: keepAlivePeriod,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion:           tls.VersionTLS12,
			RootCAs:              o.rootCAs,
			GetClientCertificate: o.getCertificate,
			VerifyConnection:     o.verifyConnection,
		},
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       o.idleTimeout,
		TLSHandshakeTimeout:   o.tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
		// Offsets in Range and Content-Range refer to the identity encoding.
		DisableCompression: true,
		MaxConnsPerHost:    maxConnsPerHost,
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		logger.Warnf("HTTP/2 unavailable, using HTTP/1.1: %v", err)
	}

	return &Client{
		Client:    &http.Client{Transport: transport},
		transport: transport,
		userAgent: o.userAgent,
	}
}

// NewRangeRequest builds a GET for u. rangeHeader is attached when non-empty.
func (c *Client) NewRangeRequest(ctx context.Context, u *url.URL, rangeHeader string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		logger.Errorf("Failed to create GET request for %s: %v", u, err)
		return nil, ErrRequestCreation
	}

	req.Header.Set("User-Agent", c.userAgent)

	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
		logger.Debugf("Set Range header: %s for %s", rangeHeader, u)
	}

	return req, nil
}

// Release drops the client's pooled connections.
func (c *Client) Release() {
	c.transport.CloseIdleConnections()
}

// AcceptsByteRanges reports whether the response advertises byte-range access.
func AcceptsByteRanges(resp *http.Response) bool {
	return strings.EqualFold(strings.TrimSpace(resp.Header.Get("Accept-Ranges")), "bytes")
}

// WithScheme returns a copy of u using scheme.
func WithScheme(u *url.URL, scheme string) *url.URL {
	if u == nil {
		return nil
	}

	c := *u
	c.Scheme = scheme

	return &c
}

// ResolveSignedURL maps a signed-scheme URL back to defaultScheme. URLs that
// already use http or https pass through; anything else cannot be resolved.
func ResolveSignedURL(u *url.URL, defaultScheme string) (*url.URL, bool) {
	if u == nil || u.Host == "" {
		return nil, false
	}

	switch strings.ToLower(u.Scheme) {
	case SignedScheme:
		return WithScheme(u, defaultScheme), true
	case "http", "https":
		return WithScheme(u, u.Scheme), true
	default:
		return nil, false
	}
}
