// Package auth answers TLS authentication challenges raised while loading a
// resource. The loader forwards challenges here verbatim and never inspects
// certificate contents itself.
package auth

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"path"

	"github.com/NamanBalaji/signedplay/internal/errors"
	"github.com/NamanBalaji/signedplay/internal/logger"
	httpPkg "github.com/NamanBalaji/signedplay/pkg/http"
)

//go:generate mockgen -destination=mocks/mock_authenticator.go -package=mocks github.com/NamanBalaji/signedplay/internal/auth Authenticator

type ChallengeKind int

const (
	// ClientCertificate is raised when the server asks for a client certificate.
	ClientCertificate ChallengeKind = iota
	// ServerTrust is raised when the server's certificate must be evaluated.
	ServerTrust
	// Other covers challenges this package does not answer (basic auth, etc).
	Other
)

func (k ChallengeKind) String() string {
	switch k {
	case ClientCertificate:
		return "client-certificate"
	case ServerTrust:
		return "server-trust"
	default:
		return "other"
	}
}

// Challenge is one authentication challenge for a resource.
type Challenge struct {
	Kind               ChallengeKind
	Host               string
	Resource           *url.URL
	CertificateRequest *tls.CertificateRequestInfo
	// Connection is set for ServerTrust challenges.
	Connection *tls.ConnectionState
}

// Authenticator decides whether a challenge will be answered and supplies the
// client certificate for those that are.
type Authenticator interface {
	ShouldWaitForChallenge(ch Challenge) bool
	ClientCertificate(ch Challenge) (*tls.Certificate, error)
}

// CertificateAuthenticator answers challenges with a single client certificate.
type CertificateAuthenticator struct {
	certificate tls.Certificate
	roots       *x509.CertPool
}

// NewCertificateAuthenticator returns an authenticator presenting cert. roots
// may be nil to trust the system pool.
func NewCertificateAuthenticator(cert tls.Certificate, roots *x509.CertPool) (*CertificateAuthenticator, error) {
	if len(cert.Certificate) == 0 || cert.PrivateKey == nil {
		return nil, errors.ErrCertificateRequired
	}

	return &CertificateAuthenticator{certificate: cert, roots: roots}, nil
}

// RootCAs returns the pool used for server trust, nil meaning system roots.
func (a *CertificateAuthenticator) RootCAs() *x509.CertPool {
	return a.roots
}

func (a *CertificateAuthenticator) ShouldWaitForChallenge(ch Challenge) bool {
	switch ch.Kind {
	case ClientCertificate, ServerTrust:
		return true
	default:
		logger.Debugf("Declining %s challenge for %s", ch.Kind, ch.Host)
		return false
	}
}

func (a *CertificateAuthenticator) ClientCertificate(ch Challenge) (*tls.Certificate, error) {
	if ch.CertificateRequest != nil {
		if err := ch.CertificateRequest.SupportsCertificate(&a.certificate); err != nil {
			// The server makes the final call; a mismatch only means it may reject us.
			logger.Warnf("Client certificate may not satisfy %s: %v", ch.Host, err)
		}
	}

	cert := a.certificate

	return &cert, nil
}

// CertificateFunc adapts a to the TLS client-certificate callback for one
// resource. A declined challenge sends no certificate.
func CertificateFunc(a Authenticator, resource *url.URL) func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	return func(info *tls.CertificateRequestInfo) (*tls.Certificate, error) {
		ch := Challenge{
			Kind:               ClientCertificate,
			Resource:           resource,
			CertificateRequest: info,
		}
		if resource != nil {
			ch.Host = resource.Hostname()
		}

		logger.Infof("Received Auth Challenge (Resource: %s)", resourceName(resource))

		if !a.ShouldWaitForChallenge(ch) {
			return &tls.Certificate{}, nil
		}

		cert, err := a.ClientCertificate(ch)
		if err != nil {
			return nil, err
		}

		if cert == nil {
			return &tls.Certificate{}, nil
		}

		return cert, nil
	}
}

// VerifyFunc adapts a to the TLS connection check for one resource. It runs
// after the server chain has been verified; a declined ServerTrust challenge
// fails the handshake.
func VerifyFunc(a Authenticator, resource *url.URL) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		ch := Challenge{
			Kind:       ServerTrust,
			Resource:   resource,
			Connection: &cs,
		}
		if resource != nil {
			ch.Host = resource.Hostname()
		}

		logger.Debugf("Evaluating server trust (Resource: %s)", resourceName(resource))

		if !a.ShouldWaitForChallenge(ch) {
			return fmt.Errorf("%w: %s", httpPkg.ErrUntrustedServer, ch.Host)
		}

		return nil
	}
}

func resourceName(u *url.URL) string {
	if u == nil {
		return "unknown"
	}

	return path.Base(u.Path)
}
