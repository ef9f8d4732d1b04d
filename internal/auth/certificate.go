package auth

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/crypto/pkcs12"
)

// CertificateFile locates a client certificate. Path is either a PKCS#12
// bundle (unlocked with Password) or a PEM certificate; KeyPath names the PEM
// key when it is not in the same file.
type CertificateFile struct {
	Path     string
	KeyPath  string
	Password string
}

// LoadCertificateFile reads and decodes the client certificate described by f.
func LoadCertificateFile(fs afero.Fs, f CertificateFile) (tls.Certificate, error) {
	if f.Path == "" {
		return tls.Certificate{}, fmt.Errorf("load certificate: no certificate file configured")
	}

	data, err := afero.ReadFile(fs, f.Path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read certificate file: %w", err)
	}

	switch {
	case f.KeyPath != "":
		keyPEM, err := afero.ReadFile(fs, f.KeyPath)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("read key file: %w", err)
		}

		return parseKeyPair(data, keyPEM)
	case isPEM(data):
		return parseKeyPair(data, data)
	default:
		return decodePKCS12(data, f.Password)
	}
}

// LoadRootCAs reads a PEM bundle of trusted roots. An empty path returns a nil
// pool, which means the system roots.
func LoadRootCAs(fs afero.Fs, path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}

	return pool, nil
}

func decodePKCS12(data []byte, password string) (tls.Certificate, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode PKCS#12 bundle: %w", err)
	}

	var buf bytes.Buffer
	for _, b := range blocks {
		if err := pem.Encode(&buf, b); err != nil {
			return tls.Certificate{}, fmt.Errorf("encode PKCS#12 block: %w", err)
		}
	}

	return parseKeyPair(buf.Bytes(), buf.Bytes())
}

func parseKeyPair(certPEM, keyPEM []byte) (tls.Certificate, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("parse key pair: %w", err)
	}

	return cert, nil
}

func isPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}
