// Package asset binds a resource URL to the coordinator that loads it.
package asset

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/NamanBalaji/signedplay/internal/errors"
	"github.com/NamanBalaji/signedplay/internal/loader"
	httpPkg "github.com/NamanBalaji/signedplay/pkg/http"
)

// Asset is what a playback engine is handed. Its URL uses the signed scheme
// so every load is routed through the coordinator.
type Asset struct {
	url         *url.URL
	coordinator *loader.Coordinator
}

// New parses rawURL and rewrites it to the signed scheme. Only http, https
// and already-signed URLs are accepted.
func New(rawURL string, coordinator *loader.Coordinator) (*Asset, error) {
	if coordinator == nil {
		return nil, errors.New("asset requires a coordinator")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnresolvableURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", httpPkg.SignedScheme:
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", errors.ErrUnresolvableURL, u.Scheme)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", errors.ErrUnresolvableURL, rawURL)
	}

	return &Asset{
		url:         httpPkg.WithScheme(u, httpPkg.SignedScheme),
		coordinator: coordinator,
	}, nil
}

// URL returns a copy of the signed URL.
func (a *Asset) URL() *url.URL {
	return httpPkg.WithScheme(a.url, a.url.Scheme)
}

func (a *Asset) Coordinator() *loader.Coordinator {
	return a.coordinator
}

func (a *Asset) String() string {
	return a.url.String()
}
