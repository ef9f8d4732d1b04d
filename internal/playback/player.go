package playback

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/NamanBalaji/signedplay/internal/asset"
	"github.com/NamanBalaji/signedplay/internal/errors"
	"github.com/NamanBalaji/signedplay/internal/loader"
	"github.com/NamanBalaji/signedplay/internal/logger"
)

const DefaultChunkSize int64 = 1 << 20

var (
	ErrRejected  = errors.New("loading request rejected by coordinator")
	ErrShortRead = errors.New("server returned fewer bytes than requested")
)

// sizeAware writers are told the resource size once it is known.
type sizeAware interface {
	SetTotalSize(total int64)
}

// Delegate is the part of a coordinator the player talks to.
type Delegate interface {
	Handle(lr loader.LoadingRequest) bool
	DidCancel(lr loader.LoadingRequest)
}

// Player loads one asset through its coordinator.
type Player struct {
	url       *url.URL
	delegate  Delegate
	chunkSize int64
}

func NewPlayer(a *asset.Asset, chunkSize int64) *Player {
	return newPlayer(a.URL(), a.Coordinator(), chunkSize)
}

func newPlayer(u *url.URL, d Delegate, chunkSize int64) *Player {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Player{url: u, delegate: d, chunkSize: chunkSize}
}

// Probe issues a metadata request.
func (p *Player) Probe(ctx context.Context) (loader.ResourceMetadata, error) {
	req := NewMetadataRequest(p.url)
	if err := p.await(ctx, req); err != nil {
		return loader.ResourceMetadata{}, err
	}

	meta, ok := req.ResourceMetadata()
	if !ok {
		return loader.ResourceMetadata{}, fmt.Errorf("%w: no metadata delivered", ErrShortRead)
	}

	return meta, nil
}

// Fetch probes the resource and copies it to w. Resources with a known size
// and range support are pulled in chunkSize pieces; others in one request.
func (p *Player) Fetch(ctx context.Context, w io.Writer) (int64, error) {
	meta, err := p.Probe(ctx)
	if err != nil {
		return 0, err
	}

	if sa, ok := w.(sizeAware); ok {
		sa.SetTotalSize(meta.ContentLength)
	}

	logger.Infof("Fetching %s (type: %q, length: %d, ranges: %t)", p.url, meta.ContentType, meta.ContentLength, meta.ByteRangeAccessSupported)

	if !meta.HasContentLength() || !meta.ByteRangeAccessSupported {
		req := NewDataToEndRequest(p.url, 0, w)
		err := p.await(ctx, req)
		return req.Written(), err
	}

	var total int64
	for offset := int64(0); offset < meta.ContentLength; offset += p.chunkSize {
		length := min(p.chunkSize, meta.ContentLength-offset)

		req := NewDataRequest(p.url, offset, length, w)
		err := p.await(ctx, req)
		total += req.Written()
		if err != nil {
			return total, err
		}

		if req.Written() != length {
			return total, fmt.Errorf("%w: got %d of %d bytes at offset %d", ErrShortRead, req.Written(), length, offset)
		}
	}

	return total, nil
}

// await hands req to the delegate and blocks until it finishes or ctx ends.
func (p *Player) await(ctx context.Context, req *Request) error {
	if !p.delegate.Handle(req) {
		return ErrRejected
	}

	select {
	case <-req.Done():
	case <-ctx.Done():
		req.Abandon()
		p.delegate.DidCancel(req)
		return ctx.Err()
	}

	if err := req.Err(); err != nil {
		return err
	}

	return req.WriteErr()
}
