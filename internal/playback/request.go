// Package playback is a minimal engine that drives a coordinator the way a
// media player does: probe the resource, then pull it in sequential ranges.
package playback

import (
	"context"
	"io"
	"net/url"
	"sync"

	"github.com/NamanBalaji/signedplay/internal/loader"
)

// Request is the engine's loading request. It is finished at most once,
// either by the coordinator or by Abandon.
type Request struct {
	url *url.URL

	wantMetadata bool
	wantData     bool
	offset       int64
	length       int64
	toEnd        bool
	sink         io.Writer

	mu        sync.Mutex
	meta      *loader.ResourceMetadata
	written   int64
	writeErr  error
	err       error
	finished  bool
	cancelled bool
	done      chan struct{}
}

var (
	_ loader.LoadingRequest = (*Request)(nil)
	_ loader.MetadataQuery  = (*Request)(nil)
	_ loader.DataQuery      = (*Request)(nil)
)

// NewMetadataRequest asks for the resource's metadata only.
func NewMetadataRequest(u *url.URL) *Request {
	return &Request{url: u, wantMetadata: true, done: make(chan struct{})}
}

// NewDataRequest asks for [offset, offset+length) written to sink.
func NewDataRequest(u *url.URL, offset, length int64, sink io.Writer) *Request {
	return &Request{url: u, wantData: true, offset: offset, length: length, sink: sink, done: make(chan struct{})}
}

// NewDataToEndRequest asks for everything from offset onward.
func NewDataToEndRequest(u *url.URL, offset int64, sink io.Writer) *Request {
	return &Request{url: u, wantData: true, offset: offset, toEnd: true, sink: sink, done: make(chan struct{})}
}

func (r *Request) URL() *url.URL {
	return r.url
}

func (r *Request) Metadata() loader.MetadataQuery {
	if !r.wantMetadata {
		return nil
	}

	return r
}

func (r *Request) Data() loader.DataQuery {
	if !r.wantData {
		return nil
	}

	return r
}

func (r *Request) SetMetadata(meta loader.ResourceMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meta = &meta
}

func (r *Request) RequestedOffset() int64 {
	return r.offset
}

func (r *Request) RequestedLength() int64 {
	return r.length
}

func (r *Request) RequestsAllDataToEnd() bool {
	return r.toEnd
}

// Respond writes data to the sink. After the first write error further data
// is dropped and the error is reported by WriteErr.
func (r *Request) Respond(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writeErr != nil || r.finished {
		return
	}

	n, err := r.sink.Write(data)
	r.written += int64(n)
	r.writeErr = err
}

func (r *Request) Finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}

	r.finished = true
	r.err = err
	close(r.done)
}

// Abandon marks the request cancelled by the engine and resolves it.
func (r *Request) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}

	r.cancelled = true
	r.finished = true
	r.err = context.Canceled
	close(r.done)
}

func (r *Request) IsCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cancelled
}

func (r *Request) IsFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.finished
}

// Done is closed once the request is finished or abandoned.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Err is the error the request finished with.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}

// ResourceMetadata returns the metadata delivered, if any.
func (r *Request) ResourceMetadata() (loader.ResourceMetadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta == nil {
		return loader.ResourceMetadata{}, false
	}

	return *r.meta, true
}

// Written is the number of bytes accepted by the sink.
func (r *Request) Written() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.written
}

func (r *Request) WriteErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeErr
}
