// Package loader serves a playback engine's loading requests over HTTP range
// requests, keeping at most one request in flight per coordinator.
package loader

import (
	"net/url"
)

// LoadingRequest is the playback engine's handle for one metadata or data
// query against a resource. The engine may cancel or finish it at any time.
type LoadingRequest interface {
	URL() *url.URL
	// Metadata returns nil unless the engine wants resource metadata.
	Metadata() MetadataQuery
	// Data returns nil unless the engine wants bytes.
	Data() DataQuery
	// Finish resolves the request. A nil error with no data means it was abandoned.
	Finish(err error)
	IsCancelled() bool
	IsFinished() bool
}

// MetadataQuery receives the metadata derived from response headers.
type MetadataQuery interface {
	SetMetadata(meta ResourceMetadata)
}

// DataQuery describes the requested bytes and receives them in order.
type DataQuery interface {
	RequestedOffset() int64
	RequestedLength() int64
	// RequestsAllDataToEnd asks for everything from RequestedOffset onward.
	RequestsAllDataToEnd() bool
	Respond(data []byte)
}

// UnknownLength marks a ResourceMetadata whose total size was not declared.
const UnknownLength int64 = -1

// ResourceMetadata is what a metadata request learns from response headers.
type ResourceMetadata struct {
	ContentType              string
	ContentLength            int64
	ByteRangeAccessSupported bool
}

// HasContentLength reports whether the server declared the total size.
func (m ResourceMetadata) HasContentLength() bool {
	return m.ContentLength != UnknownLength
}
