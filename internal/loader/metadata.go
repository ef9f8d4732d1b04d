package loader

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"

	"github.com/NamanBalaji/signedplay/internal/logger"
	"github.com/NamanBalaji/signedplay/internal/queue"
	"github.com/NamanBalaji/signedplay/pkg/byterange"
	httpPkg "github.com/NamanBalaji/signedplay/pkg/http"
)

const octetStream = "application/octet-stream"

// MetadataRequest learns a resource's type, size and range support from
// response headers alone. The body is abandoned once headers arrive, apart
// from a short prefix read when the declared type is missing or generic.
type MetadataRequest struct {
	request

	query      MetadataQuery
	probe      string
	sniffLimit int
}

var _ RangeRequest = (*MetadataRequest)(nil)

func newMetadataRequest(u *url.URL, lr LoadingRequest, q *queue.Queue, newClient clientFactory, sniffLimit int, onComplete CompletionFunc) *MetadataRequest {
	m := &MetadataRequest{
		query:      lr.Metadata(),
		sniffLimit: sniffLimit,
	}
	m.setup(KindMetadata, u, lr, q, newClient, onComplete)

	// A data query on the same loading request supplies the probe range.
	if dq := lr.Data(); dq != nil {
		m.probe, m.span = probeHeader(dq)
	}

	return m
}

func probeHeader(dq DataQuery) (string, byterange.ByteRange) {
	if dq.RequestsAllDataToEnd() {
		if dq.RequestedOffset() < 0 {
			return "", byterange.ByteRange{}
		}

		return byterange.ToOpenEndedRangeHeader(dq.RequestedOffset()), byterange.ByteRange{Lower: dq.RequestedOffset()}
	}

	r, err := byterange.FromOffset(dq.RequestedOffset(), dq.RequestedLength())
	if err != nil || r.IsEmpty() {
		return "", byterange.ByteRange{}
	}

	return byterange.ToRangeHeader(r), r
}

func (m *MetadataRequest) Start() {
	ctx, ok := m.begin()
	if !ok {
		return
	}

	go m.run(ctx)
}

func (m *MetadataRequest) Cancel() {
	m.cancel()
}

func (m *MetadataRequest) run(ctx context.Context) {
	client := m.dial()
	defer client.Release()

	req, err := client.NewRangeRequest(ctx, m.url, m.probe)
	if err != nil {
		m.complete(m.transportError(err), nil)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		if m.cancelled.Load() {
			return
		}
		m.complete(m.transportError(err), nil)
		return
	}
	defer resp.Body.Close()

	logger.Infof("Received Response (Resource: %s, Status: %d)", m.resourceName(), resp.StatusCode)

	if m.cancelled.Load() {
		return
	}

	if !httpPkg.IsSuccess(resp.StatusCode) {
		m.complete(m.protocolError(resp.StatusCode), nil)
		return
	}

	meta := metadataFromResponse(resp)
	if needsSniff(meta.ContentType) && m.sniffLimit > 0 {
		if detected := sniff(resp.Body, m.sniffLimit); detected != "" {
			meta.ContentType = detected
		}
	}

	m.complete(nil, func() {
		m.query.SetMetadata(meta)
	})
}

// metadataFromResponse derives metadata from headers. Headers that cannot be
// parsed leave their fields at the unknown values.
func metadataFromResponse(resp *http.Response) ResourceMetadata {
	meta := ResourceMetadata{
		ContentType:              normalizeContentType(resp.Header.Get("Content-Type")),
		ContentLength:            UnknownLength,
		ByteRangeAccessSupported: httpPkg.AcceptsByteRanges(resp),
	}

	contentRange := resp.Header.Get("Content-Range")
	if cr, ok := byterange.ParseContentRangeHeader(contentRange); ok && cr.HasTotal() {
		meta.ContentLength = cr.Total
	} else if total, ok := byterange.ParseCompleteLength(contentRange); ok {
		meta.ContentLength = total
	} else if contentRange == "" && resp.StatusCode == http.StatusOK && resp.ContentLength >= 0 {
		meta.ContentLength = resp.ContentLength
	}

	if contentRange != "" && meta.ContentLength == UnknownLength {
		logger.Debugf("Ignoring unusable Content-Range %q", contentRange)
	}

	return meta
}

// normalizeContentType strips parameters and maps aliases to their
// canonical MIME type.
func normalizeContentType(header string) string {
	if header == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}

	if m := mimetype.Lookup(mediaType); m != nil {
		return m.String()
	}

	return mediaType
}

func needsSniff(contentType string) bool {
	return contentType == "" || contentType == octetStream
}

func sniff(body io.Reader, limit int) string {
	buf := make([]byte, limit)

	n, err := io.ReadFull(body, buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			logger.Debugf("Content sniffing read failed: %v", err)
		}
		return ""
	}

	detected := mimetype.Detect(buf[:n])
	if detected.Is(octetStream) {
		return ""
	}

	return detected.String()
}
