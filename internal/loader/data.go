package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/NamanBalaji/signedplay/internal/errors"
	"github.com/NamanBalaji/signedplay/internal/logger"
	"github.com/NamanBalaji/signedplay/internal/queue"
	"github.com/NamanBalaji/signedplay/pkg/byterange"
	httpPkg "github.com/NamanBalaji/signedplay/pkg/http"
)

const defaultReadBufferSize = 32 * 1024

// DataRequest fetches a byte range and forwards it to the loading request
// chunk by chunk, in the order received.
type DataRequest struct {
	request

	query         DataQuery
	toEnd         bool
	currentOffset int64
	bufferSize    int

	mu       sync.Mutex
	response *byterange.ContentRange
}

var _ RangeRequest = (*DataRequest)(nil)

func newDataRequest(u *url.URL, lr LoadingRequest, q *queue.Queue, newClient clientFactory, bufferSize int, onComplete CompletionFunc) (*DataRequest, error) {
	dq := lr.Data()

	d := &DataRequest{
		query:      dq,
		toEnd:      dq.RequestsAllDataToEnd(),
		bufferSize: bufferSize,
	}
	d.setup(KindData, u, lr, q, newClient, onComplete)
	if d.bufferSize <= 0 {
		d.bufferSize = defaultReadBufferSize
	}

	if d.toEnd {
		if dq.RequestedOffset() < 0 {
			return nil, fmt.Errorf("%w: offset %d", byterange.ErrInvalidRange, dq.RequestedOffset())
		}
		d.span = byterange.ByteRange{Lower: dq.RequestedOffset()}
	} else {
		r, err := byterange.FromOffset(dq.RequestedOffset(), dq.RequestedLength())
		if err != nil {
			return nil, err
		}
		d.span = r
	}

	d.currentOffset = d.span.Lower

	return d, nil
}

// RequestedRange is the range asked of the server. Upper is meaningless when
// the request runs to the end of the resource.
func (d *DataRequest) RequestedRange() byterange.ByteRange {
	return d.span
}

// CurrentOffset is the offset of the next byte to deliver. Read it on the
// coordination queue.
func (d *DataRequest) CurrentOffset() int64 {
	return d.currentOffset
}

// ResponseRange reports the Content-Range the server answered with, if any.
func (d *DataRequest) ResponseRange() (byterange.ContentRange, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.response == nil {
		return byterange.ContentRange{}, false
	}

	return *d.response, true
}

func (d *DataRequest) Start() {
	ctx, ok := d.begin()
	if !ok {
		return
	}

	if !d.toEnd && d.span.IsEmpty() {
		d.complete(nil, nil)
		return
	}

	go d.run(ctx)
}

func (d *DataRequest) Cancel() {
	d.cancel()
}

func (d *DataRequest) rangeHeader() string {
	if d.toEnd {
		return byterange.ToOpenEndedRangeHeader(d.span.Lower)
	}

	return byterange.ToRangeHeader(d.span)
}

func (d *DataRequest) run(ctx context.Context) {
	client := d.dial()
	defer client.Release()

	req, err := client.NewRangeRequest(ctx, d.url, d.rangeHeader())
	if err != nil {
		d.complete(d.transportError(err), nil)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		if d.cancelled.Load() {
			return
		}
		d.complete(d.transportError(err), nil)
		return
	}
	defer resp.Body.Close()

	logger.Infof("Received Response (Resource: %s, Status: %d)", d.resourceName(), resp.StatusCode)

	if d.cancelled.Load() {
		return
	}

	if !httpPkg.IsSuccess(resp.StatusCode) {
		d.complete(d.protocolError(resp.StatusCode), nil)
		return
	}

	body, err := d.alignBody(resp)
	if err != nil {
		d.complete(err, nil)
		return
	}

	d.forward(body)
}

// alignBody positions the body at the requested offset and bounds it to the
// requested length.
func (d *DataRequest) alignBody(resp *http.Response) (io.Reader, error) {
	var body io.Reader = resp.Body

	if resp.StatusCode == http.StatusPartialContent {
		if header := resp.Header.Get("Content-Range"); header != "" {
			cr, ok := byterange.ParseContentRangeHeader(header)
			if !ok {
				logger.Debugf("Ignoring unusable Content-Range %q", header)
			} else {
				d.mu.Lock()
				d.response = &cr
				d.mu.Unlock()

				if cr.Range.Lower != d.span.Lower {
					return nil, d.malformedError(fmt.Errorf("%w: got %s for request %s",
						httpPkg.ErrInvalidContentRange, cr.Range, d.span))
				}
			}
		}
	} else if d.span.Lower > 0 {
		if resp.StatusCode != http.StatusOK {
			return nil, d.malformedError(fmt.Errorf("%w: status %d carries no range for request %s",
				httpPkg.ErrUnexpectedStatus, resp.StatusCode, d.span))
		}

		// The server ignored Range and is sending from byte zero.
		logger.Debugf("Server ignored Range, skipping %d bytes", d.span.Lower)
		if _, err := io.CopyN(io.Discard, resp.Body, d.span.Lower); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, d.malformedError(fmt.Errorf("%w: body ended before offset %d",
					httpPkg.ErrUnexpectedEOF, d.span.Lower))
			}
			return nil, d.transportError(err)
		}
	}

	if !d.toEnd {
		body = io.LimitReader(body, d.span.Len())
	}

	return body, nil
}

func (d *DataRequest) forward(body io.Reader) {
	buf := make([]byte, d.bufferSize)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			if d.cancelled.Load() {
				return
			}

			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			d.queue.Async(func() {
				d.deliver(chunk)
			})
		}

		if err == io.EOF {
			d.complete(nil, nil)
			return
		}

		if err != nil {
			if d.cancelled.Load() {
				return
			}
			d.complete(d.transportError(err), nil)
			return
		}
	}
}

// deliver runs on the coordination queue.
func (d *DataRequest) deliver(chunk []byte) {
	if d.cancelled.Load() || d.state.terminal() {
		return
	}

	logger.Debugf("Received Data (Resource: %s, Offset: %d, Length: %d)", d.resourceName(), d.currentOffset, len(chunk))

	d.currentOffset += int64(len(chunk))
	d.delivered += int64(len(chunk))
	d.query.Respond(chunk)
}
