package loader

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/signedplay/internal/errors"
	"github.com/NamanBalaji/signedplay/internal/logger"
	"github.com/NamanBalaji/signedplay/internal/queue"
	"github.com/NamanBalaji/signedplay/internal/repository"
	"github.com/NamanBalaji/signedplay/pkg/byterange"
	httpPkg "github.com/NamanBalaji/signedplay/pkg/http"
)

type Kind int

const (
	KindMetadata Kind = iota
	KindData
)

func (k Kind) String() string {
	if k == KindMetadata {
		return "metadata"
	}

	return "data"
}

type State int32

const (
	StateCreated State = iota
	StateStarted
	StateCancelled
	StateFailed
	StateSucceeded
)

func (s State) terminal() bool {
	return s >= StateCancelled
}

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "succeeded"
	}
}

// CompletionFunc is invoked once, on the coordination queue, when a request
// succeeds or fails. It is not invoked for cancelled requests.
type CompletionFunc func(err error)

// RangeRequest is one outbound fetch bound to a single loading request.
// Start and Cancel must be called on the coordination queue.
type RangeRequest interface {
	ID() uuid.UUID
	Kind() Kind
	URL() *url.URL
	LoadingRequest() LoadingRequest
	State() State
	Start()
	Cancel()

	journalRecord(outcome repository.Outcome, err error) *repository.Record
}

// clientFactory builds the transport for one request's resource.
type clientFactory func(resource *url.URL) *httpPkg.Client

// request holds what both flavors share. Fields other than cancelled are
// only touched on the coordination queue.
type request struct {
	id         uuid.UUID
	kind       Kind
	url        *url.URL
	loading    LoadingRequest
	queue      *queue.Queue
	newClient  clientFactory
	onComplete CompletionFunc

	state     State
	cancelled atomic.Bool
	stop      context.CancelFunc
	startedAt time.Time
	endedAt   time.Time
	span      byterange.ByteRange
	delivered int64
}

func (r *request) setup(kind Kind, u *url.URL, lr LoadingRequest, q *queue.Queue, newClient clientFactory, onComplete CompletionFunc) {
	r.id = uuid.New()
	r.kind = kind
	r.url = u
	r.loading = lr
	r.queue = q
	r.newClient = newClient
	r.onComplete = onComplete
}

func (r *request) ID() uuid.UUID {
	return r.id
}

func (r *request) Kind() Kind {
	return r.kind
}

func (r *request) URL() *url.URL {
	return r.url
}

func (r *request) LoadingRequest() LoadingRequest {
	return r.loading
}

func (r *request) State() State {
	return r.state
}

func (r *request) resourceName() string {
	return path.Base(r.url.Path)
}

// begin moves the request to Started and returns the context the network
// goroutine runs with. ok is false if the request may not start.
func (r *request) begin() (ctx context.Context, ok bool) {
	if r.state != StateCreated {
		logger.Warnf("Ignoring start of %s request %s in state %s", r.kind, r.id, r.state)
		return nil, false
	}

	logger.Infof("Starting %s request %s (Resource: %s)", r.kind, r.id, r.resourceName())

	r.state = StateStarted
	r.startedAt = time.Now()

	ctx, r.stop = context.WithCancel(context.Background())

	return ctx, true
}

// dial builds the request's client. The network goroutine owns it and must
// release it only after the response body is closed, so that no connection
// goes back to the idle pool after CloseIdleConnections has run.
func (r *request) dial() *httpPkg.Client {
	return r.newClient(r.url)
}

// cancel aborts the transfer and resolves the loading request without error.
func (r *request) cancel() {
	if r.state.terminal() {
		return
	}

	logger.Infof("Cancelling %s request %s (Resource: %s)", r.kind, r.id, r.resourceName())

	r.cancelled.Store(true)
	r.state = StateCancelled
	r.endedAt = time.Now()

	if !r.loading.IsCancelled() && !r.loading.IsFinished() {
		r.loading.Finish(nil)
	}

	r.release()
}

// complete schedules the single terminal transition for a request that was
// not cancelled. apply runs first, before the loading request is finished.
func (r *request) complete(err error, apply func()) {
	if err != nil {
		logger.Errorf("Failed with error: %v (Resource: %s)", err, r.resourceName())
	} else {
		logger.Infof("Completed %s request %s (Resource: %s)", r.kind, r.id, r.resourceName())
	}

	r.queue.Async(func() {
		if r.cancelled.Load() || r.state.terminal() {
			return
		}

		if err != nil {
			r.state = StateFailed
		} else {
			r.state = StateSucceeded
		}
		r.endedAt = time.Now()

		if apply != nil {
			apply()
		}

		r.loading.Finish(err)

		if r.onComplete != nil {
			r.onComplete(err)
		}

		r.release()
	})
}

func (r *request) release() {
	if r.stop != nil {
		r.stop()
	}
}

func (r *request) transportError(err error) error {
	classified := httpPkg.ClassifyError(err)
	wrapped := fmt.Errorf("%w: %v", classified, err)

	var loadErr *errors.LoadError
	if errors.Is(classified, httpPkg.ErrTLSHandshake) {
		loadErr = errors.NewSecurityError(wrapped, r.url.String())
	} else {
		loadErr = errors.NewTransportError(wrapped, r.url.String())
	}
	loadErr.RequestID = r.id.String()

	return loadErr
}

func (r *request) protocolError(statusCode int) error {
	loadErr := errors.NewProtocolError(httpPkg.ClassifyHTTPError(statusCode), r.url.String(), statusCode)
	loadErr.RequestID = r.id.String()

	return loadErr
}

func (r *request) malformedError(err error) error {
	loadErr := errors.NewMalformedError(err, r.url.String())
	loadErr.RequestID = r.id.String()

	return loadErr
}

func (r *request) journalRecord(outcome repository.Outcome, err error) *repository.Record {
	rec := &repository.Record{
		ID:        r.id,
		Kind:      r.kind.String(),
		URL:       r.url.String(),
		Lower:     r.span.Lower,
		Upper:     r.span.Upper,
		Outcome:   outcome,
		Bytes:     r.delivered,
		StartedAt: r.startedAt,
		EndedAt:   r.endedAt,
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}
	if err != nil {
		rec.Error = err.Error()
	}

	return rec
}
