package loader

import (
	"crypto/tls"
	"crypto/x509"
	"net/url"

	"github.com/NamanBalaji/signedplay/internal/auth"
	"github.com/NamanBalaji/signedplay/internal/errors"
	"github.com/NamanBalaji/signedplay/internal/logger"
	"github.com/NamanBalaji/signedplay/internal/queue"
	"github.com/NamanBalaji/signedplay/internal/repository"
	httpPkg "github.com/NamanBalaji/signedplay/pkg/http"
)

const defaultSniffLimit = 3072

// Recorder receives the terminal outcome of every range request.
type Recorder interface {
	Record(rec *repository.Record) bool
}

var _ auth.Authenticator = (*Coordinator)(nil)

type Option func(*Coordinator)

// WithErrorHandler registers fn to observe failed requests. It runs on the
// coordination queue and must not block.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Coordinator) {
		c.onError = fn
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// WithClientOptions adds transport options applied to every request's client.
func WithClientOptions(opts ...httpPkg.Option) Option {
	return func(c *Coordinator) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithDefaultScheme sets the scheme substituted for the signed scheme.
func WithDefaultScheme(scheme string) Option {
	return func(c *Coordinator) {
		if scheme != "" {
			c.defaultScheme = scheme
		}
	}
}

func WithSniffLimit(n int) Option {
	return func(c *Coordinator) {
		c.sniffLimit = n
	}
}

func WithReadBufferSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.readBufferSize = n
		}
	}
}

// Coordinator is the playback engine's delegate for one signed resource. It
// keeps at most one range request in flight and cancels it when a newer
// loading request arrives.
type Coordinator struct {
	authenticator  auth.Authenticator
	queue          *queue.Queue
	current        slot
	clientOpts     []httpPkg.Option
	defaultScheme  string
	sniffLimit     int
	readBufferSize int
	onError        func(error)
	recorder       Recorder
}

// NewCoordinator returns a coordinator answering TLS challenges with a.
func NewCoordinator(a auth.Authenticator, opts ...Option) (*Coordinator, error) {
	if a == nil {
		return nil, errors.ErrNoAuthenticator
	}

	c := &Coordinator{
		authenticator:  a,
		defaultScheme:  httpPkg.DefaultScheme,
		sniffLimit:     defaultSniffLimit,
		readBufferSize: defaultReadBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.queue = queue.New("coordinator")

	return c, nil
}

// Queue exposes the coordination queue so callers can observe state in order
// with request events.
func (c *Coordinator) Queue() *queue.Queue {
	return c.queue
}

// Handle accepts lr if it carries a metadata or data query and its URL can be
// resolved. The request is installed and started on the coordination queue.
func (c *Coordinator) Handle(lr LoadingRequest) bool {
	if lr == nil {
		return false
	}

	u, ok := httpPkg.ResolveSignedURL(lr.URL(), c.defaultScheme)
	if !ok {
		logger.Errorf("Received Invalid Request: %v (URL: %v)", errors.ErrUnresolvableURL, lr.URL())
		return false
	}

	var req RangeRequest
	onComplete := func(err error) {
		c.requestCompleted(req, err)
	}

	switch {
	case lr.Metadata() != nil:
		req = newMetadataRequest(u, lr, c.queue, c.newClient, c.sniffLimit, onComplete)
	case lr.Data() != nil:
		d, err := newDataRequest(u, lr, c.queue, c.newClient, c.readBufferSize, onComplete)
		if err != nil {
			logger.Errorf("Received Invalid Request: %v", err)
			return false
		}
		req = d
	default:
		logger.Errorf("Received Invalid Request: %v", errors.ErrUnsupportedRequest)
		return false
	}

	logger.Infof("Received %s Request %s (Resource: %s)", req.Kind(), req.ID(), u)

	return c.queue.Async(func() {
		if prev := c.current.Replace(req); prev != nil {
			c.record(prev, repository.OutcomeSuperseded, nil)
		}
		req.Start()
	})
}

// DidCancel cancels the in-flight request if it serves lr.
func (c *Coordinator) DidCancel(lr LoadingRequest) {
	c.queue.Async(func() {
		if cancelled := c.current.CancelFor(lr); cancelled != nil {
			c.record(cancelled, repository.OutcomeCancelled, nil)
		}
	})
}

// ShouldWaitForAuthenticationChallenge forwards ch to the authenticator.
func (c *Coordinator) ShouldWaitForAuthenticationChallenge(ch auth.Challenge) bool {
	logger.Infof("Received Authentication Challenge (%s, Host: %s)", ch.Kind, ch.Host)

	return c.authenticator.ShouldWaitForChallenge(ch)
}

// ShouldWaitForChallenge and ClientCertificate let the coordinator stand in
// for its authenticator on every transport it creates.
func (c *Coordinator) ShouldWaitForChallenge(ch auth.Challenge) bool {
	return c.ShouldWaitForAuthenticationChallenge(ch)
}

func (c *Coordinator) ClientCertificate(ch auth.Challenge) (*tls.Certificate, error) {
	return c.authenticator.ClientCertificate(ch)
}

// CurrentRequest returns the in-flight request, or nil. It must not be called
// from the coordination queue.
func (c *Coordinator) CurrentRequest() RangeRequest {
	var cur RangeRequest
	c.queue.Sync(func() {
		cur = c.current.Current()
	})

	return cur
}

// Close cancels the in-flight request and stops the coordination queue.
func (c *Coordinator) Close() {
	c.queue.Sync(func() {
		if cancelled := c.current.Take(); cancelled != nil {
			c.record(cancelled, repository.OutcomeCancelled, nil)
		}
	})
	c.queue.Close()
}

// requestCompleted runs on the coordination queue.
func (c *Coordinator) requestCompleted(req RangeRequest, err error) {
	c.current.ClearIf(req)

	if err != nil {
		c.record(req, repository.OutcomeFailed, err)
		if c.onError != nil {
			c.onError(err)
		}
		return
	}

	c.record(req, repository.OutcomeSucceeded, nil)
}

func (c *Coordinator) record(req RangeRequest, outcome repository.Outcome, err error) {
	if c.recorder == nil {
		return
	}

	if !c.recorder.Record(req.journalRecord(outcome, err)) {
		logger.Debugf("Journal dropped %s record for %s", outcome, req.ID())
	}
}

func (c *Coordinator) newClient(resource *url.URL) *httpPkg.Client {
	opts := make([]httpPkg.Option, 0, len(c.clientOpts)+3)
	opts = append(opts, c.clientOpts...)

	if p, ok := c.authenticator.(interface{ RootCAs() *x509.CertPool }); ok && p.RootCAs() != nil {
		opts = append(opts, httpPkg.WithRootCAs(p.RootCAs()))
	}

	opts = append(opts,
		httpPkg.WithClientCertificate(auth.CertificateFunc(c, resource)),
		httpPkg.WithVerifyConnection(auth.VerifyFunc(c, resource)),
	)

	return httpPkg.NewClient(opts...)
}
