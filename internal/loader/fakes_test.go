package loader

import (
	"bytes"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/signedplay/internal/repository"
)

const waitTimeout = 5 * time.Second

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func indexOf(events []string, e string) int {
	for i, got := range events {
		if got == e {
			return i
		}
	}
	return -1
}

type fakeMetadata struct {
	mu   sync.Mutex
	meta *ResourceMetadata
}

func (m *fakeMetadata) SetMetadata(meta ResourceMetadata) {
	m.mu.Lock()
	m.meta = &meta
	m.mu.Unlock()
}

func (m *fakeMetadata) get() (ResourceMetadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta == nil {
		return ResourceMetadata{}, false
	}
	return *m.meta, true
}

type fakeData struct {
	offset int64
	length int64
	toEnd  bool

	name string
	log  *eventLog

	mu       sync.Mutex
	buf      bytes.Buffer
	responds int
}

func (d *fakeData) RequestedOffset() int64     { return d.offset }
func (d *fakeData) RequestedLength() int64     { return d.length }
func (d *fakeData) RequestsAllDataToEnd() bool { return d.toEnd }

func (d *fakeData) Respond(data []byte) {
	d.mu.Lock()
	d.buf.Write(data)
	d.responds++
	d.mu.Unlock()
	d.log.add(d.name + ":data")
}

func (d *fakeData) bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.buf.Bytes()...)
}

type fakeLoading struct {
	u    *url.URL
	meta *fakeMetadata
	data *fakeData

	name string
	log  *eventLog

	mu          sync.Mutex
	cancelled   bool
	finishCount int
	err         error
	done        chan struct{}
}

func newFakeLoading(t *testing.T, rawURL string) *fakeLoading {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &fakeLoading{u: u, done: make(chan struct{})}
}

func (f *fakeLoading) withData(offset, length int64) *fakeLoading {
	f.data = &fakeData{offset: offset, length: length, name: f.name, log: f.log}
	return f
}

func (f *fakeLoading) withDataToEnd(offset int64) *fakeLoading {
	f.data = &fakeData{offset: offset, toEnd: true, name: f.name, log: f.log}
	return f
}

func (f *fakeLoading) withMetadata() *fakeLoading {
	f.meta = &fakeMetadata{}
	return f
}

func (f *fakeLoading) named(name string, log *eventLog) *fakeLoading {
	f.name = name
	f.log = log
	if f.data != nil {
		f.data.name = name
		f.data.log = log
	}
	return f
}

func (f *fakeLoading) URL() *url.URL { return f.u }

func (f *fakeLoading) Metadata() MetadataQuery {
	if f.meta == nil {
		return nil
	}
	return f.meta
}

func (f *fakeLoading) Data() DataQuery {
	if f.data == nil {
		return nil
	}
	return f.data
}

func (f *fakeLoading) Finish(err error) {
	f.mu.Lock()
	f.finishCount++
	f.err = err
	first := f.finishCount == 1
	f.mu.Unlock()

	f.log.add(f.name + ":finish")
	if first {
		close(f.done)
	}
}

// markCancelled simulates the playback engine abandoning the request.
func (f *fakeLoading) markCancelled() *fakeLoading {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
	return f
}

func (f *fakeLoading) IsCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *fakeLoading) IsFinished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finishCount > 0
}

func (f *fakeLoading) result() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finishCount, f.err
}

func (f *fakeLoading) wait(t *testing.T) error {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(waitTimeout):
		t.Fatalf("loading request %q was not finished", f.name)
	}
	_, err := f.result()
	return err
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []*repository.Record
}

func (r *fakeRecorder) Record(rec *repository.Record) bool {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	return true
}

func (r *fakeRecorder) outcomes() []repository.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Outcome, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Outcome)
	}
	return out
}
