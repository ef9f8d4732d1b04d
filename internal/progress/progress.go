package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type Progress interface {
	GetTotalSize() int64
	GetDownloaded() int64
	GetPercentage() float64
	GetSpeedBPS() int64
	GetETA() string
}

// Writer counts bytes passing through to an underlying writer.
type Writer struct {
	w     io.Writer
	start time.Time
	now   func() time.Time

	mu    sync.Mutex
	total int64
	done  int64
}

var _ Progress = (*Writer)(nil)

// NewWriter wraps w. total may be -1 when the size is unknown.
func NewWriter(w io.Writer, total int64) *Writer {
	return newWriter(w, total, time.Now)
}

func newWriter(w io.Writer, total int64, now func() time.Time) *Writer {
	return &Writer{w: w, total: total, now: now, start: now()}
}

func (p *Writer) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)

	p.mu.Lock()
	p.done += int64(n)
	p.mu.Unlock()

	return n, err
}

// SetTotalSize records the size once it is learned.
func (p *Writer) SetTotalSize(total int64) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
}

func (p *Writer) GetTotalSize() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.total
}

func (p *Writer) GetDownloaded() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.done
}

func (p *Writer) GetPercentage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total <= 0 {
		return 0
	}

	return float64(p.done) * 100 / float64(p.total)
}

func (p *Writer) GetSpeedBPS() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.start).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return int64(float64(p.done) / elapsed)
}

func (p *Writer) GetETA() string {
	speed := p.GetSpeedBPS()

	p.mu.Lock()
	remaining := p.total - p.done
	p.mu.Unlock()

	if p.GetTotalSize() <= 0 || speed <= 0 {
		return "unknown"
	}

	if remaining <= 0 {
		return "0s"
	}

	return (time.Duration(remaining/speed) * time.Second).String()
}

// Summary is a one-line description of the transfer so far.
func Summary(p Progress) string {
	return fmt.Sprintf("%d bytes (%.1f%%) at %.2f MB/s", p.GetDownloaded(), p.GetPercentage(), float64(p.GetSpeedBPS())/(1024*1024))
}
