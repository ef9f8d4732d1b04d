package repository

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/signedplay/internal/logger"
)

// Store is the persistence a Journal writes through.
type Store interface {
	Save(rec *Record) error
}

// Journal persists records off the caller's goroutine. Record never blocks;
// when the buffer is full the record is dropped and logged.
type Journal struct {
	store   Store
	records chan *Record

	mu     sync.Mutex
	closed bool

	g errgroup.Group
}

func NewJournal(store Store, buffer int) *Journal {
	if buffer <= 0 {
		buffer = 1
	}

	j := &Journal{
		store:   store,
		records: make(chan *Record, buffer),
	}
	j.g.Go(j.run)

	return j
}

// Record queues rec for persistence and reports whether it was accepted.
func (j *Journal) Record(rec *Record) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return false
	}

	select {
	case j.records <- rec:
		return true
	default:
		logger.Warnf("Journal buffer full, dropping record %s", rec.ID)
		return false
	}
}

// Close flushes queued records and returns the first save error.
func (j *Journal) Close() error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.records)
	}
	j.mu.Unlock()

	return j.g.Wait()
}

func (j *Journal) run() error {
	var firstErr error

	for rec := range j.records {
		if err := j.store.Save(rec); err != nil {
			logger.Errorf("Failed to save record %s: %v", rec.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
