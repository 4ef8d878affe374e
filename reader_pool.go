// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"io"
	"sync"
	"time"
)

// pooledReader is one lendable archive handle, either a bare ReaderAtFactory
// product or one wrapped in a SignedArchiveReader.
type pooledReader struct {
	ra       io.ReaderAt
	closer   io.Closer
	lastUsed time.Time
}

// SharedReader is a borrowed archive reader handle. Callers must call
// Release when done; it is not safe to use after Release.
type SharedReader struct {
	pool *ReaderPool
	pr   *pooledReader
}

// ReadAt reads through the borrowed handle.
func (s *SharedReader) ReadAt(p []byte, off int64) (int, error) {
	return s.pr.ra.ReadAt(p, off)
}

// Release returns the handle to the pool, matching the teacher's
// Reader-struct mutex-guarded-close idiom rather than relying on a
// language-level Drop.
func (s *SharedReader) Release() {
	s.pool.returnSharedReader(s.pr)
}

// ReaderPool is the mutex-guarded LIFO of archive readers §4.6 describes:
// it amortizes the cost of (re)constructing a decrypt-wrapping reader
// across concurrent lookups. It has no size limit: a borrower that finds
// no idle reader always gets a newly opened one.
type ReaderPool struct {
	mu      sync.Mutex
	factory ReaderAtFactory

	verifierFactory func(io.ReaderAt) ChunkVerifier
	verifier        ChunkVerifier
	chunkSize       int64

	idle   []*pooledReader
	inUse  int
	closed bool

	logger Logger
}

// NewReaderPool builds an empty pool backed by factory. If verifierFactory
// is non-nil the archive is treated as signed: the first reader built
// constructs the one shared ChunkVerifier every subsequent reader wraps
// with a SignedArchiveReader.
func NewReaderPool(factory ReaderAtFactory, verifierFactory func(io.ReaderAt) ChunkVerifier, chunkSize int64, logger Logger) *ReaderPool {
	return &ReaderPool{
		factory:         factory,
		verifierFactory: verifierFactory,
		chunkSize:       chunkSize,
		logger:          logger,
	}
}

// GetSharedReader pops an idle reader or creates a new one, incrementing
// the in-use counter.
func (p *ReaderPool) GetSharedReader() (*SharedReader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	if n := len(p.idle); n > 0 {
		pr := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.inUse++
		return &SharedReader{pool: p, pr: pr}, nil
	}

	ra, closer, err := p.newReaderLocked()
	if err != nil {
		return nil, err
	}
	p.inUse++
	return &SharedReader{pool: p, pr: &pooledReader{ra: ra, closer: closer}}, nil
}

func (p *ReaderPool) newReaderLocked() (io.ReaderAt, io.Closer, error) {
	if p.factory == nil {
		return nil, nil, ErrNilFactory
	}
	ra, closer, err := p.factory.OpenReaderAt()
	if err != nil {
		return nil, nil, err
	}
	if p.verifierFactory != nil {
		if p.verifier == nil {
			p.verifier = p.verifierFactory(ra)
		}
		ra = NewSignedArchiveReader(ra, p.verifier, p.chunkSize)
	}
	return ra, closer, nil
}

// returnSharedReader pushes pr back onto the idle stack with a fresh
// timestamp and decrements the in-use counter.
func (p *ReaderPool) returnSharedReader(pr *pooledReader) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inUse--
	if p.closed {
		if pr.closer != nil {
			_ = pr.closer.Close()
		}
		return
	}
	pr.lastUsed = time.Now()
	p.idle = append(p.idle, pr)
}

// ReleaseOldReaders is a best-effort (non-blocking) reclamation pass: it
// drops idle readers last used more than maxAge ago, and drops the shared
// ChunkVerifier once both idle and in-use counts reach zero.
// It returns immediately, doing nothing, if the pool mutex is contended.
func (p *ReaderPool) ReleaseOldReaders(maxAge time.Duration) {
	if !p.mu.TryLock() {
		return
	}
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	kept := p.idle[:0]
	for _, pr := range p.idle {
		if pr.lastUsed.Before(cutoff) {
			if pr.closer != nil {
				_ = pr.closer.Close()
			}
			continue
		}
		kept = append(kept, pr)
	}
	p.idle = kept

	if len(p.idle) == 0 && p.inUse == 0 {
		p.verifier = nil
	}
}

// RecreatePakReaders rebuilds every idle reader against a new underlying
// provider, warning loudly if any readers are currently lent out.
func (p *ReaderPool) RecreatePakReaders(factory ReaderAtFactory) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inUse > 0 && p.logger != nil {
		p.logger.Warn("recreating pak readers while readers are in use", "inUse", p.inUse)
	}

	for _, pr := range p.idle {
		if pr.closer != nil {
			_ = pr.closer.Close()
		}
	}
	p.idle = nil
	p.factory = factory
	p.verifier = nil
}

// Close releases every idle reader and marks the pool closed; readers
// still lent out are closed as they're returned.
func (p *ReaderPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, pr := range p.idle {
		if pr.closer != nil {
			_ = pr.closer.Close()
		}
	}
	p.idle = nil
	return nil
}
