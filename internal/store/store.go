package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrClosed is returned by Mutate after Close.
var ErrClosed = errors.New("store is closed")

// Store is a single-file JSON document store. Reads are served from memory;
// all writes go through one FIFO queue drained by a single writer goroutine,
// and every write replaces the file with an atomic rename.
type Store struct {
	path string

	mu  sync.RWMutex
	doc *Document

	queue     chan *mutation
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type mutation struct {
	fn     TransformFunc
	result chan mutationResult
}

type mutationResult struct {
	doc *Document
	err error
}

// Open loads the document at path, creating and persisting an empty one
// if the file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		queue: make(chan *mutation),
		done:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	doc, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		log.Info("No data file found, initializing empty document", "path", path)
		doc = NewDocument()
		if err := s.write(doc); err != nil {
			return nil, fmt.Errorf("failed to initialize data file: %w", err)
		}
	} else if err != nil {
		return nil, err
	}
	s.doc = doc

	s.wg.Add(1)
	go s.run()
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns a copy of the current document. It does not wait for queued
// mutations, so it may be slightly behind one that is in flight.
func (s *Store) Load(_ context.Context) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

// Mutate queues fn behind all earlier mutations, applies it to a fresh copy of
// the document and durably replaces the file with the result. The returned
// document is the new state. If fn or the write fails, nothing is replaced.
func (s *Store) Mutate(ctx context.Context, fn TransformFunc) (*Document, error) {
	req := &mutation{fn: fn, result: make(chan mutationResult, 1)}
	select {
	case s.queue <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}
	// Once the writer has accepted the request it always answers.
	res := <-req.result
	return res.doc, res.err
}

// Close stops the writer goroutine. Mutations already accepted complete first.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

func (s *Store) run() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.queue:
			req.result <- s.apply(req.fn)
		case <-s.done:
			return
		}
	}
}

func (s *Store) apply(fn TransformFunc) (res mutationResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic in store mutation", "panic", r)
			res = mutationResult{err: fmt.Errorf("mutation panicked: %v", r)}
		}
	}()

	s.mu.RLock()
	next := s.doc.Clone()
	s.mu.RUnlock()

	if err := fn(next); err != nil {
		return mutationResult{err: err}
	}
	next.normalize()

	if err := s.write(next); err != nil {
		log.Error("Failed to persist document", "error", err, "path", s.path)
		return mutationResult{err: fmt.Errorf("failed to persist document: %w", err)}
	}

	s.mu.Lock()
	s.doc = next
	s.mu.Unlock()
	return mutationResult{doc: next.Clone()}
}

func (s *Store) read() (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode data file %s: %w", s.path, err)
	}
	doc.normalize()
	return &doc, nil
}

// write replaces the backing file atomically: temp file, fsync, rename.
func (s *Store) write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	log.Debug("Persisted document", "path", s.path, "bytes", len(data))
	return nil
}
