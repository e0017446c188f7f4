package tokenstore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu  sync.Mutex
	rec *Record
}

func NewMemory() Store {
	return &memoryStore{}
}

func (s *memoryStore) Load(context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return Record{}, ErrNotFound
	}
	return cloneRecord(*s.rec), nil
}

func (s *memoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneRecord(rec)
	s.rec = &c
	return nil
}

func (s *memoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}

func (s *memoryStore) Close() error { return nil }

func cloneRecord(rec Record) Record {
	rec.Roles = append([]string(nil), rec.Roles...)
	return rec
}
