package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vasic-labs/doctranslate/pkg/job"
)

// Memory is an in-process Store, used by default and in tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*job.Record
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*job.Record)}
}

func (m *Memory) Create(ctx context.Context, r *job.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[r.ID]; exists {
		return fmt.Errorf("job %s already exists", r.ID)
	}
	m.records[r.ID] = r.Clone()
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*job.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	return r.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, r *job.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[r.ID]; !exists {
		return fmt.Errorf("job not found: %s", r.ID)
	}
	m.records[r.ID] = r.Clone()
	return nil
}

func (m *Memory) List(ctx context.Context, limit, offset int) ([]*job.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*job.Record, 0, len(m.records))
	for _, r := range m.records {
		all = append(all, r.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })

	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }
