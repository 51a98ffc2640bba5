package store

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"go.uber.org/atomic"
)

// Memory keeps records in a process-local map. Expiry is check-on-read by the
// caller plus a periodic Sweep.
type Memory struct {
	mu      sync.Mutex
	records map[string]entity.OTPRecord

	reaped    atomic.Int64
	lastSweep atomic.Time
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]entity.OTPRecord)}
}

func (m *Memory) Upsert(ctx context.Context, rec entity.OTPRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.records[key(rec.Email, rec.Purpose)] = rec
	m.mu.Unlock()
	return nil
}

func (m *Memory) Find(ctx context.Context, email, purpose string) (*entity.OTPRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	rec, ok := m.records[key(email, purpose)]
	m.mu.Unlock()
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) Delete(ctx context.Context, email, purpose string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.records, key(email, purpose))
	m.mu.Unlock()
	return nil
}

func (m *Memory) Consume(ctx context.Context, email, purpose string, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	k := key(email, purpose)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[k]
	if !ok || rec.ID != id {
		return false, nil
	}
	delete(m.records, k)
	return true, nil
}

// Sweep drops every record created before olderThan.
func (m *Memory) Sweep(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	m.mu.Lock()
	for k, rec := range m.records {
		if rec.CreatedAt.Before(olderThan) {
			delete(m.records, k)
			n++
		}
	}
	m.mu.Unlock()

	m.reaped.Add(n)
	m.lastSweep.Store(olderThan)
	return n, nil
}

// Len returns the number of records held, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Reaped returns the total number of records removed by Sweep.
func (m *Memory) Reaped() int64 {
	return m.reaped.Load()
}

// LastSweep returns the cutoff used by the most recent Sweep.
func (m *Memory) LastSweep() time.Time {
	return m.lastSweep.Load()
}
