package checkin

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gymgate/internal/keylock"
)

// CodeConsumer consumes a code issuance by id. attendance.Repository
// satisfies it.
type CodeConsumer interface {
	Consume(ctx context.Context, id string, asOf time.Time) error
}

type memoryLedger struct {
	locks *keylock.Locker
	codes CodeConsumer

	mu     sync.RWMutex
	events map[string][]Event // by account id, append order
}

func NewMemoryLedger(codes CodeConsumer) Ledger {
	return &memoryLedger{
		locks:  keylock.New(),
		codes:  codes,
		events: make(map[string][]Event),
	}
}

func (l *memoryLedger) WithinAccount(ctx context.Context, accountID, branchID string, fn func(tx LedgerTx) error) error {
	unlock := l.locks.Lock(lockKey(accountID, branchID))
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{ledger: l}
	if err := fn(tx); err != nil {
		return err
	}

	l.mu.Lock()
	for _, e := range tx.pending {
		l.events[e.AccountID] = append(l.events[e.AccountID], e)
	}
	l.mu.Unlock()
	return nil
}

func (l *memoryLedger) latest(accountID, branchID string, since time.Time) *Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var found *Event
	for i := range l.events[accountID] {
		e := l.events[accountID][i]
		if e.BranchID != branchID || e.Timestamp.Before(since) {
			continue
		}
		if found == nil || e.Timestamp.After(found.Timestamp) {
			out := e
			found = &out
		}
	}
	return found
}

func (l *memoryLedger) LastAccepted(_ context.Context, accountID, branchID string) (*Event, error) {
	return l.latest(accountID, branchID, time.Time{}), nil
}

func (l *memoryLedger) ListByAccount(_ context.Context, accountID string, from, to time.Time) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := []Event{}
	for _, e := range l.events[accountID] {
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	return events, nil
}

// memoryTx buffers appends until fn returns nil. A code consumed inside a
// failed unit stays consumed; the gate consumes last, right before Append.
type memoryTx struct {
	ledger  *memoryLedger
	pending []Event
}

func (t *memoryTx) LatestSince(_ context.Context, accountID, branchID string, since time.Time) (*Event, error) {
	var found *Event
	for i := range t.pending {
		e := t.pending[i]
		if e.AccountID == accountID && e.BranchID == branchID && !e.Timestamp.Before(since) {
			found = &e
		}
	}
	if found != nil {
		return found, nil
	}
	return t.ledger.latest(accountID, branchID, since), nil
}

func (t *memoryTx) Append(_ context.Context, e *Event) error {
	t.pending = append(t.pending, *e)
	return nil
}

func (t *memoryTx) ConsumeCode(ctx context.Context, codeID string, asOf time.Time) error {
	if t.ledger.codes == nil {
		return errNoCodeStore
	}
	return t.ledger.codes.Consume(ctx, codeID, asOf)
}

var errNoCodeStore = errors.New("ledger has no code store")
