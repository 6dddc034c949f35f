package roster

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"gymgate/internal/keylock"
)

type sessionState struct {
	session  Session
	bookings map[string]Booking
	waitlist []WaitlistEntry // sorted by (JoinedAt, Seq)
}

func (s *sessionState) clone() *sessionState {
	out := &sessionState{
		session:  s.session,
		bookings: make(map[string]Booking, len(s.bookings)),
		waitlist: append([]WaitlistEntry(nil), s.waitlist...),
	}
	for k, v := range s.bookings {
		out.bookings[k] = v
	}
	return out
}

type memoryStore struct {
	locks *keylock.Locker
	seq   atomic.Int64

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func NewMemoryStore() Store {
	return &memoryStore{
		locks:    keylock.New(),
		sessions: make(map[string]*sessionState),
	}
}

func (m *memoryStore) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = &sessionState{session: *s, bookings: make(map[string]Booking)}
	return nil
}

func (m *memoryStore) state(sessionID string) (*sessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st, nil
}

func (m *memoryStore) GetSession(_ context.Context, sessionID string) (*Session, error) {
	st, err := m.state(sessionID)
	if err != nil {
		return nil, err
	}
	s := st.session
	return &s, nil
}

func (m *memoryStore) CountBookings(_ context.Context, sessionID string) (int, error) {
	st, err := m.state(sessionID)
	if err != nil {
		return 0, err
	}
	return len(st.bookings), nil
}

func (m *memoryStore) CountWaitlist(_ context.Context, sessionID string) (int, error) {
	st, err := m.state(sessionID)
	if err != nil {
		return 0, err
	}
	return len(st.waitlist), nil
}

func (m *memoryStore) ListBookings(_ context.Context, sessionID string) ([]Booking, error) {
	st, err := m.state(sessionID)
	if err != nil {
		return nil, err
	}
	bookings := make([]Booking, 0, len(st.bookings))
	for _, b := range st.bookings {
		bookings = append(bookings, b)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].BookedAt.Before(bookings[j].BookedAt)
	})
	return bookings, nil
}

func (m *memoryStore) ListWaitlist(_ context.Context, sessionID string) ([]WaitlistEntry, error) {
	st, err := m.state(sessionID)
	if err != nil {
		return nil, err
	}
	return append([]WaitlistEntry{}, st.waitlist...), nil
}

func (m *memoryStore) WaitlistHead(_ context.Context, sessionID string) (*WaitlistEntry, error) {
	st, err := m.state(sessionID)
	if err != nil {
		return nil, err
	}
	if len(st.waitlist) == 0 {
		return nil, nil
	}
	head := st.waitlist[0]
	return &head, nil
}

// WithinSession works on a copy of the session state and publishes it only
// when fn succeeds, so a failed unit leaves no partial writes.
func (m *memoryStore) WithinSession(ctx context.Context, sessionID string, fn func(tx SessionTx) error) error {
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	st, err := m.state(sessionID)
	if err != nil {
		return err
	}

	tx := &memoryTx{store: m, st: st.clone()}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.sessions[sessionID] = tx.st
	m.mu.Unlock()
	return nil
}

type memoryTx struct {
	store *memoryStore
	st    *sessionState
}

func (t *memoryTx) Session() Session {
	return t.st.session
}

func (t *memoryTx) CountBookings(context.Context) (int, error) {
	return len(t.st.bookings), nil
}

func (t *memoryTx) HasBooking(_ context.Context, accountID string) (bool, error) {
	_, ok := t.st.bookings[accountID]
	return ok, nil
}

func (t *memoryTx) InsertBooking(_ context.Context, b *Booking) error {
	t.st.bookings[b.AccountID] = *b
	return nil
}

func (t *memoryTx) DeleteBooking(_ context.Context, accountID string) (bool, error) {
	if _, ok := t.st.bookings[accountID]; !ok {
		return false, nil
	}
	delete(t.st.bookings, accountID)
	return true, nil
}

func (t *memoryTx) HasWaitlistEntry(_ context.Context, accountID string) (bool, error) {
	return t.indexOf(accountID) >= 0, nil
}

func (t *memoryTx) indexOf(accountID string) int {
	for i, e := range t.st.waitlist {
		if e.AccountID == accountID {
			return i
		}
	}
	return -1
}

func (t *memoryTx) InsertWaitlistEntry(_ context.Context, e *WaitlistEntry) error {
	e.Seq = t.store.seq.Add(1)

	i := sort.Search(len(t.st.waitlist), func(i int) bool {
		return e.Before(t.st.waitlist[i])
	})
	t.st.waitlist = append(t.st.waitlist, WaitlistEntry{})
	copy(t.st.waitlist[i+1:], t.st.waitlist[i:])
	t.st.waitlist[i] = *e
	return nil
}

func (t *memoryTx) DeleteWaitlistEntry(_ context.Context, accountID string) (bool, error) {
	i := t.indexOf(accountID)
	if i < 0 {
		return false, nil
	}
	t.st.waitlist = append(t.st.waitlist[:i], t.st.waitlist[i+1:]...)
	return true, nil
}

func (t *memoryTx) PopWaitlistHead(context.Context) (*WaitlistEntry, error) {
	if len(t.st.waitlist) == 0 {
		return nil, nil
	}
	head := t.st.waitlist[0]
	t.st.waitlist = t.st.waitlist[1:]
	return &head, nil
}

func (t *memoryTx) UpdateCapacity(_ context.Context, capacity int) error {
	t.st.session.Capacity = capacity
	return nil
}
