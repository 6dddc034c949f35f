package roster

import "context"

// Store persists sessions, bookings and waitlists. All mutation happens
// through WithinSession; the plain reads serve the latest committed state.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	CountBookings(ctx context.Context, sessionID string) (int, error)
	CountWaitlist(ctx context.Context, sessionID string) (int, error)
	ListBookings(ctx context.Context, sessionID string) ([]Booking, error)
	ListWaitlist(ctx context.Context, sessionID string) ([]WaitlistEntry, error)
	WaitlistHead(ctx context.Context, sessionID string) (*WaitlistEntry, error)

	// WithinSession runs fn as one atomic unit scoped to sessionID and
	// returns ErrSessionNotFound when the session does not exist. Units for
	// different sessions never wait on each other.
	WithinSession(ctx context.Context, sessionID string, fn func(tx SessionTx) error) error
}

type SessionTx interface {
	Session() Session
	CountBookings(ctx context.Context) (int, error)
	HasBooking(ctx context.Context, accountID string) (bool, error)
	InsertBooking(ctx context.Context, b *Booking) error
	DeleteBooking(ctx context.Context, accountID string) (bool, error)

	HasWaitlistEntry(ctx context.Context, accountID string) (bool, error)
	// InsertWaitlistEntry assigns e.Seq.
	InsertWaitlistEntry(ctx context.Context, e *WaitlistEntry) error
	DeleteWaitlistEntry(ctx context.Context, accountID string) (bool, error)
	// PopWaitlistHead removes and returns the smallest (JoinedAt, Seq) entry,
	// or nil when the waitlist is empty.
	PopWaitlistHead(ctx context.Context) (*WaitlistEntry, error)

	UpdateCapacity(ctx context.Context, capacity int) error
}
