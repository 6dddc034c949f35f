package roster

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound       = errors.New("class session not found")
	ErrInvalidRequest        = errors.New("invalid roster request")
	ErrInvalidCapacity       = errors.New("capacity must be a positive integer")
	ErrCapacityBelowBookings = errors.New("capacity is below current bookings")
	ErrWaitlistEmpty         = errors.New("waitlist is empty")
	ErrInvariantViolated     = errors.New("roster invariant violated")
)

type Session struct {
	ID        string    `db:"id" json:"id"`
	BranchID  string    `db:"branch_id" json:"branch_id"`
	Capacity  int       `db:"capacity" json:"capacity"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Booking struct {
	SessionID string    `db:"session_id" json:"session_id"`
	AccountID string    `db:"account_id" json:"account_id"`
	BookedAt  time.Time `db:"booked_at" json:"booked_at"`
}

// WaitlistEntry is ordered by (JoinedAt, Seq). Seq is assigned by the store
// and only breaks ties between equal JoinedAt values.
type WaitlistEntry struct {
	SessionID string    `db:"session_id" json:"session_id"`
	AccountID string    `db:"account_id" json:"account_id"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
	Seq       int64     `db:"seq" json:"seq"`
}

func (e WaitlistEntry) Before(o WaitlistEntry) bool {
	if !e.JoinedAt.Equal(o.JoinedAt) {
		return e.JoinedAt.Before(o.JoinedAt)
	}
	return e.Seq < o.Seq
}

type BookOutcome string

const (
	BookOutcomeBooked        BookOutcome = "booked"
	BookOutcomeAlreadyBooked BookOutcome = "already_booked"
	BookOutcomeFull          BookOutcome = "full"
)

type BookResult struct {
	Outcome BookOutcome `json:"outcome"`
	Booking *Booking    `json:"booking,omitempty"`
}

type CancelOutcome string

const (
	CancelOutcomeCancelled CancelOutcome = "cancelled"
	CancelOutcomeNotFound  CancelOutcome = "not_found"
)

type CancelResult struct {
	Outcome  CancelOutcome `json:"outcome"`
	Promoted []string      `json:"promoted"`
}

type JoinOutcome string

const (
	JoinOutcomeJoined            JoinOutcome = "joined"
	JoinOutcomeAlreadyWaitlisted JoinOutcome = "already_waitlisted"
	JoinOutcomeAlreadyBooked     JoinOutcome = "already_booked"
	// JoinOutcomeMembershipInvalid: a free slot was open, the joiner was
	// dequeued by the promotion pass and failed the eligibility check.
	JoinOutcomeMembershipInvalid JoinOutcome = "membership_invalid"
)

type JoinResult struct {
	Outcome JoinOutcome `json:"outcome"`
	// Entry is set only while the joiner is actually queued.
	Entry *WaitlistEntry `json:"entry,omitempty"`
	// Promoted is set when the session had a free slot and the joiner was
	// booked in the same unit.
	Promoted bool `json:"promoted"`
}

type RemoveOutcome string

const (
	RemoveOutcomeRemoved  RemoveOutcome = "removed"
	RemoveOutcomeNotFound RemoveOutcome = "not_found"
)

type RemoveResult struct {
	Outcome RemoveOutcome `json:"outcome"`
}

type PromotionState string

const (
	StateStable        PromotionState = "stable"
	StatePromotingHead PromotionState = "promoting_head"
)

type SessionAvailability struct {
	Session
	Booked     int `json:"booked"`
	Free       int `json:"free"`
	Waitlisted int `json:"waitlisted"`
}

type CreateSessionRequest struct {
	Capacity  int       `json:"capacity" validate:"gt=0"`
	StartTime time.Time `json:"start_time" validate:"required"`
}

type SetCapacityRequest struct {
	Capacity int `json:"capacity" validate:"gt=0"`
}
