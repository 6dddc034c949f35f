package checkin

import (
	"errors"
	"fmt"
	"time"
)

type Method string

const (
	MethodScan   Method = "scan"
	MethodManual Method = "manual"
	MethodCode   Method = "code"
)

func (m Method) Valid() bool {
	switch m {
	case MethodScan, MethodManual, MethodCode:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeAccepted              Outcome = "accepted"
	OutcomeDuplicateWithinWindow Outcome = "duplicate_within_window"
	OutcomeMembershipInvalid     Outcome = "membership_invalid"
	OutcomeCodeExpired           Outcome = "code_expired"
	OutcomeCodeNotFound          Outcome = "code_not_found"
)

// Message is the user-facing wording for an outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeAccepted:
		return "Checked in"
	case OutcomeDuplicateWithinWindow:
		return "Already checked in recently"
	case OutcomeMembershipInvalid:
		return "Membership is not active"
	case OutcomeCodeExpired, OutcomeCodeNotFound:
		return "Invalid or expired code"
	}
	return string(o)
}

// Event is an accepted check-in. It is never mutated once stored.
type Event struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	BranchID  string    `db:"branch_id" json:"branch_id"`
	Method    Method    `db:"method" json:"method"`
	Outcome   Outcome   `db:"outcome" json:"outcome"`
	Timestamp time.Time `db:"occurred_at" json:"timestamp"`
}

var ErrInvalidRequest = errors.New("invalid admission request")

// AdmitRequest is the single entry shape for scan, manual and code check-ins.
// For MethodCode the account comes from the code; AccountID may be empty.
type AdmitRequest struct {
	AccountID string
	BranchID  string
	Method    Method
	Code      string
	AsOf      time.Time
}

func (r AdmitRequest) Validate() error {
	if !r.Method.Valid() {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidRequest, r.Method)
	}
	if r.BranchID == "" {
		return fmt.Errorf("%w: branch is required", ErrInvalidRequest)
	}
	if r.Method == MethodCode {
		if r.Code == "" {
			return fmt.Errorf("%w: code is required", ErrInvalidRequest)
		}
		return nil
	}
	if r.AccountID == "" {
		return fmt.Errorf("%w: account is required", ErrInvalidRequest)
	}
	return nil
}

type Decision struct {
	Outcome           Outcome       `json:"outcome"`
	Message           string        `json:"message"`
	Event             *Event        `json:"event,omitempty"`
	Reason            string        `json:"reason,omitempty"`
	RetryAfter        time.Duration `json:"-"`
	RetryAfterSeconds int64         `json:"retry_after_seconds,omitempty"`
}

func (d Decision) Accepted() bool {
	return d.Outcome == OutcomeAccepted
}

type AdmitCheckInRequest struct {
	Method    Method `json:"method" validate:"required,oneof=scan manual code"`
	AccountID string `json:"account_id" validate:"omitempty,max=128"`
	Code      string `json:"code" validate:"omitempty,numeric,min=4,max=9"`
}
