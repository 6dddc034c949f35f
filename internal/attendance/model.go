package attendance

import "time"

type State string

const (
	StateIssued   State = "issued"
	StateConsumed State = "consumed"
	StateExpired  State = "expired"
)

// Code is a short-lived numeric code bound to an account at one branch.
type Code struct {
	ID         string     `db:"id" json:"-"`
	Code       string     `db:"code" json:"code"`
	AccountID  string     `db:"account_id" json:"account_id"`
	BranchID   string     `db:"branch_id" json:"branch_id"`
	IssuedAt   time.Time  `db:"issued_at" json:"issued_at"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
}

// StateAt derives the lifecycle state; expiry is never stored.
func (c *Code) StateAt(asOf time.Time) State {
	if c.ConsumedAt != nil {
		return StateConsumed
	}
	if !asOf.Before(c.ExpiresAt) {
		return StateExpired
	}
	return StateIssued
}

// Live reports whether the code still blocks its value from reuse.
func (c *Code) Live(asOf time.Time) bool {
	return c.StateAt(asOf) == StateIssued
}

type IssueRequest struct {
	TTLSeconds int `json:"ttl_seconds" validate:"gte=0,lte=3600"`
}
