package membership

import "time"

type Role string
type Status string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"

	StatusActive  Status = "active"
	StatusFrozen  Status = "frozen"
	StatusStopped Status = "stopped"
)

// Account is owned by the tenant. StartDate/EndDate bound the paid-access
// window [StartDate, EndDate) and are nil for trainers.
type Account struct {
	ID        string     `db:"id" json:"id"`
	BranchID  string     `db:"branch_id" json:"branch_id"`
	Role      Role       `db:"role" json:"role"`
	Status    Status     `db:"status" json:"status"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

type Reason string

const (
	ReasonEligible   Reason = "eligible"
	ReasonNotFound   Reason = "not_found"
	ReasonExpired    Reason = "expired"
	ReasonNotStarted Reason = "not_started"
	ReasonFrozen     Reason = "frozen"
	ReasonStopped    Reason = "stopped"
)

type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason"`
	Role     Role   `json:"role,omitempty"`
}

type UpsertAccountRequest struct {
	BranchID  string     `json:"branch_id" validate:"required,max=128"`
	Role      Role       `json:"role" validate:"required,oneof=member trainer"`
	Status    Status     `json:"status" validate:"required,oneof=active frozen stopped"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}
