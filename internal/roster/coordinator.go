package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gymgate/internal/events"
	"gymgate/internal/membership"
	"gymgate/internal/metrics"
)

type EligibilityChecker interface {
	IsEligible(ctx context.Context, accountID string, asOf time.Time) (membership.Eligibility, error)
}

// Coordinator moves waitlist heads into free slots. A pass always runs
// inside the session unit of the operation that opened the slots.
type Coordinator struct {
	store     Store
	members   EligibilityChecker
	publisher events.Publisher
	logger    *slog.Logger

	mu     sync.Mutex
	states map[string]PromotionState

	Now func() time.Time
}

// NewCoordinator builds a coordinator. members may be nil, in which case
// promoted accounts are not re-checked for eligibility.
func NewCoordinator(store Store, members EligibilityChecker, publisher events.Publisher, logger *slog.Logger) *Coordinator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:     store,
		members:   members,
		publisher: publisher,
		logger:    logger,
		states:    make(map[string]PromotionState),
		Now:       time.Now,
	}
}

// Promote runs a standalone pass for sessionID and returns the promoted
// accounts in FIFO order.
func (c *Coordinator) Promote(ctx context.Context, sessionID string) ([]string, error) {
	asOf := c.Now()

	var promoted []string
	err := c.store.WithinSession(ctx, sessionID, func(tx SessionTx) error {
		var err error
		promoted, err = c.promoteWithin(ctx, tx, asOf)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.announcePromotions(ctx, sessionID, promoted, asOf)
	return promoted, nil
}

func (c *Coordinator) State(sessionID string) PromotionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.states[sessionID]; ok {
		return s
	}
	return StateStable
}

func (c *Coordinator) setState(sessionID string, s PromotionState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s == StateStable {
		delete(c.states, sessionID)
		return
	}
	c.states[sessionID] = s
}

// promoteWithin fills free slots from the waitlist head until the session
// is full or the waitlist is empty. Every iteration pops one entry, so the
// loop ends after at most len(waitlist) iterations.
func (c *Coordinator) promoteWithin(ctx context.Context, tx SessionTx, asOf time.Time) ([]string, error) {
	session := tx.Session()
	c.setState(session.ID, StatePromotingHead)
	defer c.setState(session.ID, StateStable)

	promoted := []string{}
	for {
		count, err := tx.CountBookings(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.checkCapacity(tx.Session(), count); err != nil {
			return nil, err
		}
		if count >= tx.Session().Capacity {
			return promoted, nil
		}

		head, err := tx.PopWaitlistHead(ctx)
		if err != nil {
			return nil, err
		}
		if head == nil {
			return promoted, nil
		}

		ok, err := c.admissible(ctx, tx, head.AccountID, asOf)
		if err != nil {
			return nil, err
		}
		if !ok {
			metrics.RecordPromotionDiscarded()
			c.logger.Warn("discarded waitlist head", "session_id", session.ID, "account_id", head.AccountID)
			continue
		}

		if err := tx.InsertBooking(ctx, &Booking{SessionID: session.ID, AccountID: head.AccountID, BookedAt: asOf}); err != nil {
			return nil, fmt.Errorf("book waitlist head: %w", err)
		}
		metrics.RecordPromotion()
		promoted = append(promoted, head.AccountID)
	}
}

func (c *Coordinator) admissible(ctx context.Context, tx SessionTx, accountID string, asOf time.Time) (bool, error) {
	booked, err := tx.HasBooking(ctx, accountID)
	if err != nil {
		return false, err
	}
	if booked {
		return false, nil
	}
	if c.members == nil {
		return true, nil
	}

	eligibility, err := c.members.IsEligible(ctx, accountID, asOf)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return eligibility.Eligible, nil
}

func (c *Coordinator) checkCapacity(session Session, count int) error {
	if count <= session.Capacity {
		return nil
	}
	metrics.RecordInvariantViolation("capacity")
	c.logger.Error("session over capacity",
		"session_id", session.ID,
		"bookings", count,
		"capacity", session.Capacity,
	)
	return fmt.Errorf("%w: session %s has %d bookings for capacity %d", ErrInvariantViolated, session.ID, count, session.Capacity)
}

func (c *Coordinator) announcePromotions(ctx context.Context, sessionID string, promoted []string, at time.Time) {
	for _, accountID := range promoted {
		c.logger.Info("promoted from waitlist", "session_id", sessionID, "account_id", accountID)
		c.publish(ctx, events.New(events.TypeBookingPromoted, at, map[string]any{
			"session_id": sessionID,
			"account_id": accountID,
		}))
	}
}

func (c *Coordinator) publish(ctx context.Context, e events.Event) {
	if err := c.publisher.Publish(ctx, e); err != nil {
		c.logger.Warn("failed to publish roster event", "type", e.Type, "error", err)
	}
}
