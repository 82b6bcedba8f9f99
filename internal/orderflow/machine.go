package orderflow

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/models"
)

// Update is the complete field set produced by a status change. Callers must
// persist Fields() in one atomic write guarded by From, or not at all.
type Update struct {
	From               Status
	Status             Status
	IsProcessed        *bool
	ConfirmedAt        *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

// Fields returns the $set document for the update.
func (u Update) Fields() bson.M {
	fields := bson.M{"status": string(u.Status)}
	if u.IsProcessed != nil {
		fields["isProcessed"] = *u.IsProcessed
	}
	if u.ConfirmedAt != nil {
		fields["confirmedAt"] = *u.ConfirmedAt
	}
	if u.DeliveredAt != nil {
		fields["deliveredAt"] = *u.DeliveredAt
	}
	if u.CancelledAt != nil {
		fields["cancelledAt"] = *u.CancelledAt
	}
	if u.CancellationReason != "" {
		fields["cancellationReason"] = u.CancellationReason
	}
	return fields
}

// Apply returns a copy of o with the update applied, which is what the store
// holds after a successful write.
func (u Update) Apply(o models.Order) models.Order {
	o.Status = string(u.Status)
	if u.IsProcessed != nil {
		o.IsProcessed = *u.IsProcessed
	}
	if u.ConfirmedAt != nil {
		o.ConfirmedAt = u.ConfirmedAt
	}
	if u.DeliveredAt != nil {
		o.DeliveredAt = u.DeliveredAt
	}
	if u.CancelledAt != nil {
		o.CancelledAt = u.CancelledAt
	}
	if u.CancellationReason != "" {
		o.CancellationReason = u.CancellationReason
	}
	return o
}

// Machine validates transitions against the order graph.
type Machine struct {
	now func() time.Time
}

// NewMachine returns a Machine using clock for every timestamp it stamps.
// A nil clock means time.Now.
func NewMachine(clock func() time.Time) *Machine {
	if clock == nil {
		clock = time.Now
	}
	return &Machine{now: clock}
}

// Transition moves order to target on behalf of an actor with actorRole.
func (m *Machine) Transition(order models.Order, target Status, actorRole string) (Update, error) {
	if actorRole != models.RoleAdmin {
		return Update{}, ErrNotPermitted
	}

	from := Status(order.Status)
	if !CanTransition(from, target) {
		return Update{}, TransitionError{From: from, To: target}
	}

	now := m.now()
	update := Update{From: from, Status: target}
	switch target {
	case StatusConfirmed:
		update.ConfirmedAt = &now
		update.IsProcessed = boolPtr(false)
	case StatusShipped:
		update.IsProcessed = boolPtr(false)
	case StatusDelivered:
		update.DeliveredAt = &now
		update.IsProcessed = boolPtr(true)
	case StatusCancelled:
		update.CancelledAt = &now
	}
	return update, nil
}

// Cancel cancels a pending, confirmed or shipped order with a mandatory reason.
func (m *Machine) Cancel(order models.Order, reason string) (Update, error) {
	from := Status(order.Status)
	if !from.IsCancellable() {
		return Update{}, ErrAlreadyTerminal
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Update{}, ErrMissingReason
	}

	now := m.now()
	return Update{
		From:               from,
		Status:             StatusCancelled,
		CancelledAt:        &now,
		CancellationReason: reason,
	}, nil
}

// MarkProcessed flags an in-flight order as handled without moving it.
func (m *Machine) MarkProcessed(order models.Order) (Update, error) {
	from := Status(order.Status)
	if from.IsTerminal() {
		return Update{}, ErrAlreadyTerminal
	}
	if !from.Known() {
		return Update{}, TransitionError{From: from, To: from}
	}
	return Update{From: from, Status: from, IsProcessed: boolPtr(true)}, nil
}

func boolPtr(v bool) *bool {
	return &v
}
