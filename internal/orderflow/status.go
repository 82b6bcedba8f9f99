// Package orderflow validates order status changes and computes the field sets
// the caller must persist for them. It never writes to the store itself.
package orderflow

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// allowedTransitions is the order graph. Shipping is optional, so confirmed
// may jump straight to delivered. Delivered and cancelled have no way out.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
}

var allowedTransitionSet = buildTransitionSet(allowedTransitions)

func buildTransitionSet(transitions map[Status][]Status) map[Status]map[Status]struct{} {
	set := make(map[Status]map[Status]struct{}, len(transitions))
	for from, tos := range transitions {
		next := make(map[Status]struct{}, len(tos))
		for _, to := range tos {
			next[to] = struct{}{}
		}
		set[from] = next
	}
	return set
}

// CanTransition reports whether to is directly reachable from from.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitionSet[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsCancellable reports whether a cancel request may be accepted.
func (s Status) IsCancellable() bool {
	return CanTransition(s, StatusCancelled)
}

// Known reports whether s is one of the statuses of the order graph.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Next lists the statuses reachable from s, in graph order.
func (s Status) Next() []Status {
	next := allowedTransitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// ParseStatus accepts a known status name. The bool is false for anything else.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.Known()
}
