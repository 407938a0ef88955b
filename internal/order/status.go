package order

import "fmt"

// Status captures the order lifecycle.
type Status string

const (
	// StatusPending is the state of every freshly created order.
	StatusPending Status = "PENDING"
	// StatusCompleted means the order has been fulfilled and handed to shipping.
	StatusCompleted Status = "COMPLETED"
	// StatusDelivered is terminal: the customer received the goods.
	StatusDelivered Status = "DELIVERED"
	// StatusCanceled is terminal: the order was withdrawn before fulfilment.
	StatusCanceled Status = "CANCELED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusCanceled},
	StatusCompleted: {StatusDelivered},
}

// ParseStatus validates a status value.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusCompleted, StatusDelivered, StatusCanceled:
		return Status(value), nil
	default:
		return "", fmt.Errorf("order: unknown status %q", value)
	}
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}
