package order

// forward lists the single legal next state of each non-terminal status.
var forward = map[OrderStatus]OrderStatus{
	StatusPending:   StatusPreparing,
	StatusPreparing: StatusCompleted,
	StatusCompleted: StatusPickedUp,
}

// InitialStatus is the status every materialized order starts in.
func InitialStatus() OrderStatus {
	return StatusPending
}

func ParseStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusPreparing, StatusCompleted, StatusPickedUp, StatusCancelled:
		return st, nil
	}
	return "", ErrUnknownStatus.WithMessage("unknown order status %q", s)
}

// Transition validates current -> requested. The chain only moves one step forward,
// and only a PENDING order may be cancelled.
func Transition(current, requested OrderStatus) (OrderStatus, error) {
	if requested == StatusCancelled && current == StatusPending {
		return StatusCancelled, nil
	}
	if next, ok := forward[current]; ok && next == requested {
		return requested, nil
	}
	return "", ErrIllegalTransition.WithMessage("illegal order status transition %s -> %s", current, requested)
}

// Apply moves o to requested. Cancelling also cancels the payment status.
func Apply(o *Order, requested OrderStatus) error {
	next, err := Transition(o.Status, requested)
	if err != nil {
		return err
	}
	o.Status = next
	if next == StatusCancelled {
		o.PaymentStatus = PaymentStatusCancelled
	}
	return nil
}
