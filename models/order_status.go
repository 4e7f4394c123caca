package models

// OrderStatus is the fulfilment state of an Order
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in workflow order
var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

// orderTransitions is the complete set of legal status edges.
// DELIVERED and CANCELLED have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsActive reports whether an order in status s still needs attention.
// Salesmen only see active orders.
func (s OrderStatus) IsActive() bool {
	return s.Valid() && !s.IsTerminal()
}

// CanTransitionTo reports whether moving from s to next is a legal edge
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActiveOrderStatuses returns the statuses that count as active
func ActiveOrderStatuses() []OrderStatus {
	var out []OrderStatus
	for _, s := range OrderStatuses {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}
