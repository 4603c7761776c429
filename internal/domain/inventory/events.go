package inventory

import "time"

// MovementKind classifies a stock movement recorded in the journal.
type MovementKind string

const (
	MovementReserved   MovementKind = "reserved"
	MovementReleased   MovementKind = "released"
	MovementRolledBack MovementKind = "rolled_back"
)

// Movement is one applied stock change. Quantity is always positive; the
// direction follows from Kind.
type Movement struct {
	ID         string       `json:"id"`
	ProductID  string       `json:"product_id"`
	Kind       MovementKind `json:"kind"`
	Quantity   int          `json:"quantity"`
	Ref        string       `json:"ref,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Delta returns the signed stock change of the movement.
func (m Movement) Delta() int {
	if m.Kind == MovementReserved {
		return -m.Quantity
	}
	return m.Quantity
}
