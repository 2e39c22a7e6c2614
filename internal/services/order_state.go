package services

import "github.com/example/maurigift/internal/models"

type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
)

// Transition is one permitted status change and who may trigger it.
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var orderTransitions = []Transition{
	// receipt attached
	{From: models.OrderAwaitingPayment, To: models.OrderUnderReview, Actor: ActorCustomer},
	// receipt replaced while still in review
	{From: models.OrderUnderReview, To: models.OrderUnderReview, Actor: ActorCustomer},

	{From: models.OrderUnderReview, To: models.OrderCompleted, Actor: ActorAdmin},
	{From: models.OrderUnderReview, To: models.OrderRejected, Actor: ActorAdmin},
	{From: models.OrderAwaitingPayment, To: models.OrderRejected, Actor: ActorAdmin},
}

// CanTransition reports whether actor may move an order from one status to another.
func CanTransition(from, to models.OrderStatus, actor Actor) bool {
	for _, t := range orderTransitions {
		if t.From == from && t.To == to && t.Actor == actor {
			return true
		}
	}
	return false
}

// ValidTransitionsFrom lists the statuses actor may move an order to.
func ValidTransitionsFrom(from models.OrderStatus, actor Actor) []models.OrderStatus {
	var out []models.OrderStatus
	for _, t := range orderTransitions {
		if t.From == from && t.Actor == actor {
			out = append(out, t.To)
		}
	}
	return out
}

// transitionError picks the message for a refused transition.
func transitionError(from models.OrderStatus) error {
	if from.Terminal() {
		return newError(ErrInvalidTransition, msgOrderClosed)
	}
	return newError(ErrInvalidTransition, msgOrderNotInReview)
}
