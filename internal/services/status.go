package services

import "airport_manager/internal/models"

// CanTransition reports whether an order may move from one status to
// another through the regular status selector. Forward moves may skip steps;
// backward moves are only possible through ToggleTarget.
func CanTransition(from, to models.OrderStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	if to == models.StatusCancelled {
		return true
	}
	return to.Step() > from.Step()
}

// ToggleTarget is the calendar checkbox: checking advances the order one
// pipeline step, unchecking moves it one step back.
func ToggleTarget(current models.OrderStatus, done bool) (models.OrderStatus, error) {
	if current == models.StatusCancelled {
		return current, ErrInvalidTransition
	}
	var (
		next models.OrderStatus
		ok   bool
	)
	if done {
		next, ok = current.Next()
	} else {
		next, ok = current.Prev()
	}
	if !ok {
		return current, ErrInvalidTransition
	}
	return next, nil
}
