package engine

import (
	"errors"
	"fmt"

	"deviceloan/models"
)

// Lifecycle operations on a device.
type Op string

const (
	OpRequestBorrow Op = "RequestBorrow"
	OpApprove       Op = "Approve"
	OpReject        Op = "Reject"
	OpAssign        Op = "Assign"
	OpReturn        Op = "Return"
)

var (
	// ErrValidation covers missing required input, caught before any remote
	// call is made.
	ErrValidation = errors.New("validation failed")
	// ErrEligibility covers role/designation mismatches and wrong-state
	// transitions.
	ErrEligibility = errors.New("not eligible")
)

type transitionKey struct {
	from models.DeviceStatus
	op   Op
}

// adminOps may only be triggered by an admin actor.
var adminOps = map[Op]bool{
	OpApprove: true,
	OpReject:  true,
	OpAssign:  true,
}

// transitions is the single source of truth for the device state machine.
// Ops absent for a state are precondition failures. RequestBorrow resolves
// its target per actor role below. There is deliberately no edge for issue
// reporting: a repair ticket does not move the device, only the admin device
// editor puts a device into Maintenance or Lost.
var transitions = map[transitionKey]models.DeviceStatus{
	{models.StatusAvailable, OpAssign}:        models.StatusBorrowed,
	{models.StatusPendingApproval, OpApprove}: models.StatusBorrowed,
	{models.StatusPendingApproval, OpReject}:  models.StatusAvailable,
	{models.StatusBorrowed, OpReturn}:         models.StatusAvailable,
}

// Next validates (currentState, operation, actor role) and returns the new
// state.
func Next(from models.DeviceStatus, op Op, actor models.UserRole) (models.DeviceStatus, error) {
	if adminOps[op] && actor != models.RoleAdmin {
		return "", fmt.Errorf("%w: %s requires an admin", ErrEligibility, op)
	}
	if op == OpRequestBorrow {
		if from != models.StatusAvailable {
			return "", fmt.Errorf("%w: device is %s, not %s", ErrEligibility, from, models.StatusAvailable)
		}
		// Teacher self-requests wait for admin approval; everyone else
		// borrows immediately.
		if actor == models.RoleTeacher {
			return models.StatusPendingApproval, nil
		}
		return models.StatusBorrowed, nil
	}
	to, ok := transitions[transitionKey{from, op}]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s device", ErrEligibility, op, from)
	}
	return to, nil
}

// Eligible reports whether a user may borrow a device: open designation, a
// matching role, or the sheet's "unspecified" placeholder all qualify.
func Eligible(d models.Device, role models.UserRole) bool {
	switch string(d.DesignatedFor) {
	case "", models.NotSpecified:
		return true
	}
	return d.DesignatedFor == role
}
