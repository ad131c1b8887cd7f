package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505", "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// Not-found sentinels, surfaced as 404s.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrDeviceNotFound       = errors.New("device not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Validation errors: the request is malformed or incomplete, nothing was
// mutated, and the operator can retry with corrected input.
var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrCartItemExists  = errors.New("device already in cart")
	ErrReasonRequired  = errors.New("a reason is required")
	ErrInvalidIMEI     = errors.New("IMEI must be exactly 15 digits")
	ErrDuplicateIMEI   = errors.New("IMEI already registered")
	ErrInvalidPayment  = errors.New("unknown payment option")
	ErrDeviceNotActive = errors.New("device is deleted")
)

// Workflow errors: the requested transition is not legal from the current
// state, or the actor's role may not perform it. Both are warnings, not
// failures; no state changed.
var (
	ErrWrongState        = errors.New("order is not in a state that allows this action")
	ErrWrongLifecycle    = errors.New("device lifecycle does not allow this action")
	ErrNotAuthorized     = errors.New("actor role may not perform this action")
	ErrNotAssignedStaff  = errors.New("order is assigned to a different staff member")
	ErrDuplicateOrder    = errors.New("an open order with the same devices already exists")
	ErrDeviceUnavailable = errors.New("device is not available")
	ErrAlreadyAssigned   = errors.New("already assigned to this staff member")
	ErrLockTimeout       = errors.New("could not obtain row locks in time")
)
