package session

import "errors"

var (
	ErrInvalidRole  = errors.New("invalid_role")
	ErrEmptyName    = errors.New("empty_name")
	ErrSeatReserved = errors.New("seat_reserved")
	ErrNoSeat       = errors.New("no_seat")
	ErrForbidden    = errors.New("forbidden")
)
