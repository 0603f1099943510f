package service

import "errors"

var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrPastDate      = errors.New("date is in the past")
	ErrInvalidSlot   = errors.New("invalid time slot")
	ErrInvalidStatus = errors.New("invalid booking status")
	ErrUnknownDevice = errors.New("unknown device")
	ErrUnknownView   = errors.New("unknown view")
	ErrUnknownTab    = errors.New("unknown tab")
)

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrPastDate, ErrInvalidSlot, ErrInvalidStatus,
		ErrUnknownDevice, ErrUnknownView, ErrUnknownTab,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
