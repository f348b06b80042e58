package demand

import "errors"

var (
	ErrInvalidClinicID    = errors.New("invalid clinic id")
	ErrClinicTableMissing = errors.New("medication data table does not exist for clinic")
	ErrInvalidDemand      = errors.New("medication demand must not be negative")
	ErrInvalidGender      = errors.New("invalid gender value")
)
