package domain

import "errors"

var (
	ErrClinicNotFound      = errors.New("clinic not found")
	ErrClinicAlreadyExists = errors.New("clinic already exists")
)
