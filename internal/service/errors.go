package service

import (
	"errors"
	"strings"
)

var ErrForbidden = errors.New("forbidden: resource belongs to another clinic")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Caller identifies the authenticated clinic behind a request.
type Caller struct {
	ClinicID  string
	IPAddress string
	RequestID string
}

type AuditEntry struct {
	Caller
	Action       string
	ResourceType string
	ResourceID   string
	Changes      string
}
