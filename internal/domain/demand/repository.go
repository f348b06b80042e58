package demand

import (
	"context"
	"fmt"
	"regexp"
)

type Repository interface {
	// Create inserts an entry into the clinic's table. Returns ErrClinicTableMissing
	// if the table has not been provisioned.
	Create(ctx context.Context, clinicID string, e *Entry) error

	// Search returns all entries, or those whose patient or medication name
	// contains query case-insensitively when query is non-empty.
	Search(ctx context.Context, clinicID string, query string) ([]*Entry, error)

	// ListDemand returns the raw (date, medication, demand) triples used for forecasting.
	ListDemand(ctx context.Context, clinicID string) ([]RawRecord, error)

	// CreateTable provisions the clinic's medication data table if it does not exist.
	CreateTable(ctx context.Context, clinicID string) error
}

var clinicIDPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,47}$`)

// ValidateClinicID rejects identifiers that are unsafe to embed in a table name.
func ValidateClinicID(clinicID string) error {
	if !clinicIDPattern.MatchString(clinicID) {
		return fmt.Errorf("%w: %q", ErrInvalidClinicID, clinicID)
	}
	return nil
}

// TableNameFor returns the qualified medication data table of a clinic.
func TableNameFor(clinicID string) (string, error) {
	if err := ValidateClinicID(clinicID); err != nil {
		return "", err
	}
	return "clinical." + clinicID + "_medication_data", nil
}
