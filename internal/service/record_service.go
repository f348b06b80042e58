package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

const maxPatientAge = 150

// RecordService handles data entry and display of a clinic's medication records.
type RecordService struct {
	repo     demand.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
	now      func() time.Time
}

func NewRecordService(repo demand.Repository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *RecordService {
	return &RecordService{
		repo:     repo,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func (s *RecordService) AddRecord(ctx context.Context, caller Caller, cmd *demand.AddEntryCommand) (*demand.Entry, error) {
	if err := s.validateAddCommand(cmd); err != nil {
		return nil, err
	}

	gender := cmd.PatientGender
	if gender == "" {
		gender = demand.GenderUnknown
	}

	e := &demand.Entry{
		Date:             time.Date(cmd.Date.Year(), cmd.Date.Month(), cmd.Date.Day(), 0, 0, 0, 0, time.UTC),
		PatientName:      strings.TrimSpace(cmd.PatientName),
		PatientAge:       cmd.PatientAge,
		PatientGender:    gender,
		ChronicCondition: strings.TrimSpace(cmd.ChronicCondition),
		AppointmentType:  string(cmd.AppointmentType),
		MedicationName:   strings.TrimSpace(cmd.MedicationName),
		MedicationDemand: cmd.MedicationDemand,
	}

	if err := s.repo.Create(ctx, caller.ClinicID, e); err != nil {
		s.log.Error("failed to insert medication record",
			zap.String("clinic_id", caller.ClinicID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("creating record: %w", err)
	}

	s.metrics.RecordsEntered.Inc()
	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       string(domain.ActionCreate),
		ResourceType: "medication_record",
		ResourceID:   strconv.FormatInt(e.ID, 10),
	})

	s.log.Info("medication record added",
		zap.String("clinic_id", caller.ClinicID),
		zap.Int64("record_id", e.ID),
	)

	return e, nil
}

// ListRecords returns every record of the clinic, or only those whose patient
// or medication name contains search, ignoring case.
func (s *RecordService) ListRecords(ctx context.Context, caller Caller, search string) ([]*demand.Entry, error) {
	entries, err := s.repo.Search(ctx, caller.ClinicID, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       string(domain.ActionRead),
		ResourceType: "medication_record",
	})

	return entries, nil
}

func (s *RecordService) validateAddCommand(cmd *demand.AddEntryCommand) error {
	var errs []string

	if cmd.Date.IsZero() {
		errs = append(errs, "date is required")
	} else if cmd.Date.After(s.now()) {
		errs = append(errs, "date cannot be in the future")
	}
	if strings.TrimSpace(cmd.MedicationName) == "" {
		errs = append(errs, "medication_name is required")
	}
	if cmd.MedicationDemand < 0 {
		errs = append(errs, demand.ErrInvalidDemand.Error())
	}
	if cmd.PatientGender != "" && !cmd.PatientGender.IsValid() {
		errs = append(errs, demand.ErrInvalidGender.Error())
	}
	if cmd.AppointmentType != "" && !cmd.AppointmentType.IsValid() {
		errs = append(errs, "appointment_type is invalid")
	}
	if cmd.PatientAge != nil && (*cmd.PatientAge < 0 || *cmd.PatientAge > maxPatientAge) {
		errs = append(errs, fmt.Sprintf("patient_age must be between 0 and %d", maxPatientAge))
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
