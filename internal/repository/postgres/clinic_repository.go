package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
)

type ClinicRepository struct {
	db *gorm.DB
}

func NewClinicRepository(db *gorm.DB) *ClinicRepository {
	return &ClinicRepository{db: db}
}

func (r *ClinicRepository) Create(ctx context.Context, c *domain.Clinic) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return domain.ErrClinicAlreadyExists
		}
		return fmt.Errorf("inserting clinic: %w", err)
	}
	return nil
}

func (r *ClinicRepository) GetByID(ctx context.Context, clinicID string) (*domain.Clinic, error) {
	var c domain.Clinic
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND deleted_at IS NULL", clinicID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrClinicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching clinic: %w", err)
	}
	return &c, nil
}

// RecordLoginFailure increments the failure counter and locks the clinic
// until lockUntil once the counter reaches lockAfter.
func (r *ClinicRepository) RecordLoginFailure(ctx context.Context, clinicID string, lockAfter int, lockUntil time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Clinic{}).
		Where("clinic_id = ?", clinicID).
		Updates(map[string]any{
			"failed_login_count": gorm.Expr("failed_login_count + 1"),
			"locked_until": gorm.Expr(
				"CASE WHEN failed_login_count + 1 >= ? THEN ?::timestamptz ELSE locked_until END",
				lockAfter, lockUntil,
			),
		}).Error
}

func (r *ClinicRepository) RecordLoginSuccess(ctx context.Context, clinicID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Clinic{}).
		Where("clinic_id = ?", clinicID).
		Updates(map[string]any{
			"failed_login_count": 0,
			"locked_until":       nil,
			"last_login_at":      at,
		}).Error
}
