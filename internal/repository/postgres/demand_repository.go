package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
)

type DemandRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewDemandRepository(db *gorm.DB, log *zap.Logger) *DemandRepository {
	return &DemandRepository{db: db, log: log}
}

func (r *DemandRepository) Create(ctx context.Context, clinicID string, e *demand.Entry) error {
	table, err := demand.TableNameFor(clinicID)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Table(table).Create(e).Error; err != nil {
		return mapDemandError(clinicID, err)
	}
	return nil
}

func (r *DemandRepository) Search(ctx context.Context, clinicID string, query string) ([]*demand.Entry, error) {
	table, err := demand.TableNameFor(clinicID)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Table(table)
	if query != "" {
		pattern := "%" + escapeLike(query) + "%"
		q = q.Where("patient_name ILIKE ? OR medication_name ILIKE ?", pattern, pattern)
	}

	var entries []*demand.Entry
	if err := q.Order("date, id").Find(&entries).Error; err != nil {
		return nil, mapDemandError(clinicID, err)
	}
	return entries, nil
}

type demandRow struct {
	Date             *time.Time
	MedicationName   *string
	MedicationDemand *int64
}

func (r *DemandRepository) ListDemand(ctx context.Context, clinicID string) ([]demand.RawRecord, error) {
	table, err := demand.TableNameFor(clinicID)
	if err != nil {
		return nil, err
	}

	var rows []demandRow
	err = r.db.WithContext(ctx).
		Table(table).
		Select("date, medication_name, medication_demand").
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, mapDemandError(clinicID, err)
	}

	records := make([]demand.RawRecord, len(rows))
	for i, row := range rows {
		if row.Date != nil {
			d := row.Date.Format(time.DateOnly)
			records[i].Date = &d
		}
		records[i].MedicationName = row.MedicationName
		if row.MedicationDemand != nil {
			q := strconv.FormatInt(*row.MedicationDemand, 10)
			records[i].Quantity = &q
		}
	}
	return records, nil
}

func (r *DemandRepository) CreateTable(ctx context.Context, clinicID string) error {
	table, err := demand.TableNameFor(clinicID)
	if err != nil {
		return err
	}

	// clinicID is validated by TableNameFor, so it is safe to format into DDL.
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			date DATE NOT NULL,
			patient_name VARCHAR(255),
			patient_age INTEGER,
			patient_gender VARCHAR(20),
			chronic_condition VARCHAR(255),
			appointment_type VARCHAR(50),
			medication_name VARCHAR(255) NOT NULL,
			medication_demand INTEGER NOT NULL CHECK (medication_demand >= 0)
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_date ON %[2]s (date)`, clinicID, table),
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}

	r.createSearchIndex(ctx, clinicID, table)
	return nil
}

// createSearchIndex needs pg_trgm. Search falls back to a sequential scan
// without it, so a failure is only logged.
func (r *DemandRepository) createSearchIndex(ctx context.Context, clinicID, table string) {
	err := r.db.WithContext(ctx).Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%[1]s_search_trgm ON %[2]s USING gin (patient_name gin_trgm_ops, medication_name gin_trgm_ops)`,
		clinicID, table,
	)).Error
	if err != nil {
		r.log.Warn("trigram search index not created",
			zap.String("clinic_id", clinicID),
			zap.String("table", table),
			zap.Error(err),
		)
	}
}

func mapDemandError(clinicID string, err error) error {
	if pgErrorCode(err) == codeUndefinedTable {
		return fmt.Errorf("%w: %s", demand.ErrClinicTableMissing, clinicID)
	}
	return err
}
