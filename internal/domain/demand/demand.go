package demand

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReportSlots is the number of positional forecast values carried by a ForecastRow.
const ReportSlots = 6

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

type AppointmentType string

const (
	AppointmentConsultation AppointmentType = "consultation"
	AppointmentFollowUp     AppointmentType = "follow_up"
	AppointmentEmergency    AppointmentType = "emergency"
	AppointmentRoutine      AppointmentType = "routine_checkup"
)

func (t AppointmentType) IsValid() bool {
	switch t {
	case AppointmentConsultation, AppointmentFollowUp, AppointmentEmergency, AppointmentRoutine:
		return true
	}
	return false
}

// Entry is one row of a clinic's medication data table.
// The table name is per clinic, see TableNameFor.
type Entry struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Date             time.Time `gorm:"column:date;type:date;not null;index" json:"date"`
	PatientName      string    `gorm:"column:patient_name;type:varchar(255)" json:"patient_name"`
	PatientAge       *int      `gorm:"column:patient_age" json:"patient_age,omitempty"`
	PatientGender    Gender    `gorm:"column:patient_gender;type:varchar(20)" json:"patient_gender"`
	ChronicCondition string    `gorm:"column:chronic_condition;type:varchar(255)" json:"chronic_condition"`
	AppointmentType  string    `gorm:"column:appointment_type;type:varchar(50)" json:"appointment_type"`
	MedicationName   string    `gorm:"column:medication_name;type:varchar(255);not null;index" json:"medication_name"`
	MedicationDemand int       `gorm:"column:medication_demand;not null" json:"medication_demand"`
}

// RawRecord is a demand row as delivered by the data-access layer.
// Any field may be missing.
type RawRecord struct {
	Date           *string
	MedicationName *string
	Quantity       *string
	PatientName    *string
}

// Record is a normalized demand record. Quantity is invalid when the
// source value was missing and filled with the sentinel.
type Record struct {
	Date           time.Time
	MedicationName string
	Quantity       decimal.NullDecimal
}

// YearMonth is a calendar month key.
type YearMonth struct {
	Year  int
	Month time.Month
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Index returns a monotonic month index, suitable as a time axis.
func (ym YearMonth) Index() int {
	return ym.Year*12 + int(ym.Month) - 1
}

func (ym YearMonth) Before(other YearMonth) bool {
	return ym.Index() < other.Index()
}

// AddMonths steps n calendar months forward (or back for negative n).
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.Index() + n
	return YearMonth{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Time returns the first instant of the month in UTC.
func (ym YearMonth) Time() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006-01", string(text))
	if err != nil {
		return fmt.Errorf("parsing year-month %q: %w", text, err)
	}
	*ym = YearMonthOf(t)
	return nil
}

// MonthlyPoint is the summed demand of one medication in one month.
type MonthlyPoint struct {
	MedicationName string    `json:"medication_name"`
	YearMonth      YearMonth `json:"year_month"`
	TotalDemand    int64     `json:"total_demand"`
}

// ForecastRow carries up to ReportSlots forecast values for a medication.
// A nil slot means the model produced fewer values than slots.
type ForecastRow struct {
	MedicationName string              `json:"medication_name"`
	Forecasts      [ReportSlots]*int64 `json:"forecasts"`
	Months         []YearMonth         `json:"months"`
	ChartPath      string              `json:"chart_path"`
}

type ForecastFailure struct {
	MedicationName string `json:"medication_name"`
	Reason         string `json:"reason"`
}

// Report is the output of one forecasting run.
type Report struct {
	Rows     []ForecastRow     `json:"forecasts"`
	Failures []ForecastFailure `json:"failures"`
}

type AddEntryCommand struct {
	Date             time.Time
	PatientName      string
	PatientAge       *int
	PatientGender    Gender
	ChronicCondition string
	AppointmentType  AppointmentType
	MedicationName   string
	MedicationDemand int
}
