package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
)

func strPtr(s string) *string { return &s }

func raw(date, medication, qty string) demand.RawRecord {
	return demand.RawRecord{Date: strPtr(date), MedicationName: strPtr(medication), Quantity: strPtr(qty)}
}

func TestNormalize_RejectsUnsupportedStrategy(t *testing.T) {
	for _, s := range []FillStrategy{"column", "drop", "", "ROW"} {
		got, err := Normalize([]demand.RawRecord{raw("2024-01-01", "Aspirin", "3")}, s)
		if !errors.Is(err, ErrInvalidStrategy) {
			t.Errorf("Normalize(strategy=%q) error = %v, want ErrInvalidStrategy", s, err)
		}
		if got != nil {
			t.Errorf("Normalize(strategy=%q) returned %d records, want none", s, len(got))
		}
	}
}

func TestNormalize_DatesAreCalendarDays(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15 17:45:10", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15T23:30:00+05:30", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize([]demand.RawRecord{raw(tt.in, "Aspirin", "1")}, FillRow)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if !got[0].Date.Equal(tt.want) {
				t.Errorf("Date = %v, want %v", got[0].Date, tt.want)
			}
		})
	}
}

func TestNormalize_FillsMissingValues(t *testing.T) {
	records, err := Normalize([]demand.RawRecord{
		{Date: strPtr("2024-01-10"), Quantity: strPtr("4")},
		{Date: strPtr("2024-01-11"), MedicationName: strPtr("Ibuprofen")},
	}, FillRow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if records[0].MedicationName != Sentinel {
		t.Errorf("missing medication name = %q, want %q", records[0].MedicationName, Sentinel)
	}
	if !records[0].Quantity.Valid || records[0].Quantity.Decimal.IntPart() != 4 {
		t.Errorf("quantity = %v, want valid 4", records[0].Quantity)
	}
	if records[1].Quantity.Valid {
		t.Errorf("missing quantity should be invalid, got %v", records[1].Quantity.Decimal)
	}
}

func TestNormalize_DropsPatientColumns(t *testing.T) {
	r := raw("2024-01-10", "Aspirin", "2")
	r.PatientName = strPtr("Jane Doe")

	records, err := Normalize([]demand.RawRecord{r}, FillRow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := demand.Record{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), MedicationName: "Aspirin"}
	if records[0].MedicationName != want.MedicationName || !records[0].Date.Equal(want.Date) {
		t.Errorf("record = %+v", records[0])
	}
}

func TestNormalize_InvalidDate(t *testing.T) {
	_, err := Normalize([]demand.RawRecord{
		raw("2024-01-10", "Aspirin", "2"),
		{MedicationName: strPtr("Aspirin"), Quantity: strPtr("2")},
	}, FillRow)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("error = %v, want ErrInvalidDate", err)
	}
}

func TestNormalize_InvalidQuantity(t *testing.T) {
	for _, q := range []string{"2.5", "two", ""} {
		_, err := Normalize([]demand.RawRecord{raw("2024-01-10", "Aspirin", q)}, FillRow)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %q: error = %v, want ErrInvalidQuantity", q, err)
		}
	}

	records, err := Normalize([]demand.RawRecord{raw("2024-01-10", "Aspirin", "12.0")}, FillRow)
	if err != nil {
		t.Fatalf("integral decimal should be accepted: %v", err)
	}
	if records[0].Quantity.Decimal.IntPart() != 12 {
		t.Errorf("quantity = %v, want 12", records[0].Quantity.Decimal)
	}
}
