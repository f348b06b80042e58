package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/service"
)

type RecordService interface {
	AddRecord(ctx context.Context, caller service.Caller, cmd *demand.AddEntryCommand) (*demand.Entry, error)
	ListRecords(ctx context.Context, caller service.Caller, search string) ([]*demand.Entry, error)
}

type RecordHandler struct {
	svc RecordService
}

func NewRecordHandler(svc RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

type addRecordRequest struct {
	Date             string `json:"date" binding:"required"`
	PatientName      string `json:"patient_name" binding:"max=255"`
	PatientAge       *int   `json:"patient_age"`
	PatientGender    string `json:"patient_gender" binding:"max=20"`
	ChronicCondition string `json:"chronic_condition" binding:"max=255"`
	AppointmentType  string `json:"appointment_type" binding:"max=50"`
	MedicationName   string `json:"medication_name" binding:"required,max=255"`
	MedicationDemand *int   `json:"medication_demand" binding:"required"`
}

type recordList struct {
	Records []*demand.Entry `json:"records"`
	Search  string          `json:"search,omitempty"`
	Count   int             `json:"count"`
}

func (h *RecordHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var req addRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: []string{"date must be formatted as YYYY-MM-DD"},
		})
		return
	}

	entry, err := h.svc.AddRecord(c.Request.Context(), caller, &demand.AddEntryCommand{
		Date:             date,
		PatientName:      req.PatientName,
		PatientAge:       req.PatientAge,
		PatientGender:    demand.Gender(req.PatientGender),
		ChronicCondition: req.ChronicCondition,
		AppointmentType:  demand.AppointmentType(req.AppointmentType),
		MedicationName:   req.MedicationName,
		MedicationDemand: *req.MedicationDemand,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, entry)
}

// List returns the clinic's records, filtered by ?search= when present.
func (h *RecordHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	search := c.Query("search")
	entries, err := h.svc.ListRecords(c.Request.Context(), caller, search)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []*demand.Entry{}
	}

	respondOK(c, recordList{Records: entries, Search: search, Count: len(entries)})
}
