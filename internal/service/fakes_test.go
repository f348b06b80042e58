package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

func testMetrics() *metrics.Collector {
	return metrics.NewCollector("test", prometheus.NewRegistry())
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

// newTestAudit returns an audit service; call Shutdown before inspecting the repo.
func newTestAudit(t *testing.T, m *metrics.Collector) (*AuditService, *fakeAuditRepo) {
	t.Helper()
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, m, zap.NewNop())
	return svc, repo
}

type fakeClinicRepo struct {
	clinics map[string]*domain.Clinic
}

func newFakeClinicRepo(clinics ...*domain.Clinic) *fakeClinicRepo {
	r := &fakeClinicRepo{clinics: map[string]*domain.Clinic{}}
	for _, c := range clinics {
		r.clinics[c.ClinicID] = c
	}
	return r
}

func (r *fakeClinicRepo) Create(_ context.Context, c *domain.Clinic) error {
	if _, ok := r.clinics[c.ClinicID]; ok {
		return domain.ErrClinicAlreadyExists
	}
	r.clinics[c.ClinicID] = c
	return nil
}

func (r *fakeClinicRepo) GetByID(_ context.Context, clinicID string) (*domain.Clinic, error) {
	c, ok := r.clinics[clinicID]
	if !ok {
		return nil, domain.ErrClinicNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClinicRepo) RecordLoginFailure(_ context.Context, clinicID string, lockAfter int, lockUntil time.Time) error {
	c := r.clinics[clinicID]
	c.FailedLoginCount++
	if c.FailedLoginCount >= lockAfter {
		c.LockedUntil = &lockUntil
	}
	return nil
}

func (r *fakeClinicRepo) RecordLoginSuccess(_ context.Context, clinicID string, at time.Time) error {
	c := r.clinics[clinicID]
	c.FailedLoginCount = 0
	c.LockedUntil = nil
	c.LastLoginAt = &at
	return nil
}

type fakeDemandRepo struct {
	entries map[string][]*demand.Entry
	raw     map[string][]demand.RawRecord
	nextID  int64
	err     error
}

func newFakeDemandRepo(clinicIDs ...string) *fakeDemandRepo {
	r := &fakeDemandRepo{entries: map[string][]*demand.Entry{}, raw: map[string][]demand.RawRecord{}}
	for _, id := range clinicIDs {
		r.entries[id] = nil
	}
	return r
}

func (r *fakeDemandRepo) Create(_ context.Context, clinicID string, e *demand.Entry) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.entries[clinicID]; !ok {
		return demand.ErrClinicTableMissing
	}
	r.nextID++
	e.ID = r.nextID
	r.entries[clinicID] = append(r.entries[clinicID], e)
	return nil
}

func (r *fakeDemandRepo) Search(_ context.Context, clinicID string, query string) ([]*demand.Entry, error) {
	entries, ok := r.entries[clinicID]
	if !ok {
		return nil, demand.ErrClinicTableMissing
	}
	q := strings.ToLower(query)
	var out []*demand.Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.PatientName), q) || strings.Contains(strings.ToLower(e.MedicationName), q) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeDemandRepo) ListDemand(_ context.Context, clinicID string) ([]demand.RawRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	if _, ok := r.entries[clinicID]; !ok {
		return nil, demand.ErrClinicTableMissing
	}
	return r.raw[clinicID], nil
}

func (r *fakeDemandRepo) CreateTable(_ context.Context, clinicID string) error {
	if _, ok := r.entries[clinicID]; !ok {
		r.entries[clinicID] = nil
	}
	return nil
}
