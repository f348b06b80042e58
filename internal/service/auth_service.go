package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/session"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

var (
	ErrInvalidCredentials = errors.New("invalid clinic id or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrSessionRevoked     = errors.New("session has been logged out")
)

const maxFailedAttempts = 5

const lockDuration = 15 * time.Minute

const minPasswordLength = 12

type ClinicRepository interface {
	Create(ctx context.Context, c *domain.Clinic) error
	GetByID(ctx context.Context, clinicID string) (*domain.Clinic, error)
	RecordLoginFailure(ctx context.Context, clinicID string, lockAfter int, lockUntil time.Time) error
	RecordLoginSuccess(ctx context.Context, clinicID string, at time.Time) error
}

type AuthService struct {
	clinicRepo  ClinicRepository
	jwtManager  *auth.JWTManager
	revocations session.RevocationStore
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

func NewAuthService(
	clinicRepo ClinicRepository,
	jwtManager *auth.JWTManager,
	revocations session.RevocationStore,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		clinicRepo:  clinicRepo,
		jwtManager:  jwtManager,
		revocations: revocations,
		auditSvc:    auditSvc,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, clinicID, password, ip string) (*domain.TokenPair, error) {
	clinicID = strings.TrimSpace(clinicID)

	clinic, err := s.clinicRepo.GetByID(ctx, clinicID)
	if errors.Is(err, domain.ErrClinicNotFound) {
		// Hash anyway so response time does not reveal whether the clinic exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		s.metrics.LoginAttemptsTotal.WithLabelValues("unknown_clinic").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("loading clinic: %w", err)
	}

	if !clinic.IsActive {
		s.metrics.LoginAttemptsTotal.WithLabelValues("inactive").Inc()
		return nil, ErrAccountInactive
	}

	if clinic.IsLocked() {
		s.metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(clinic.PasswordHash), []byte(password)); err != nil {
		if err := s.clinicRepo.RecordLoginFailure(ctx, clinic.ClinicID, maxFailedAttempts, s.now().Add(lockDuration)); err != nil {
			s.log.Error("failed to record login failure", zap.String("clinic_id", clinic.ClinicID), zap.Error(err))
		}
		s.metrics.LoginAttemptsTotal.WithLabelValues("bad_password").Inc()
		s.log.Warn("failed login attempt",
			zap.String("clinic_id", clinic.ClinicID),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	if err := s.clinicRepo.RecordLoginSuccess(ctx, clinic.ClinicID, s.now()); err != nil {
		s.log.Error("failed to record login", zap.String("clinic_id", clinic.ClinicID), zap.Error(err))
	}

	pair, err := s.jwtManager.GenerateTokenPair(clinic.ClinicID)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.auditSvc.LogAsync(AuditEntry{
		Caller:       Caller{ClinicID: clinic.ClinicID, IPAddress: ip},
		Action:       string(domain.ActionLogin),
		ResourceType: "session",
	})

	s.log.Info("clinic logged in",
		zap.String("clinic_id", clinic.ClinicID),
		zap.String("ip", ip),
	)

	return pair, nil
}

// Authenticate validates an access token and rejects sessions that were logged out.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// Logout revokes the session until its token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *domain.Claims, ip string) error {
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       Caller{ClinicID: claims.ClinicID, IPAddress: ip},
		Action:       string(domain.ActionLogout),
		ResourceType: "session",
		ResourceID:   claims.TokenID.String(),
	})
	return nil
}

// RefreshToken issues a new token pair given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil || revoked {
		return nil, ErrInvalidCredentials
	}

	clinic, err := s.clinicRepo.GetByID(ctx, claims.ClinicID)
	if err != nil || !clinic.IsActive {
		return nil, ErrInvalidCredentials
	}

	// Refresh tokens are single use.
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return nil, fmt.Errorf("revoking refresh token: %w", err)
	}

	return s.jwtManager.GenerateTokenPair(clinic.ClinicID)
}

// RegisterClinic creates a clinic account with a bcrypt-hashed password.
func (s *AuthService) RegisterClinic(ctx context.Context, clinicID, name, password string) (*domain.Clinic, error) {
	clinicID = strings.TrimSpace(clinicID)
	name = strings.TrimSpace(name)

	var errs []string
	if err := demand.ValidateClinicID(clinicID); err != nil {
		errs = append(errs, "clinic_id must be 1-48 lowercase letters, digits or underscores, not starting with a digit")
	}
	if name == "" {
		errs = append(errs, "name is required")
	}
	if err := validatePasswordStrength(password); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	clinic := &domain.Clinic{
		ClinicID:     clinicID,
		Name:         name,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.clinicRepo.Create(ctx, clinic); err != nil {
		return nil, err
	}

	s.log.Info("clinic registered", zap.String("clinic_id", clinicID))
	return clinic, nil
}

func validatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
