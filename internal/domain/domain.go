package domain

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is a tenant of the system. Each clinic owns its own medication data table.
type Clinic struct {
	ClinicID  string     `gorm:"column:clinic_id;type:varchar(48);primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name         string `gorm:"column:name;type:varchar(255);not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`

	IsActive         bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil      *time.Time `gorm:"column:locked_until"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
}

func (Clinic) TableName() string {
	return "auth.clinics"
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (c *Clinic) IsLocked() bool {
	return c.LockedUntil != nil && time.Now().Before(*c.LockedUntil)
}

type AuditAction string

const (
	ActionCreate   AuditAction = "create"
	ActionRead     AuditAction = "read"
	ActionForecast AuditAction = "forecast"
	ActionLogin    AuditAction = "login"
	ActionLogout   AuditAction = "logout"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	ClinicID  string `gorm:"column:clinic_id;type:varchar(48);not null;index"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index"`
	Changes   string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

// Claims is the session identity carried by a token.
type Claims struct {
	TokenID   uuid.UUID `json:"jti"`
	ClinicID  string    `json:"sub"`
	ExpiresAt time.Time `json:"exp"`
}
