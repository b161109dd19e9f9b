package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Caller is the already-authenticated identity behind a request. ID is the
// caller's patient id for patients and doctor id for doctors.
type Caller struct {
	UserID    uuid.UUID
	ID        uuid.UUID
	Role      Role
	IP        string
	RequestID string
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type Claims struct {
	UserID    uuid.UUID  `json:"sub"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
}

// Caller maps token claims onto the identity the services check ownership
// against. ok is false when the role's profile id is missing.
func (c *Claims) Caller(ip, requestID string) (Caller, bool) {
	caller := Caller{UserID: c.UserID, Role: c.Role, IP: ip, RequestID: requestID}
	switch c.Role {
	case RolePatient:
		if c.PatientID == nil {
			return caller, false
		}
		caller.ID = *c.PatientID
	case RoleDoctor:
		if c.DoctorID == nil {
			return caller, false
		}
		caller.ID = *c.DoctorID
	case RoleAdmin:
		caller.ID = c.UserID
	default:
		return caller, false
	}
	return caller, true
}
