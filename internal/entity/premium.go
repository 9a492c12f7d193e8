package entity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// PremiumStatus enumerates the review states of a premium request.
type PremiumStatus string

const (
	PremiumPending  PremiumStatus = "pending"
	PremiumApproved PremiumStatus = "approved"
	PremiumRejected PremiumStatus = "rejected"
)

// ParsePremiumStatus normalizes s; ok is false for unknown values.
func ParsePremiumStatus(s string) (PremiumStatus, bool) {
	switch status := PremiumStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case PremiumPending, PremiumApproved, PremiumRejected:
		return status, true
	default:
		return "", false
	}
}

// PremiumRequest is a user's proof-of-subscription submission awaiting review.
type PremiumRequest struct {
	bun.BaseModel `bun:"table:premium_requests"`

	ID              string     `bun:"id,pk"`
	UserID          string     `bun:"user_id"`
	FullName        string     `bun:"full_name"`
	Email           string     `bun:"email"`
	Phone           string     `bun:"phone"`
	ProofImages     []string   `bun:"proof_images,type:jsonb"`
	Status          string     `bun:"status"`
	PremiumCode     string     `bun:"premium_code"`
	RejectionReason string     `bun:"rejection_reason"`
	ReviewedAt      *time.Time `bun:"reviewed_at"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero"`
}

// EffectiveStatus returns the stored status, reading empty values as pending.
func (r PremiumRequest) EffectiveStatus() PremiumStatus {
	if status, ok := ParsePremiumStatus(r.Status); ok {
		return status
	}
	return PremiumPending
}
