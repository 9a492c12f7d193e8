package dto

import "time"

// PremiumRequestResponse represents a premium membership request. Proof images
// are returned as displayable sources.
type PremiumRequestResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	ProofImages     []string   `json:"proof_images"`
	Status          string     `json:"status"`
	PremiumCode     string     `json:"premium_code,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ApprovePremiumRequest is the optional body of an approval.
type ApprovePremiumRequest struct {
	PremiumCode string `json:"premium_code"`
}

// RejectPremiumRequest is the optional body of a rejection.
type RejectPremiumRequest struct {
	Reason string `json:"reason"`
}
