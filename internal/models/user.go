package models

import "time"

// ApprovalStatus tracks self-registered accounts through review.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalRejected ApprovalStatus = "rejected"
)

// User represents an account that can sign in.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Username is the login name (unique).
	Username string `json:"username"`

	// Email is the user's email address (unique when set).
	Email string `json:"email"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`

	// PasswordHash is the bcrypt hash; never serialized.
	PasswordHash string `json:"-"`

	ApprovalStatus ApprovalStatus `json:"approval_status"`

	// HouseNumber is the unit a self-registering tenant claims to live in.
	HouseNumber string `json:"house_number,omitempty"`

	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// CanSignIn reports whether the account has cleared approval.
func (u *User) CanSignIn() bool {
	return u.ApprovalStatus == ApprovalApproved
}
