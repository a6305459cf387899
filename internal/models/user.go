package models

import "time"

// User is a registered campus member.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	Year           *int      `json:"year,omitempty"`
	Branch         *string   `json:"branch,omitempty"`
	Hostel         *string   `json:"hostel,omitempty"`
	PhoneNumber    *string   `json:"phone_number,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OTPTicket is the outcome of a passcode request. Code is only populated
// when the passcode may be shown to the caller.
type OTPTicket struct {
	Email      string    `json:"email"`
	Code       string    `json:"otp,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	UserExists bool      `json:"user_exists"`
}

// OTPRecord is a stored passcode awaiting verification.
type OTPRecord struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is the outcome of passcode verification or registration.
type AuthResult struct {
	User      *User
	IsNewUser bool
	// UpstreamToken is the remote API's credential for the user, if any.
	UpstreamToken string
}
