package dto

import "github.com/noah-isme/plaksha-connect/internal/models"

// OTPRequest asks for a one-time passcode.
type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OTPVerifyRequest submits a passcode.
type OTPVerifyRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OTPCode string `json:"otp_code" validate:"required,len=6,numeric"`
}

// RegisterRequest completes sign-up for a verified email.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	FullName    string  `json:"full_name" validate:"required,min=2,max=255"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,min=1,max=4"`
	Branch      *string `json:"branch,omitempty" validate:"omitempty,max=100"`
	Hostel      *string `json:"hostel,omitempty" validate:"omitempty,max=100"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
}

// UserUpdateRequest carries the profile fields to change.
type UserUpdateRequest struct {
	FullName       *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=255"`
	PhoneNumber    *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Year           *int    `json:"year,omitempty" validate:"omitempty,min=1,max=4"`
	Branch         *string `json:"branch,omitempty" validate:"omitempty,max=100"`
	Hostel         *string `json:"hostel,omitempty" validate:"omitempty,max=100"`
	ProfilePicture *string `json:"profile_picture,omitempty" validate:"omitempty,max=500"`
	Bio            *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
}

// OTPResponse answers a passcode request.
type OTPResponse struct {
	Message    string `json:"message"`
	OTP        string `json:"otp,omitempty"`
	DevMode    bool   `json:"dev_mode"`
	UserExists bool   `json:"user_exists"`
}

// TokenResponse carries an issued session.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

// VerifyResponse answers a passcode verification. Exactly one of Token or
// VerificationToken is set.
type VerifyResponse struct {
	RequiresRegistration bool           `json:"requires_registration"`
	Token                *TokenResponse `json:"token,omitempty"`
	VerificationToken    string         `json:"verification_token,omitempty"`
	Email                string         `json:"email,omitempty"`
}
