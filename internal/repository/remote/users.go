package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

// upstreamOTPTTL mirrors the passcode lifetime the upstream applies.
const upstreamOTPTTL = 10 * time.Minute

func notUpstream(what string) error {
	return apperror.WithStatus(apperror.KindServer, http.StatusNotImplemented, what+" not available upstream")
}

type userRepository struct {
	client *Client
}

// NewUserRepository reads /users and updates the caller's profile.
func NewUserRepository(client *Client) repository.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) List(context.Context) ([]models.User, error) {
	return nil, notUpstream("user directory")
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if actor, ok := session.FromContext(ctx); ok && actor.UserID == id {
		return find[models.User](ctx, r.client, "/auth/me", failed("load profile"))
	}
	return find[models.User](ctx, r.client, "/users/"+segment(id), failed("load user"))
}

func (r *userRepository) FindByEmail(context.Context, string) (*models.User, error) {
	return nil, notUpstream("user lookup by email")
}

func (r *userRepository) Update(ctx context.Context, id string, patch dto.UserUpdateRequest) (*models.User, error) {
	if err := callerOnly(ctx, id); err != nil {
		return nil, err
	}
	return submit[models.User](ctx, r.client, http.MethodPut, "/users/me", patch, failed("update profile"))
}

type authRepository struct {
	client *Client
	now    func() time.Time
}

// NewAuthRepository drives the upstream passcode flow.
func NewAuthRepository(client *Client) repository.AuthRepository {
	return &authRepository{client: client, now: time.Now}
}

type tokenBody struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (r *authRepository) RequestOTP(ctx context.Context, email string) (*models.OTPTicket, error) {
	out, err := submit[struct {
		Message    string `json:"message"`
		OTP        string `json:"otp"`
		UserExists bool   `json:"user_exists"`
	}](ctx, r.client, http.MethodPost, "/auth/request-otp", dto.OTPRequest{Email: email}, failed("request passcode"))
	if err != nil {
		return nil, err
	}
	return &models.OTPTicket{
		Email:      email,
		Code:       out.OTP,
		ExpiresAt:  r.now().UTC().Add(upstreamOTPTTL),
		UserExists: out.UserExists,
	}, nil
}

func (r *authRepository) VerifyOTP(ctx context.Context, email, code string) (*models.AuthResult, error) {
	out, err := submit[struct {
		RequiresRegistration bool       `json:"requires_registration"`
		Token                *tokenBody `json:"token"`
	}](ctx, r.client, http.MethodPost, "/auth/verify-otp", dto.OTPVerifyRequest{Email: email, OTPCode: code}, failed("verify passcode"))
	if err != nil {
		return nil, err
	}
	if out.RequiresRegistration || out.Token == nil {
		return &models.AuthResult{IsNewUser: true}, nil
	}
	return &models.AuthResult{User: out.Token.User, UpstreamToken: out.Token.AccessToken}, nil
}

func (r *authRepository) Register(ctx context.Context, request dto.RegisterRequest) (*models.AuthResult, error) {
	out, err := submit[tokenBody](ctx, r.client, http.MethodPost, "/auth/register", request, failed("register"))
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{User: out.User, IsNewUser: true, UpstreamToken: out.AccessToken}, nil
}
