package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

const registrationTokenTTL = 15 * time.Minute

// OTPSender delivers a passcode out of band.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogOTPSender writes passcodes to the log. Useful on shared dev hosts where
// returning the code in the response is undesirable.
type LogOTPSender struct {
	Logger zerolog.Logger
}

// SendOTP implements OTPSender.
func (s LogOTPSender) SendOTP(_ context.Context, email, code string) error {
	s.Logger.Info().Str("email", email).Str("otp", code).Msg("one-time passcode issued")
	return nil
}

// AuthService drives passcode sign-in and the caller's own profile.
type AuthService interface {
	RequestOTP(ctx context.Context, payload dto.OTPRequest) (*dto.OTPResponse, error)
	Verify(ctx context.Context, payload dto.OTPVerifyRequest) (*dto.VerifyResponse, error)
	Register(ctx context.Context, verificationToken string, payload dto.RegisterRequest) (*dto.TokenResponse, error)
	Me(ctx context.Context, actor session.Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor session.Actor, payload dto.UserUpdateRequest) (*models.User, error)
}

type authService struct {
	auth      repository.AuthRepository
	users     repository.UserRepository
	tokens    *session.Tokens
	sender    OTPSender
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAuthService constructs the auth service. With a nil sender the passcode
// is returned to the caller in dev mode.
func NewAuthService(auth repository.AuthRepository, users repository.UserRepository, tokens *session.Tokens, sender OTPSender, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		auth:      auth,
		users:     users,
		tokens:    tokens,
		sender:    sender,
		validator: validate,
		logger:    componentLogger(logger, "auth_service"),
		tracer:    otel.Tracer(tracerPrefix + "auth"),
	}
}

func (s *authService) RequestOTP(ctx context.Context, payload dto.OTPRequest) (*dto.OTPResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	ctx, span := s.tracer.Start(ctx, "auth.request_otp")
	defer span.End()

	ticket, err := s.auth.RequestOTP(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	response := &dto.OTPResponse{Message: "OTP sent to your email", UserExists: ticket.UserExists}
	if s.sender == nil {
		response.OTP = ticket.Code
		response.DevMode = ticket.Code != ""
		return response, nil
	}
	if ticket.Code != "" {
		if err := s.sender.SendOTP(ctx, email, ticket.Code); err != nil {
			span.RecordError(err)
			return nil, apperror.Wrap(err, apperror.KindServer, "failed to deliver OTP")
		}
	}
	return response, nil
}

func (s *authService) Verify(ctx context.Context, payload dto.OTPVerifyRequest) (*dto.VerifyResponse, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	ctx, span := s.tracer.Start(ctx, "auth.verify_otp")
	defer span.End()

	result, err := s.auth.VerifyOTP(ctx, email, payload.OTPCode)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("auth.new_user", result.IsNewUser))

	if result.IsNewUser || result.User == nil {
		token, err := s.tokens.IssueRegistration(email, registrationTokenTTL)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.KindServer, "failed to issue registration token")
		}
		return &dto.VerifyResponse{RequiresRegistration: true, VerificationToken: token, Email: email}, nil
	}

	token, err := s.issue(*result)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", result.User.ID).Msg("user signed in")
	return &dto.VerifyResponse{Token: token}, nil
}

// Register creates the account for the email proven by verificationToken.
func (s *authService) Register(ctx context.Context, verificationToken string, payload dto.RegisterRequest) (*dto.TokenResponse, error) {
	email, err := s.tokens.ParseRegistration(verificationToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired verification token")
	}
	payload.Email = email
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	payload.FullName = strings.TrimSpace(payload.FullName)
	payload.Bio = trimmed(payload.Bio)

	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	result, err := s.auth.Register(ctx, payload)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if result.User == nil {
		return nil, apperror.New(apperror.KindServer, "registration returned no user")
	}
	s.logger.Info().Str("user_id", result.User.ID).Msg("user registered")
	return s.issue(*result)
}

func (s *authService) Me(ctx context.Context, actor session.Actor) (*models.User, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, actor session.Actor, payload dto.UserUpdateRequest) (*models.User, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	payload.FullName = trimmed(payload.FullName)
	payload.Bio = trimmed(payload.Bio)
	return s.users.Update(ctx, actor.UserID, payload)
}

func (s *authService) issue(result models.AuthResult) (*dto.TokenResponse, error) {
	user := result.User
	token, _, err := s.tokens.Issue(ActorFromUser(*user), result.UpstreamToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindServer, "failed to issue session token")
	}
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        user,
	}, nil
}

// ActorFromUser builds the session identity of a stored user.
func ActorFromUser(user models.User) session.Actor {
	return session.Actor{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		Year:     user.Year,
		Branch:   user.Branch,
		Hostel:   user.Hostel,
	}
}
