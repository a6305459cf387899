package local

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type userRepository struct {
	store *Store
	users *collection[models.User]
}

func newUsers(store *Store) *collection[models.User] {
	return newCollection(store, "users", seedUsers)
}

// NewUserRepository stores profiles under mock_users.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store, users: newUsers(store)}
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	return r.users.all(ctx, "list")
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.users.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(users, func(u models.User) bool { return u.ID == id }); i >= 0 {
		return &users[i], nil
	}
	return nil, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.users.all(ctx, "find_by_email")
	if err != nil {
		return nil, err
	}
	if i := indexOf(users, sameEmail(email)); i >= 0 {
		return &users[i], nil
	}
	return nil, nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch dto.UserUpdateRequest) (*models.User, error) {
	var updated models.User
	err := r.users.mutate(ctx, "update", func(users []models.User) ([]models.User, error) {
		i := indexOf(users, func(u models.User) bool { return u.ID == id })
		if i < 0 {
			return nil, apperror.NotFound("user not found")
		}
		u := &users[i]
		setIf(&u.FullName, patch.FullName)
		setRef(&u.PhoneNumber, patch.PhoneNumber)
		setRef(&u.Year, patch.Year)
		setRef(&u.Branch, patch.Branch)
		setRef(&u.Hostel, patch.Hostel)
		setRef(&u.ProfilePicture, patch.ProfilePicture)
		setRef(&u.Bio, patch.Bio)
		u.UpdatedAt = r.store.touch(u.UpdatedAt)
		updated = *u
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func sameEmail(email string) func(models.User) bool {
	email = normalizeEmail(email)
	return func(u models.User) bool { return normalizeEmail(u.Email) == email }
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const defaultOTPAttempts = 5

// AuthOptions tunes the passcode flow.
type AuthOptions struct {
	OTPTTL time.Duration
	// MaxAttempts is how many wrong codes burn a passcode. Defaults to 5.
	MaxAttempts int
	// Generate returns a new passcode. Defaults to six random digits.
	Generate func() (string, error)
}

type authRepository struct {
	store *Store
	users *collection[models.User]
	otps  *collection[models.OTPRecord]
	ttl   time.Duration
	max   int
	gen   func() (string, error)
}

// NewAuthRepository keeps pending passcodes under mock_otps.
func NewAuthRepository(store *Store, opts AuthOptions) repository.AuthRepository {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	if opts.Generate == nil {
		opts.Generate = randomCode
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultOTPAttempts
	}
	return &authRepository{
		store: store,
		users: newUsers(store),
		otps:  newCollection[models.OTPRecord](store, "otps", nil),
		ttl:   opts.OTPTTL,
		max:   opts.MaxAttempts,
		gen:   opts.Generate,
	}
}

// RequestOTP replaces any pending passcode for the email.
func (r *authRepository) RequestOTP(ctx context.Context, email string) (*models.OTPTicket, error) {
	email = normalizeEmail(email)
	code, err := r.gen()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindServer, "failed to generate OTP")
	}
	var ticket models.OTPTicket
	err = mutatePair(ctx, "request_otp", r.otps, r.users, func(otps []models.OTPRecord, users []models.User) ([]models.OTPRecord, []models.User, error) {
		now := r.store.now()
		record := models.OTPRecord{Email: email, Code: code, ExpiresAt: now.Add(r.ttl), CreatedAt: now}
		otps = filterItems(otps, func(o models.OTPRecord) bool { return o.Email != email && o.ExpiresAt.After(now) })
		ticket = models.OTPTicket{
			Email:      email,
			Code:       code,
			ExpiresAt:  record.ExpiresAt,
			UserExists: indexOf(users, sameEmail(email)) >= 0,
		}
		return append(otps, record), users, nil
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// VerifyOTP consumes a matching, unexpired passcode. Every wrong code is
// counted and the passcode is discarded once the attempts run out.
func (r *authRepository) VerifyOTP(ctx context.Context, email, code string) (*models.AuthResult, error) {
	email = normalizeEmail(email)
	var (
		result  models.AuthResult
		failure error
	)
	err := mutatePair(ctx, "verify_otp", r.otps, r.users, func(otps []models.OTPRecord, users []models.User) ([]models.OTPRecord, []models.User, error) {
		i := indexOf(otps, func(o models.OTPRecord) bool { return o.Email == email })
		if i < 0 {
			return nil, nil, apperror.Validation("invalid or expired OTP")
		}
		if !otps[i].ExpiresAt.After(r.store.now()) {
			return nil, nil, apperror.Validation("invalid or expired OTP")
		}
		if subtle.ConstantTimeCompare([]byte(otps[i].Code), []byte(code)) != 1 {
			otps[i].Attempts++
			if otps[i].Attempts >= r.max {
				otps = append(otps[:i], otps[i+1:]...)
				failure = apperror.Validation("too many failed attempts, request a new OTP")
			} else {
				failure = apperror.Validation("invalid OTP")
			}
			return otps, users, nil
		}
		otps = append(otps[:i], otps[i+1:]...)
		if u := indexOf(users, sameEmail(email)); u >= 0 {
			user := users[u]
			result = models.AuthResult{User: &user}
		} else {
			result = models.AuthResult{IsNewUser: true}
		}
		return otps, users, nil
	})
	if err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	return &result, nil
}

func (r *authRepository) Register(ctx context.Context, request dto.RegisterRequest) (*models.AuthResult, error) {
	var created models.User
	err := r.users.mutate(ctx, "register", func(users []models.User) ([]models.User, error) {
		if indexOf(users, sameEmail(request.Email)) >= 0 {
			return nil, apperror.Conflict("user already registered")
		}
		now := r.store.now()
		created = models.User{
			ID:          uuid.NewString(),
			Email:       normalizeEmail(request.Email),
			FullName:    strings.TrimSpace(request.FullName),
			Role:        "student",
			Year:        request.Year,
			Branch:      request.Branch,
			Hostel:      request.Hostel,
			PhoneNumber: request.PhoneNumber,
			Bio:         request.Bio,
			IsActive:    true,
			IsVerified:  true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{User: &created, IsNewUser: true}, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
