package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	purposeAccess       = "access"
	purposeRegistration = "registration"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens constructs a token manager.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of access tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs an access token for the actor. upstream carries the remote
// API credential when the gateway runs against a remote backend.
func (t *Tokens) Issue(actor Actor, upstream string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"sub":     actor.UserID,
		"email":   actor.Email,
		"name":    actor.FullName,
		"role":    actor.Role,
		"purpose": purposeAccess,
		"iat":     now.Unix(),
		"exp":     expires.Unix(),
	}
	if actor.Year != nil {
		claims["year"] = *actor.Year
	}
	if actor.Branch != nil {
		claims["branch"] = *actor.Branch
	}
	if actor.Hostel != nil {
		claims["hostel"] = *actor.Hostel
	}
	if upstream != "" {
		claims["upstream"] = upstream
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// IssueRegistration signs a short-lived token proving the email passed OTP verification.
func (t *Tokens) IssueRegistration(email string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":     strings.ToLower(strings.TrimSpace(email)),
		"purpose": purposeRegistration,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies an access token and rebuilds the actor. The actor's Token is
// the upstream credential when present, otherwise the raw token itself.
func (t *Tokens) Parse(raw string) (Actor, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return Actor{}, err
	}
	if stringClaim(claims, "purpose") != purposeAccess {
		return Actor{}, ErrInvalidToken
	}

	actor := Actor{
		UserID:   stringClaim(claims, "sub"),
		Email:    stringClaim(claims, "email"),
		FullName: stringClaim(claims, "name"),
		Role:     strings.ToLower(stringClaim(claims, "role")),
		Token:    raw,
	}
	if actor.UserID == "" {
		return Actor{}, ErrInvalidToken
	}
	if v, ok := claims["year"].(float64); ok {
		year := int(v)
		actor.Year = &year
	}
	if v := stringClaim(claims, "branch"); v != "" {
		actor.Branch = &v
	}
	if v := stringClaim(claims, "hostel"); v != "" {
		actor.Hostel = &v
	}
	if upstream := stringClaim(claims, "upstream"); upstream != "" {
		actor.Token = upstream
	}
	return actor, nil
}

// ParseRegistration verifies a registration token and returns the verified email.
func (t *Tokens) ParseRegistration(raw string) (string, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return "", err
	}
	if stringClaim(claims, "purpose") != purposeRegistration {
		return "", ErrInvalidToken
	}
	email := stringClaim(claims, "sub")
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}

func (t *Tokens) parse(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(strings.TrimSpace(raw), func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
