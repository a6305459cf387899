package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
)

func TestAuthHandler_PasscodeSignIn(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.call(t, http.MethodPost, "/api/auth/request-otp", dto.OTPRequest{Email: "dev@plaksha.edu.in"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket := decodeData[dto.OTPResponse](t, resp)
	require.True(t, ticket.DevMode)
	require.True(t, ticket.UserExists)
	require.Len(t, ticket.OTP, 6)

	resp = srv.call(t, http.MethodPost, "/api/auth/verify-otp", dto.OTPVerifyRequest{Email: "dev@plaksha.edu.in", OTPCode: ticket.OTP}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verified := decodeData[dto.VerifyResponse](t, resp)
	require.False(t, verified.RequiresRegistration)
	require.NotNil(t, verified.Token)

	resp = srv.call(t, http.MethodGet, "/api/auth/me", nil, verified.Token.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeData[models.User](t, resp)
	require.Equal(t, "mock-user-123", me.ID)

	bio := "Robotics club"
	resp = srv.call(t, http.MethodPut, "/api/users/me", dto.UserUpdateRequest{Bio: &bio}, verified.Token.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, bio, *decodeData[models.User](t, resp).Bio)
}

func TestAuthHandler_RegistrationNeedsVerificationToken(t *testing.T) {
	srv := newTestServer(t)
	email := "newcomer@plaksha.edu.in"

	resp := srv.call(t, http.MethodPost, "/api/auth/request-otp", dto.OTPRequest{Email: email}, "")
	ticket := decodeData[dto.OTPResponse](t, resp)
	require.False(t, ticket.UserExists)

	resp = srv.call(t, http.MethodPost, "/api/auth/verify-otp", dto.OTPVerifyRequest{Email: email, OTPCode: ticket.OTP}, "")
	verified := decodeData[dto.VerifyResponse](t, resp)
	require.True(t, verified.RequiresRegistration)
	require.NotEmpty(t, verified.VerificationToken)

	form := map[string]interface{}{"email": email, "full_name": "New Comer"}
	resp = srv.call(t, http.MethodPost, "/api/auth/register", form, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	form["verification_token"] = verified.VerificationToken
	resp = srv.call(t, http.MethodPost, "/api/auth/register", form, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	issued := decodeData[dto.TokenResponse](t, resp)
	require.Equal(t, email, issued.User.Email)

	delete(form, "verification_token")
	resp = srv.call(t, http.MethodPost, "/api/auth/register", form, verified.VerificationToken)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthHandler_Guards(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.call(t, http.MethodGet, "/api/users/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.call(t, http.MethodGet, "/api/users/me", nil, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.call(t, http.MethodPost, "/api/auth/verify-otp", dto.OTPVerifyRequest{Email: "dev@plaksha.edu.in", OTPCode: "12ab56"}, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp = srv.call(t, http.MethodPost, "/api/auth/request-otp", dto.OTPRequest{Email: "dev@plaksha.edu.in"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp = srv.call(t, http.MethodPost, "/api/auth/request-otp", dto.OTPRequest{Email: "dev@plaksha.edu.in"}, "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestAuthHandler_VerifyIsThrottled(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.call(t, http.MethodPost, "/api/auth/request-otp", dto.OTPRequest{Email: "dev@plaksha.edu.in"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket := decodeData[dto.OTPResponse](t, resp)

	wrong := "000000"
	if ticket.OTP == wrong {
		wrong = "111111"
	}
	for i := 0; i < 5; i++ {
		resp = srv.call(t, http.MethodPost, "/api/auth/verify-otp", dto.OTPVerifyRequest{Email: "dev@plaksha.edu.in", OTPCode: wrong}, "")
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	}

	resp = srv.call(t, http.MethodPost, "/api/auth/verify-otp", dto.OTPVerifyRequest{Email: "dev@plaksha.edu.in", OTPCode: ticket.OTP}, "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}
