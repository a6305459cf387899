package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.Set("jwt.secret", "test-secret")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)
	require.Equal(t, "local", cfg.DataMode)
	require.Equal(t, 500*time.Millisecond, cfg.DataLatency)
	require.Equal(t, "serialized", cfg.DataWriteMode)
	require.Equal(t, StoreMemory, cfg.StoreDriver)
	require.Equal(t, 10*time.Minute, cfg.OTPTTL)
	require.Equal(t, int64(5<<20), cfg.UploadMaxBytes)
	require.Equal(t, "uploads", cfg.UploadDir)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.True(t, cfg.IsDevelopment())
}

func TestValidation(t *testing.T) {
	cases := map[string]map[string]any{
		"missing secret":       {"jwt.secret": ""},
		"unknown mode":         {"data.mode": "hybrid"},
		"unknown write mode":   {"data.write_mode": "eventual"},
		"bad latency":          {"data.latency": "soon"},
		"negative latency":     {"data.latency": "-1s"},
		"redis without url":    {"store.driver": "redis"},
		"postgres without url": {"store.driver": "postgres"},
		"remote without url":   {"data.mode": "remote", "remote.base_url": " "},
		"unknown delivery":     {"auth.otp_delivery": "pigeon"},
		"smtp without host":    {"auth.otp_delivery": "smtp", "smtp.from": "no-reply@plaksha.edu.in"},
		"smtp without sender":  {"auth.otp_delivery": "smtp", "smtp.host": "smtp.plaksha.edu.in"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromViper(newViper(overrides))
			require.Error(t, err)
		})
	}
}

func TestRemoteMode(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"data.mode": "REMOTE", "remote.timeout": "5s"}))
	require.NoError(t, err)
	require.Equal(t, "remote", cfg.DataMode)
	require.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	require.Equal(t, "http://localhost:8000/api", cfg.RemoteBaseURL)
}

func TestSMTPDelivery(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"auth.otp_delivery": "SMTP",
		"smtp.host":         "smtp.plaksha.edu.in",
		"smtp.from":         "PlakshaConnect <no-reply@plaksha.edu.in>",
		"smtp.username":     "mailer",
	}))
	require.NoError(t, err)
	require.Equal(t, "smtp", cfg.OTPDelivery)
	require.Equal(t, "587", cfg.SMTPPort)
	require.Equal(t, "mailer", cfg.SMTPUsername)
}
