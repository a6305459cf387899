package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/plaksha-connect/internal/config"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

const serviceName = "plaksha-connect"

// HealthResponse reports liveness and which data source the gateway uses.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	DataMode    string    `json:"data_mode"`
	Store       string    `json:"store,omitempty"`
	Upstream    string    `json:"upstream,omitempty"`
}

// HealthCheck answers without touching the store or the upstream API.
func HealthCheck(cfg config.Config) fiber.Handler {
	payload := HealthResponse{
		Status:      "ok",
		Service:     serviceName,
		Environment: cfg.AppEnv,
		DataMode:    cfg.DataMode,
	}
	if cfg.DataMode == "remote" {
		payload.Upstream = cfg.RemoteBaseURL
	} else {
		payload.Store = cfg.StoreDriver
	}

	return func(c *fiber.Ctx) error {
		response := payload
		response.Timestamp = time.Now().UTC()
		return utils.SendSuccess(c, "service healthy", response)
	}
}
