package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	probeHealthy     = "healthy"
	probeUnhealthy   = "unhealthy"
	probeUnavailable = "unavailable"
	readinessTimeout = 5 * time.Second
)

type readiness struct {
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Modules []string          `json:"modules"`
	Checks  map[string]string `json:"checks"`
	Time    time.Time         `json:"time"`
}

// LivenessCheck answers as long as the process serves HTTP.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck probes Postgres and Redis. A missing Redis client counts
// as not ready since revocation and chat fan-out depend on it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
	defer cancel()

	out := readiness{
		Message: "modulehub",
		Status:  probeHealthy,
		Modules: s.mountedModules(),
		Checks: map[string]string{
			"database": s.probeDatabase(ctx),
			"redis":    s.probeRedis(ctx),
		},
		Time: time.Now(),
	}
	code := fiber.StatusOK
	for _, state := range out.Checks {
		if state != probeHealthy {
			out.Status, code = probeUnhealthy, fiber.StatusServiceUnavailable
		}
	}
	return c.Status(code).JSON(out)
}

func (s *Server) probeDatabase(ctx context.Context) string {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return probeUnhealthy
	}
	return probeHealthy
}

func (s *Server) probeRedis(ctx context.Context) string {
	if s.redis == nil {
		return probeUnavailable
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return probeUnhealthy
	}
	return probeHealthy
}

func (s *Server) mountedModules() []string {
	out := make([]string, 0, len(moduleNames))
	for _, name := range moduleNames {
		if s.featureFlags.Mounted(name) {
			out = append(out, name)
		}
	}
	return out
}
