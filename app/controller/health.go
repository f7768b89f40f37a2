package controller

import (
	"context"
	"net/http"
	"time"

	httpdto "github.com/vibast-solutions/ms-go-journal/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const readinessTimeout = 3 * time.Second

// DependencyCheck pings one backing service.
type DependencyCheck func(ctx context.Context) error

// dependencyStatus never carries the check error; that only goes to the log.
type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

type HealthController struct {
	checks map[string]DependencyCheck
}

func NewHealthController(checks map[string]DependencyCheck) *HealthController {
	return &HealthController{checks: checks}
}

func (c *HealthController) Root(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, httpdto.StatusResponse{
		Message: "Welcome to Journal API",
		Status:  "active",
	})
}

func (c *HealthController) Liveness(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (c *HealthController) Readiness(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(c.checks))
	healthy := true
	for name, check := range c.checks {
		if err := check(reqCtx); err != nil {
			logrus.WithError(err).WithField("dependency", name).Warn("Readiness check failed")
			deps[name] = dependencyStatus{Status: "unhealthy"}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	if !healthy {
		return ctx.JSON(http.StatusServiceUnavailable, readinessResponse{Status: "degraded", Dependencies: deps})
	}
	return ctx.JSON(http.StatusOK, readinessResponse{Status: "ok", Dependencies: deps})
}
