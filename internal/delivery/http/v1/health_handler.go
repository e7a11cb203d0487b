package v1

import (
	"net/http"
	"time"

	"fourwheels-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	OK bool `json:"ok"`
	// Seconds since start
	Uptime float64 `json:"uptime" example:"3600.5"`
}

type ReadinessResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks" example:"ratelimit:up"`
}

type HealthHandler struct {
	startedAt time.Time
	healthUC  domain.HealthUsecase
}

func NewHealthHandler(public *gin.RouterGroup, startedAt time.Time, healthUC domain.HealthUsecase) {
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	handler := &HealthHandler{startedAt: startedAt, healthUC: healthUC}
	public.GET("/health", handler.Health)
	if healthUC != nil {
		public.GET("/health/ready", handler.Ready)
	}
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		OK:     true,
		Uptime: time.Since(h.startedAt).Seconds(),
	})
}

// Ready godoc
// @Summary      Readiness of backing services
// @Description  Probes the rate limit store and the virus scanner when they are remote.
// @Tags         system
// @Produce      json
// @Success      200  {object}  ReadinessResponse
// @Failure      503  {object}  ReadinessResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	checks, ready := h.healthUC.Check(c.Request.Context())
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, ReadinessResponse{OK: ready, Checks: checks})
}
