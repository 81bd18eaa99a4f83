package obs

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 2 * time.Second

// Probe is one readiness dependency, e.g. the Mongo ping.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandlers serves /livez and /readyz. Readiness fails when any probe fails and
// reports every probe by name.
type HealthHandlers struct {
	Probes []Probe
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.Probes))
	for _, p := range h.Probes {
		if err := p.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[p.Name] = err.Error()
			continue
		}
		checks[p.Name] = "ok"
	}
	body := gin.H{"status": "ready", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "not ready"
	}
	c.JSON(status, body)
}
