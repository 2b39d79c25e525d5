package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// healthCheckTimeout bounds all probes together.
const healthCheckTimeout = 2 * time.Second

// HealthProbe checks one dependency (e.g. the Stripe circuit breaker).
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every probe concurrently under a shared deadline and
// answers 200 when all pass, 503 otherwise. Probes that have not returned by
// the deadline count as failed.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	var (
		mu      sync.Mutex
		results = make(map[string]error, len(s.HealthProbes))
		wg      sync.WaitGroup
	)
	for _, probe := range s.HealthProbes {
		wg.Add(1)
		go func(p HealthProbe) {
			defer wg.Done()
			err := runProbe(ctx, p)
			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
		}(probe)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()

	resp := healthResponse{Status: "healthy", Components: make(map[string]componentStatus, len(s.HealthProbes))}
	for _, probe := range s.HealthProbes {
		name := probe.Name()
		err, finished := results[name]
		switch {
		case !finished:
			resp.Status = "unhealthy"
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case err != nil:
			resp.Status = "unhealthy"
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: err.Error()}
		default:
			resp.Components[name] = componentStatus{Status: "healthy"}
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}

func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("probe panicked: %v", rec)
		}
	}()
	return p.Check(ctx)
}
