package usecase

import (
	"context"
	"sync"
	"time"

	"fourwheels-backend/internal/domain"
	"fourwheels-backend/pkg/logger"
)

// HealthCheck returns nil when the dependency answers.
type HealthCheck func(ctx context.Context) error

type healthUsecase struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthUsecase runs checks concurrently, each bounded by timeout.
func NewHealthUsecase(checks map[string]HealthCheck, timeout time.Duration) domain.HealthUsecase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &healthUsecase{checks: checks, timeout: timeout}
}

func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		status = make(map[string]string, len(u.checks))
		ready  = true
	)
	for name, check := range u.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state := domain.HealthUp
			if err := check(ctx); err != nil {
				// The error stays in the log; callers only see up/down.
				logger.Log.Warn("Readiness check failed", "dependency", name, "error", err)
				state = domain.HealthDown
			}
			mu.Lock()
			status[name] = state
			if state == domain.HealthDown {
				ready = false
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	return status, ready
}
