package domain

import "context"

// Readiness states reported per dependency.
const (
	HealthUp   = "up"
	HealthDown = "down"
)

type HealthUsecase interface {
	// Check probes every registered dependency. ready is false when any of
	// them is down.
	Check(ctx context.Context) (status map[string]string, ready bool)
}
