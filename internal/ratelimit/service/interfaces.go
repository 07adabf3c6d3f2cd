package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"time"

	"avd/internal/ratelimit/models"
)

// Store counts requests in fixed windows. Keys are plain strings; identity
// validation happens before the service is called.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (models.Decision, error)
}
