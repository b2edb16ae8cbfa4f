package handler

import (
	"chatrelay/internal/app/relay"
	"chatrelay/internal/configs"
	"chatrelay/internal/pkg/limiter"
)

// AppDeps carries what the HTTP handlers need.
type AppDeps struct {
	Hub    *relay.Hub
	Config *configs.AppConfig

	// UpgradeLimiter bounds WebSocket upgrades per client IP.
	UpgradeLimiter *limiter.IPRateLimiter

	// APILimiter bounds HTTP API requests per client IP.
	APILimiter *limiter.IPRateLimiter
}
