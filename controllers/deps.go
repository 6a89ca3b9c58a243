package controllers

import (
	"context"

	"HealthAssist/middleware"
	"HealthAssist/pkg/auth"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/services"
	"HealthAssist/pkg/store"
)

// Deps is everything the HTTP layer needs, built once in main.
type Deps struct {
	Log           *logger.Logger
	Users         store.UserStore
	Conversations store.ConversationStore
	Metrics       store.MetricStore
	Medications   store.MedicationStore
	Issuer        *auth.Issuer
	Authenticator *auth.Authenticator
	Relay         *services.ChatRelay
	Seeder        *services.Seeder
	RateLimiter   *middleware.RateLimiter
	// Ping reports database liveness for /healthz; nil skips the check.
	Ping func(ctx context.Context) error
}
