package service

import (
	"context"
	"time"

	"chat_server/internal/config"
	"chat_server/pkg/logger"
)

// IdleCleanupScheduler периодически выселяет из кеша комнат тех, кто давно
// не активничал. Чистка влияет только на эффективность fan-out:
// durable-членство не трогается, авторизация не страдает.
type IdleCleanupScheduler struct {
	store GroupMembershipStore
	cfg   config.ChatConfig
	log   logger.Logger
}

func NewIdleCleanupScheduler(store GroupMembershipStore, cfg config.ChatConfig, log logger.Logger) *IdleCleanupScheduler {
	return &IdleCleanupScheduler{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

func (s *IdleCleanupScheduler) Run(ctx context.Context) {
	s.log.Info("Idle cleanup scheduler started",
		"interval", s.cfg.CleanupInterval, "threshold", s.cfg.IdleThreshold)

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Idle cleanup scheduler stopped")
			return
		case <-ticker.C:
			if evicted := s.store.EvictIdle(s.cfg.IdleThreshold); evicted > 0 {
				s.log.Info("Evicted idle users from membership cache", "count", evicted)
			}
		}
	}
}
