package listeners

import (
	"context"

	"go.uber.org/zap"

	"gearguard/internal/events"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	"gearguard/pkg/eventbus"
)

// CacheInvalidationListener сбрасывает кеш статистики после любых изменений заявок.
type CacheInvalidationListener struct {
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
}

func NewCacheInvalidationListener(cacheRepo repositories.CacheRepositoryInterface, logger *zap.Logger) *CacheInvalidationListener {
	return &CacheInvalidationListener{cacheRepo: cacheRepo, logger: logger}
}

func (l *CacheInvalidationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.RequestChanged, l.handle)
	bus.Subscribe(events.EquipmentScrapped, l.handle)
}

func (l *CacheInvalidationListener) handle(ctx context.Context, event eventbus.Event) error {
	if err := l.cacheRepo.DelByPattern(ctx, constants.CacheKeyRequestStatsPattern); err != nil {
		l.logger.Warn("Не удалось сбросить кеш статистики", zap.String("event", event.Name()), zap.Error(err))
		return err
	}
	return nil
}
